package apiviewv1

import (
	"context"

	"github.com/fulldump/scorepane/view"
)

type zoomResponse struct {
	Changed    bool            `json:"changed"`
	Navigation view.Navigation `json:"navigation"`
}

func zoomIn(ctx context.Context) (*zoomResponse, error) {
	return zoom(ctx, (*view.View).ZoomIn)
}

func zoomOut(ctx context.Context) (*zoomResponse, error) {
	return zoom(ctx, (*view.View).ZoomOut)
}

func zoom(ctx context.Context, step func(v *view.View) (bool, error)) (*zoomResponse, error) {

	response := &zoomResponse{}
	nav, err := navigate(ctx, func(v *view.View) error {
		changed, err := step(v)
		response.Changed = changed
		return err
	})
	if err != nil {
		return nil, err
	}

	response.Navigation = *nav
	return response, nil
}
