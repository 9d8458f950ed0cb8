package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/scorepane/view"
)

// resize answers before anything is rendered: the document is rendered
// again once resizes stop arriving.
func resize(ctx context.Context, w http.ResponseWriter, input *view.Viewport) (*view.Viewport, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	var viewport view.Viewport
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		v.Resize(input.Width, input.Height)
		viewport = v.Viewport()
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusAccepted)
	return &viewport, nil
}
