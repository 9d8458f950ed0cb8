package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/view"
)

type pointerRequest struct {
	Target string  `json:"target"`
	Y      float64 `json:"y"`
}

type pointerResponse struct {
	Drag       string   `json:"drag"`
	Highlights []string `json:"highlights"`
}

func pointer(ctx context.Context, f func(v *view.View) error) (*pointerResponse, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	response := &pointerResponse{}
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		if err := f(v); err != nil {
			return err
		}
		response.Drag = v.DragState().String()
		response.Highlights = v.Highlights()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

func pointerDown(ctx context.Context, input *pointerRequest) (*pointerResponse, error) {
	return pointer(ctx, func(v *view.View) error {
		return v.PointerDown(input.Target, input.Y)
	})
}

func pointerMove(ctx context.Context, input *pointerRequest) (*pointerResponse, error) {
	return pointer(ctx, func(v *view.View) error {
		return v.PointerMove(input.Y)
	})
}

func pointerUp(ctx context.Context, input *pointerRequest) (*pointerResponse, error) {
	return pointer(ctx, func(v *view.View) error {
		return v.PointerUp(input.Y)
	})
}

type clickRequest struct {
	Target string `json:"target"`
}

// click answers 204 when the object is not inside a measure.
func click(ctx context.Context, w http.ResponseWriter, input *clickRequest) (*events.ObjectClicked, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	var clicked *events.ObjectClicked
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		var clickErr error
		clicked, clickErr = v.Click(input.Target)
		return clickErr
	})
	if err != nil {
		return nil, err
	}
	if clicked == nil {
		w.WriteHeader(http.StatusNoContent)
	}
	return clicked, nil
}
