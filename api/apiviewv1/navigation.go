package apiviewv1

import (
	"context"
	"errors"

	"github.com/fulldump/scorepane/view"
)

var ErrScrollTarget = errors.New("either pageIndex or target is required")

// navigate runs f on the view and answers with the resulting navigation
// state.
func navigate(ctx context.Context, f func(v *view.View) error) (*view.Navigation, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	var nav view.Navigation
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		if err := f(v); err != nil {
			return err
		}
		nav = v.Navigation()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &nav, nil
}

func toggleOrientation(ctx context.Context) (*view.Navigation, error) {
	return navigate(ctx, func(v *view.View) error {
		return v.ToggleOrientation()
	})
}

func nextPage(ctx context.Context) (*view.Navigation, error) {
	return navigate(ctx, func(v *view.View) error {
		v.NextPage()
		return nil
	})
}

func prevPage(ctx context.Context) (*view.Navigation, error) {
	return navigate(ctx, func(v *view.View) error {
		v.PrevPage()
		return nil
	})
}

type scrollRequest struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

func scroll(ctx context.Context, input *scrollRequest) (*view.Navigation, error) {
	return navigate(ctx, func(v *view.View) error {
		v.Scroll(input.Top, input.Left)
		return nil
	})
}

type scrollToRequest struct {
	PageIndex *int   `json:"pageIndex"`
	Target    string `json:"target"`
}

func scrollTo(ctx context.Context, input *scrollToRequest) (*view.Navigation, error) {
	return navigate(ctx, func(v *view.View) error {
		switch {
		case input.Target != "":
			return v.ScrollToObject(input.Target)
		case input.PageIndex != nil:
			return v.ScrollToPage(*input.PageIndex)
		}
		return ErrScrollTarget
	})
}
