package apiviewv1

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulldump/scorepane/surface"
	"github.com/fulldump/scorepane/view"
)

var ErrEmptyDocument = errors.New("document is empty")

type loadRequest struct {
	Document string `json:"document"`
}

func load(ctx context.Context, input *loadRequest) (*view.Status, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}
	if input.Document == "" {
		return nil, ErrEmptyDocument
	}

	var status *view.Status
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		if err := v.Load(input.Document); err != nil {
			return err
		}
		status = v.Status()
		return nil
	})
	return status, err
}

type renderPageRequest struct {
	PageIndex int `json:"pageIndex"`
}

// renderPage asks for one page again, leaving the others untouched.
func renderPage(ctx context.Context, input *renderPageRequest) (*view.Status, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	var status *view.Status
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		status = v.Status()
		if input.PageIndex < 0 || input.PageIndex >= status.PageCount {
			return fmt.Errorf("%w: page %d of %d", surface.ErrPageOutOfRange, input.PageIndex, status.PageCount)
		}
		v.RenderPage(input.PageIndex)
		return nil
	})
	return status, err
}
