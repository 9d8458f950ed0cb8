package apiviewv1

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/fulldump/box"

	"github.com/fulldump/scorepane/view"
)

// content writes the markup of the content surface, or of one page with
// ?page=n.
func content(ctx context.Context, w http.ResponseWriter) error {
	return writeMarkup(ctx, w, func(v *view.View, page int) (string, error) {
		if page < 0 {
			return v.ContentMarkup(), nil
		}
		return v.PageMarkup(page)
	})
}

func overlay(ctx context.Context, w http.ResponseWriter) error {
	return writeMarkup(ctx, w, func(v *view.View, page int) (string, error) {
		return v.OverlayMarkup(), nil
	})
}

func writeMarkup(ctx context.Context, w http.ResponseWriter, f func(v *view.View, page int) (string, error)) error {

	handle, err := getHandle(ctx)
	if err != nil {
		return err
	}

	page := -1
	if raw := box.GetRequest(ctx).URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 0 {
			return ErrInvalidPage
		}
	}

	var markup string
	err = GetServicer(ctx).WithView(ctx, handle, func(v *view.View) error {
		var markupErr error
		markup, markupErr = f(v, page)
		return markupErr
	})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = io.WriteString(w, markup)
	return err
}
