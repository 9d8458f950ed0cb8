package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	encodingjson "encoding/json"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json"

	"github.com/fulldump/scorepane/api/apiviewv1"
	"github.com/fulldump/scorepane/broker"
	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/drag"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/service"
	"github.com/fulldump/scorepane/surface"
	"github.com/fulldump/scorepane/view"
)

var ErrUnavailable = errors.New("temporary unavailable")

type PrettyError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (p PrettyError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"error": struct {
			Message     string `json:"message"`
			Description string `json:"description"`
		}{
			p.Message,
			p.Description,
		},
	})
}

func (p PrettyError) MarshalTo(w io.Writer) error {
	return json.MarshalWrite(w, p)
}

func InterceptorUnavailable(s service.Servicer) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := s.Status()
			if status == controller.StatusOpening {
				box.SetError(ctx, fmt.Errorf("%w: opening", ErrUnavailable))
				return
			}
			if status == controller.StatusClosing {
				box.SetError(ctx, fmt.Errorf("%w: closing", ErrUnavailable))
				return
			}
			next(ctx)
		}
	}
}

// describe maps an error to its http status and a human description.
func describe(ctx context.Context, err error) (int, string) {

	var syntaxError *encodingjson.SyntaxError
	var typeError *encodingjson.UnmarshalTypeError

	switch {
	case errors.Is(err, box.ErrResourceNotFound):
		return http.StatusNotFound, fmt.Sprintf("resource '%s' not found", box.GetRequest(ctx).URL.String())
	case errors.Is(err, box.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, fmt.Sprintf("method '%s' not allowed", box.GetRequest(ctx).Method)
	case errors.As(err, &syntaxError), errors.As(err, &typeError),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, "Malformed JSON"
	case errors.Is(err, controller.ErrViewNotFound),
		errors.Is(err, surface.ErrNotFound),
		errors.Is(err, service.ErrorSubscriptionNotFound):
		return http.StatusNotFound, "no such view or object"
	case errors.Is(err, apiviewv1.ErrInvalidHandle),
		errors.Is(err, apiviewv1.ErrInvalidPage),
		errors.Is(err, apiviewv1.ErrInvalidFilter),
		errors.Is(err, apiviewv1.ErrEmptyDocument),
		errors.Is(err, apiviewv1.ErrScrollTarget),
		errors.Is(err, service.ErrorUnknownTopic),
		errors.Is(err, protocol.ErrInvalidOptions),
		errors.Is(err, surface.ErrPageOutOfRange):
		return http.StatusBadRequest, "Bad request"
	case errors.Is(err, drag.ErrNotArmed),
		errors.Is(err, surface.ErrNotInteractive),
		errors.Is(err, view.ErrNoDocument):
		return http.StatusConflict, "the view is not in a state that allows this"
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, controller.ErrClosed):
		return http.StatusServiceUnavailable, "try again later"
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "the engine did not answer in time"
	}

	var remote *broker.RemoteError
	if errors.As(err, &remote) {
		return http.StatusUnprocessableEntity, "the engine rejected the request"
	}

	return http.StatusInternalServerError, "Unexpected error"
}

func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, description := describe(ctx, err)
		w.WriteHeader(status)
		PrettyError{
			Message:     err.Error(),
			Description: description,
		}.MarshalTo(w)
	}
}
