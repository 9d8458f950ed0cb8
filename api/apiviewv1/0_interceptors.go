package apiviewv1

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fulldump/box"

	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/service"
)

type contextKey string

const ContextServicerKey contextKey = "ed0fa170-5593-11ed-9d60-9bdc940af29d"

var ErrInvalidHandle = errors.New("invalid view handle")
var ErrInvalidPage = errors.New("invalid page")

func SetServicer(ctx context.Context, s service.Servicer) context.Context {
	return context.WithValue(ctx, ContextServicerKey, s)
}

func GetServicer(ctx context.Context) service.Servicer {
	return ctx.Value(ContextServicerKey).(service.Servicer)
}

func getHandle(ctx context.Context) (controller.Handle, error) {
	raw := box.GetUrlParameter(ctx, "handle")
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: '%s'", ErrInvalidHandle, raw)
	}
	return controller.Handle(n), nil
}
