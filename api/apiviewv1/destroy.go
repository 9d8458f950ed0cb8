package apiviewv1

import (
	"context"
	"net/http"
)

func destroy(ctx context.Context, w http.ResponseWriter) error {

	handle, err := getHandle(ctx)
	if err != nil {
		return err
	}

	err = GetServicer(ctx).DestroyView(ctx, handle)
	if err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
