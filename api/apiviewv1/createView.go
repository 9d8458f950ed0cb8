package apiviewv1

import (
	"context"
	"net/http"

	"github.com/fulldump/scorepane/service"
	"github.com/fulldump/scorepane/view"
)

func createView(ctx context.Context, w http.ResponseWriter, input *service.CreateViewInput) (*view.Status, error) {

	s := GetServicer(ctx)

	status, err := s.CreateView(ctx, input)
	if err != nil {
		return nil, err
	}

	w.WriteHeader(http.StatusCreated)
	return status, nil
}
