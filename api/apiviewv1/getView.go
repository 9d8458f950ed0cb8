package apiviewv1

import (
	"context"

	"github.com/fulldump/scorepane/view"
)

func getView(ctx context.Context) (*view.Status, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	return GetServicer(ctx).GetView(ctx, handle)
}
