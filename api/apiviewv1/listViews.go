package apiviewv1

import (
	"context"

	"github.com/fulldump/scorepane/view"
)

func listViews(ctx context.Context) ([]*view.Status, error) {
	return GetServicer(ctx).ListViews(ctx)
}
