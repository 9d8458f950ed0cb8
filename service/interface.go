package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/view"
)

var ErrorUnknownTopic = errors.New("unknown topic")
var ErrorSubscriptionNotFound = errors.New("subscription not found")

type Servicer interface {
	Status() string
	CreateView(ctx context.Context, input *CreateViewInput) (*view.Status, error)
	ListViews(ctx context.Context) ([]*view.Status, error)
	GetView(ctx context.Context, handle controller.Handle) (*view.Status, error)
	DestroyView(ctx context.Context, handle controller.Handle) error
	WithView(ctx context.Context, handle controller.Handle, f func(v *view.View) error) error
	FetchDocument(ctx context.Context, handle controller.Handle) (string, error)
	Subscribe(ctx context.Context, handle controller.Handle, topic events.Topic, filter map[string]any, send func(evt events.Event)) (*Subscription, error)
	Unsubscribe(ctx context.Context, id uuid.UUID) error
}
