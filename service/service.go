package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulldump/scorepane/broker"
	"github.com/fulldump/scorepane/clock"
	"github.com/fulldump/scorepane/controller"
	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/view"
)

// Config holds what a new view starts with unless the request says
// otherwise.
type Config struct {
	Options      protocol.RenderOptions
	Viewport     view.Viewport
	ResizeSettle time.Duration
	Clock        clock.Clock
	Logger       *slog.Logger
}

type Service struct {
	config     *Config
	controller *controller.Controller

	mutex         sync.Mutex
	subscriptions map[uuid.UUID]*Subscription
}

// Subscription forwards the events of one view topic to send. Done is
// closed when the subscription ends, whoever ends it.
type Subscription struct {
	ID     uuid.UUID    `json:"id"`
	Handle int          `json:"handle"`
	Topic  events.Topic `json:"topic"`

	bus    *events.Bus
	handle events.Handle
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) end() {
	s.once.Do(func() {
		close(s.done)
	})
}

func NewService(c *controller.Controller, config *Config) *Service {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Service{
		config:        config,
		controller:    c,
		subscriptions: map[uuid.UUID]*Subscription{},
	}
}

func (s *Service) Status() string {
	return s.controller.GetStatus()
}

type CreateViewInput struct {
	Document string                  `json:"document"`
	Options  *protocol.RenderOptions `json:"options"`
	Viewport *view.Viewport          `json:"viewport"`
}

// CreateView registers a new view and, if a document is given, starts
// loading it. Rendering goes on in the background.
func (s *Service) CreateView(ctx context.Context, input *CreateViewInput) (*view.Status, error) {
	options := s.config.Options
	if input.Options != nil {
		options = *input.Options
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	viewport := s.config.Viewport
	if input.Viewport != nil {
		viewport = *input.Viewport
	}

	v := view.New(&view.Config{
		Options:      options,
		Viewport:     viewport,
		ResizeSettle: s.config.ResizeSettle,
		Clock:        s.config.Clock,
		Logger:       s.config.Logger,
	})

	var status *view.Status
	err := s.controller.Do(ctx, func() error {
		s.controller.Register(v)
		if input.Document != "" {
			if err := v.Load(input.Document); err != nil {
				return err
			}
		}
		status = v.Status()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return status, nil
}

func (s *Service) ListViews(ctx context.Context) ([]*view.Status, error) {
	result := []*view.Status{}
	err := s.controller.Do(ctx, func() error {
		for _, handle := range s.controller.Handles() {
			v, err := s.lookup(handle)
			if err != nil {
				return err
			}
			result = append(result, v.Status())
		}
		return nil
	})
	return result, err
}

func (s *Service) GetView(ctx context.Context, handle controller.Handle) (*view.Status, error) {
	var status *view.Status
	err := s.WithView(ctx, handle, func(v *view.View) error {
		status = v.Status()
		return nil
	})
	return status, err
}

func (s *Service) DestroyView(ctx context.Context, handle controller.Handle) error {
	err := s.controller.Do(ctx, func() error {
		return s.controller.Destroy(handle)
	})
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for id, sub := range s.subscriptions {
		if sub.Handle == int(handle) {
			delete(s.subscriptions, id)
			sub.end()
		}
	}
	return nil
}

// WithView runs f on the controller loop with the view behind handle.
func (s *Service) WithView(ctx context.Context, handle controller.Handle, f func(v *view.View) error) error {
	return s.controller.Do(ctx, func() error {
		v, err := s.lookup(handle)
		if err != nil {
			return err
		}
		return f(v)
	})
}

// FetchDocument waits, off the loop, for the engine to hand back the
// current document.
func (s *Service) FetchDocument(ctx context.Context, handle controller.Handle) (string, error) {
	var future *broker.Future
	err := s.WithView(ctx, handle, func(v *view.View) error {
		var err error
		future, err = v.FetchDocument()
		return err
	})
	if err != nil {
		return "", err
	}

	msg, err := future.Wait(ctx)
	if err != nil {
		return "", err
	}
	document, ok := msg.(protocol.Document)
	if !ok {
		return "", fmt.Errorf("unexpected %s", msg.Kind())
	}
	return document.Document, nil
}

// Subscribe forwards the events of a view topic to send, which is called
// on the controller loop and must not block.
func (s *Service) Subscribe(ctx context.Context, handle controller.Handle, topic events.Topic, filter map[string]any, send func(evt events.Event)) (*Subscription, error) {
	if !slices.Contains(events.Topics, topic) {
		return nil, fmt.Errorf("%w: '%s'", ErrorUnknownTopic, topic)
	}

	sub := &Subscription{
		ID:     uuid.New(),
		Handle: int(handle),
		Topic:  topic,
		done:   make(chan struct{}),
	}

	err := s.WithView(ctx, handle, func(v *view.View) error {
		sub.bus = v.Bus()
		sub.handle = v.Bus().SubscribeFilter(topic, filter, func(evt events.Event) {
			send(evt)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.subscriptions[sub.ID] = sub
	s.mutex.Unlock()

	return sub, nil
}

func (s *Service) Unsubscribe(ctx context.Context, id uuid.UUID) error {
	s.mutex.Lock()
	sub, exists := s.subscriptions[id]
	delete(s.subscriptions, id)
	s.mutex.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrorSubscriptionNotFound, id)
	}

	defer sub.end()
	return s.controller.Do(ctx, func() error {
		sub.bus.Unsubscribe(sub.handle, false)
		return nil
	})
}

func (s *Service) lookup(handle controller.Handle) (*view.View, error) {
	registered, exists := s.controller.View(handle)
	if !exists {
		return nil, fmt.Errorf("%w: %d", controller.ErrViewNotFound, handle)
	}
	v, ok := registered.(*view.View)
	if !ok {
		return nil, fmt.Errorf("%w: %d", controller.ErrViewNotFound, handle)
	}
	return v, nil
}
