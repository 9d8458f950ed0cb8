// Package controller owns the views of a process and the execution context
// of each one, and runs the single loop every state change goes through:
// API calls, resolved tickets and timers alike.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/fulldump/scorepane/broker"
	"github.com/fulldump/scorepane/metrics"
	"github.com/fulldump/scorepane/protocol"
	"github.com/fulldump/scorepane/toolkit"
	"github.com/fulldump/scorepane/worker"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

var ErrViewNotFound = errors.New("view not found")
var ErrClosed = errors.New("controller closed")

// Handle identifies a view. Handles are never reused.
type Handle int

// Context is an isolated execution context hosting one engine.
type Context interface {
	PostMessage(data []byte)
	Terminate()
}

// Spawner creates the execution context of a new view. Replies posted to
// reply may come from any goroutine.
type Spawner func(handle Handle, reply func(data []byte)) Context

// Router is what a view sees of the controller.
type Router interface {
	Route(handle Handle, msg protocol.Message, continuation broker.Continuation) (protocol.Ticket, error)
	RouteFuture(handle Handle, msg protocol.Message) (*broker.Future, error)
	Post(task func()) bool
}

// View is the per-view state registered in the controller.
type View interface {
	Bind(handle Handle, router Router)
	Load(document string) error
	Close()
}

type Config struct {
	EngineLocation string
	Spawn          Spawner
	Logger         *slog.Logger
}

type binding struct {
	view    View
	context Context
}

type Controller struct {
	config *Config
	logger *slog.Logger
	broker *broker.Broker

	statusMutex sync.RWMutex
	status      string

	// only touched from the loop
	views map[Handle]*binding
	last  Handle

	mailbox *mailbox
	exit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func New(config *Config) *Controller {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Spawn == nil {
		config.Spawn = WorkerSpawner(toolkit.Load, config.Logger)
	}

	return &Controller{
		config:  config,
		logger:  config.Logger,
		broker:  broker.New(config.Logger.With("component", "broker")),
		status:  StatusOpening,
		views:   map[Handle]*binding{},
		mailbox: newMailbox(),
		exit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// WorkerSpawner runs every view context as an in-process worker.
func WorkerSpawner(loader toolkit.Loader, logger *slog.Logger) Spawner {
	return func(handle Handle, reply func(data []byte)) Context {
		return worker.New(loader, reply, logger.With("view", int(handle)))
	}
}

func (c *Controller) GetStatus() string {
	c.statusMutex.RLock()
	defer c.statusMutex.RUnlock()
	return c.status
}

func (c *Controller) setStatus(status string) {
	c.statusMutex.Lock()
	c.status = status
	c.statusMutex.Unlock()
}

// Start runs the loop until Stop is called.
func (c *Controller) Start() error {
	defer close(c.stopped)

	c.setStatus(StatusOperating)
	c.logger.Info("controller operating", "engine", c.config.EngineLocation)

	for {
		select {
		case <-c.exit:
			c.shutdown()
			return nil
		case <-c.mailbox.wake:
			for _, task := range c.mailbox.drain() {
				c.run(task)
			}
		}
	}
}

// Stop ends the loop, terminating every execution context.
func (c *Controller) Stop() error {
	c.once.Do(func() {
		c.setStatus(StatusClosing)
		close(c.exit)
	})
	<-c.stopped
	return nil
}

func (c *Controller) shutdown() {
	c.mailbox.close()
	for _, handle := range c.handles() {
		c.destroy(handle)
	}
	c.logger.Info("controller closed")
}

func (c *Controller) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("task panic", "panic", r)
		}
	}()
	task()
}

// Post schedules task on the loop. It returns false once the controller is
// closed.
func (c *Controller) Post(task func()) bool {
	return c.mailbox.put(task)
}

// Do runs f on the loop and waits for it.
func (c *Controller) Do(ctx context.Context, f func() error) error {
	done := make(chan error, 1)
	posted := c.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- f()
	})
	if !posted {
		return ErrClosed
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return ErrClosed
	}
}

// Register binds view to a fresh execution context. The engine location is
// the first message the context gets. Must run on the loop.
func (c *Controller) Register(view View) Handle {
	c.last++
	handle := c.last

	ctx := c.config.Spawn(handle, func(data []byte) {
		c.Post(func() {
			c.broker.Resolve(data)
		})
	})
	c.views[handle] = &binding{view: view, context: ctx}
	metrics.Views.Inc()

	_, err := c.broker.Send(ctx, protocol.SetEngine{Location: c.config.EngineLocation}, nil)
	if err != nil {
		c.logger.Error("set engine", "view", int(handle), "err", err)
	}

	view.Bind(handle, c)
	c.logger.Debug("view registered", "view", int(handle))

	return handle
}

// Route sends msg to the context of the view. The continuation is dropped
// if the view is gone when the response arrives.
func (c *Controller) Route(handle Handle, msg protocol.Message, continuation broker.Continuation) (protocol.Ticket, error) {
	b, exists := c.views[handle]
	if !exists {
		return 0, fmt.Errorf("%w: %d", ErrViewNotFound, handle)
	}

	var guarded broker.Continuation
	if continuation != nil {
		guarded = func(response protocol.Message) {
			if current, alive := c.views[handle]; !alive || current != b {
				c.logger.Debug("response for a destroyed view", "view", int(handle), "kind", response.Kind())
				return
			}
			continuation(response)
		}
	}

	return c.broker.Send(b.context, msg, guarded)
}

func (c *Controller) RouteFuture(handle Handle, msg protocol.Message) (*broker.Future, error) {
	b, exists := c.views[handle]
	if !exists {
		return nil, fmt.Errorf("%w: %d", ErrViewNotFound, handle)
	}
	return c.broker.SendFuture(b.context, msg)
}

func (c *Controller) View(handle Handle) (View, bool) {
	b, exists := c.views[handle]
	if !exists {
		return nil, false
	}
	return b.view, true
}

// Handles returns the live handles in allocation order.
func (c *Controller) Handles() []Handle {
	return c.handles()
}

func (c *Controller) handles() []Handle {
	handles := make([]Handle, 0, len(c.views))
	for h := range c.views {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// Reload hands a new document to a registered view.
func (c *Controller) Reload(handle Handle, document string) error {
	b, exists := c.views[handle]
	if !exists {
		return fmt.Errorf("%w: %d", ErrViewNotFound, handle)
	}
	return b.view.Load(document)
}

// Destroy releases the view and terminates its context.
func (c *Controller) Destroy(handle Handle) error {
	if _, exists := c.views[handle]; !exists {
		return fmt.Errorf("%w: %d", ErrViewNotFound, handle)
	}
	c.destroy(handle)
	return nil
}

func (c *Controller) destroy(handle Handle) {
	b := c.views[handle]
	delete(c.views, handle)
	metrics.Views.Dec()

	b.view.Close()
	b.context.Terminate()
	c.logger.Debug("view destroyed", "view", int(handle))
}

// Pending counts tickets waiting for a response, all views included.
func (c *Controller) Pending() int {
	return c.broker.Pending()
}
