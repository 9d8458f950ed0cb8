// Package broker correlates requests sent to execution contexts with the
// responses they eventually produce.
//
// Every request gets a fresh ticket. Responses may come back in any order;
// each one resolves the continuation registered for its ticket at most once.
// Error responses drop the continuation without calling it.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fulldump/scorepane/metrics"
	"github.com/fulldump/scorepane/protocol"
)

// Context is the sending half of an execution context.
type Context interface {
	PostMessage(data []byte)
}

// Continuation receives the response to a request.
type Continuation func(msg protocol.Message)

var ErrNotRequest = errors.New("message is not a request")

// RemoteError is the result of a Future whose request was answered with an
// error message.
type RemoteError struct {
	Ticket  protocol.Ticket
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("ticket %d: %s", e.Ticket, e.Message)
}

type Broker struct {
	logger *slog.Logger

	mutex   sync.Mutex
	last    protocol.Ticket
	pending map[protocol.Ticket]Continuation
	futures map[protocol.Ticket]*Future
}

func New(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		logger:  logger,
		pending: map[protocol.Ticket]Continuation{},
		futures: map[protocol.Ticket]*Future{},
	}
}

// Send issues msg to target under a new ticket. A nil continuation makes it
// fire-and-forget: the ticket is still allocated but nothing waits for it.
func (b *Broker) Send(target Context, msg protocol.Message, continuation Continuation) (protocol.Ticket, error) {
	return b.send(target, msg, func(ticket protocol.Ticket) {
		if continuation != nil {
			b.pending[ticket] = continuation
			metrics.TicketsPending.Inc()
		}
	})
}

// SendFuture is Send with the continuation replaced by a Future.
func (b *Broker) SendFuture(target Context, msg protocol.Message) (*Future, error) {
	f := &Future{done: make(chan struct{})}
	_, err := b.send(target, msg, func(ticket protocol.Ticket) {
		f.ticket = ticket
		b.futures[ticket] = f
		metrics.TicketsPending.Inc()
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (b *Broker) send(target Context, msg protocol.Message, record func(ticket protocol.Ticket)) (protocol.Ticket, error) {
	if !protocol.IsRequest(msg.Kind()) {
		return 0, fmt.Errorf("%w: %s", ErrNotRequest, msg.Kind())
	}

	b.mutex.Lock()
	b.last++
	ticket := b.last

	data, err := protocol.Encode(ticket, msg)
	if err != nil {
		b.mutex.Unlock()
		return 0, err
	}
	record(ticket)
	b.mutex.Unlock()

	metrics.TicketsIssued.WithLabelValues(string(msg.Kind())).Inc()

	// Outside the lock: an in-process context may answer synchronously.
	target.PostMessage(data)

	return ticket, nil
}

// Resolve handles one raw response coming back from a context.
func (b *Broker) Resolve(data []byte) {
	ticket, msg, err := protocol.Decode(data)
	if err != nil {
		metrics.Responses.WithLabelValues("malformed").Inc()
		b.logger.Error("malformed response", "ticket", ticket, "err", err)
		b.fail(ticket, err.Error())
		return
	}

	if e, isError := msg.(protocol.Error); isError {
		metrics.Responses.WithLabelValues("error").Inc()
		b.logger.Warn("worker error", "ticket", ticket, "error", e.Error)
		b.fail(ticket, e.Error)
		return
	}

	b.mutex.Lock()
	continuation, exists := b.pending[ticket]
	delete(b.pending, ticket)
	future := b.futures[ticket]
	delete(b.futures, ticket)
	b.mutex.Unlock()

	switch {
	case exists:
		metrics.TicketsPending.Dec()
		metrics.Responses.WithLabelValues("resolved").Inc()
		continuation(msg)
	case future != nil:
		metrics.TicketsPending.Dec()
		metrics.Responses.WithLabelValues("resolved").Inc()
		future.resolve(msg, nil)
	default:
		metrics.Responses.WithLabelValues("unexpected").Inc()
		b.logger.Warn("unexpected response", "ticket", ticket, "kind", msg.Kind())
	}
}

func (b *Broker) fail(ticket protocol.Ticket, reason string) {
	if ticket == 0 {
		return
	}

	b.mutex.Lock()
	_, exists := b.pending[ticket]
	delete(b.pending, ticket)
	future := b.futures[ticket]
	delete(b.futures, ticket)
	b.mutex.Unlock()

	if exists || future != nil {
		metrics.TicketsPending.Dec()
	}
	if future != nil {
		future.resolve(nil, &RemoteError{Ticket: ticket, Message: reason})
	}
}

// Pending returns how many tickets are still waiting for a response.
func (b *Broker) Pending() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.pending) + len(b.futures)
}

// Last returns the most recently issued ticket, zero if none.
func (b *Broker) Last() protocol.Ticket {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.last
}

// Future is the result of a request sent with SendFuture.
type Future struct {
	ticket protocol.Ticket
	done   chan struct{}
	once   sync.Once
	msg    protocol.Message
	err    error
}

func (f *Future) Ticket() protocol.Ticket {
	return f.ticket
}

// Done is closed once the response arrived.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result must only be called after Done is closed.
func (f *Future) Result() (protocol.Message, error) {
	return f.msg, f.err
}

// Wait blocks until the response arrives or ctx is done.
func (f *Future) Wait(ctx context.Context) (protocol.Message, error) {
	select {
	case <-f.done:
		return f.msg, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *Future) resolve(msg protocol.Message, err error) {
	f.once.Do(func() {
		f.msg = msg
		f.err = err
		close(f.done)
	})
}
