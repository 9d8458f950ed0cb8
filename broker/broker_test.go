package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/scorepane/protocol"
)

type recorder struct {
	sent []protocol.Ticket
	msgs []protocol.Message
}

func (r *recorder) PostMessage(data []byte) {
	ticket, msg, err := protocol.Decode(data)
	if err != nil {
		panic(err)
	}
	r.sent = append(r.sent, ticket)
	r.msgs = append(r.msgs, msg)
}

func respond(ticket protocol.Ticket, msg protocol.Message) []byte {
	data, err := protocol.Encode(ticket, msg)
	if err != nil {
		panic(err)
	}
	return data
}

func TestBroker(t *testing.T) {

	biff.Alternative("Broker", func(a *biff.A) {

		b := New(nil)
		target := &recorder{}

		a.Alternative("Tickets are strictly increasing", func(a *biff.A) {
			for i := 0; i < 20; i++ {
				_, err := b.Send(target, protocol.RenderPage{PageIndex: i % 3}, nil)
				biff.AssertNil(err)
			}
			biff.AssertEqual(len(target.sent), 20)
			for i, ticket := range target.sent {
				biff.AssertEqual(ticket, protocol.Ticket(i+1))
			}
			biff.AssertEqual(b.Last(), protocol.Ticket(20))
		})

		a.Alternative("Fire and forget leaves nothing pending", func(a *biff.A) {
			ticket, err := b.Send(target, protocol.SetEngine{Location: "builtin:draft"}, nil)
			biff.AssertNil(err)
			biff.AssertEqual(ticket, protocol.Ticket(1))
			biff.AssertEqual(b.Pending(), 0)
		})

		a.Alternative("Responses are rejected as requests", func(a *biff.A) {
			_, err := b.Send(target, protocol.DocumentLoaded{}, nil)
			biff.AssertTrue(errors.Is(err, ErrNotRequest))
			biff.AssertEqual(len(target.sent), 0)
			biff.AssertEqual(b.Last(), protocol.Ticket(0))
		})

		a.Alternative("Continuation", func(a *biff.A) {
			calls := 0
			var got protocol.Message
			ticket, err := b.Send(target, protocol.LoadDocument{Content: "x"}, func(msg protocol.Message) {
				calls++
				got = msg
			})
			biff.AssertNil(err)
			biff.AssertEqual(b.Pending(), 1)

			a.Alternative("Fires exactly once", func(a *biff.A) {
				b.Resolve(respond(ticket, protocol.DocumentLoaded{PageCount: 3}))
				b.Resolve(respond(ticket, protocol.DocumentLoaded{PageCount: 4}))

				biff.AssertEqual(calls, 1)
				biff.AssertEqual(got, protocol.DocumentLoaded{PageCount: 3})
				biff.AssertEqual(b.Pending(), 0)
			})

			a.Alternative("Never fires after an error", func(a *biff.A) {
				b.Resolve(respond(ticket, protocol.Error{Error: "boom"}))
				b.Resolve(respond(ticket, protocol.DocumentLoaded{PageCount: 3}))

				biff.AssertEqual(calls, 0)
				biff.AssertEqual(b.Pending(), 0)
			})

			a.Alternative("Unknown ticket is dropped", func(a *biff.A) {
				b.Resolve(respond(ticket+100, protocol.DocumentLoaded{PageCount: 3}))

				biff.AssertEqual(calls, 0)
				biff.AssertEqual(b.Pending(), 1)
			})

			a.Alternative("Garbage is dropped", func(a *biff.A) {
				b.Resolve([]byte("not cbor at all"))

				biff.AssertEqual(calls, 0)
				biff.AssertEqual(b.Pending(), 1)
			})
		})

		a.Alternative("Out of order responses", func(a *biff.A) {
			order := []int{}
			tickets := map[int]protocol.Ticket{}
			for page := 0; page < 3; page++ {
				page := page
				ticket, err := b.Send(target, protocol.RenderPage{PageIndex: page}, func(msg protocol.Message) {
					order = append(order, msg.(protocol.PageRendered).PageIndex)
				})
				biff.AssertNil(err)
				tickets[page] = ticket
			}

			for _, page := range []int{2, 0, 1} {
				b.Resolve(respond(tickets[page], protocol.PageRendered{PageIndex: page}))
			}

			biff.AssertEqual(order, []int{2, 0, 1})
			biff.AssertEqual(b.Pending(), 0)
		})

		a.Alternative("Future", func(a *biff.A) {
			f, err := b.SendFuture(target, protocol.GetDocument{})
			biff.AssertNil(err)
			biff.AssertEqual(f.Ticket(), protocol.Ticket(1))

			a.Alternative("Resolved", func(a *biff.A) {
				b.Resolve(respond(f.Ticket(), protocol.Document{Document: "<mei/>"}))

				msg, err := f.Wait(context.Background())
				biff.AssertNil(err)
				biff.AssertEqual(msg, protocol.Document{Document: "<mei/>"})
			})

			a.Alternative("Remote error", func(a *biff.A) {
				b.Resolve(respond(f.Ticket(), protocol.Error{Error: "nope"}))

				<-f.Done()
				_, err := f.Result()
				remote := &RemoteError{}
				biff.AssertTrue(errors.As(err, &remote))
				biff.AssertEqual(remote.Message, "nope")
			})

			a.Alternative("Cancelled wait", func(a *biff.A) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				_, err := f.Wait(ctx)
				biff.AssertTrue(errors.Is(err, context.Canceled))
				biff.AssertEqual(b.Pending(), 1)
			})
		})
	})
}
