package apiviewv1

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fulldump/box"
	"github.com/go-json-experiment/json"
	"github.com/gorilla/websocket"

	"github.com/fulldump/scorepane/events"
	"github.com/fulldump/scorepane/service"
)

// eventBuffer is how many events may wait for a slow client before new
// ones are dropped.
const eventBuffer = 64

var ErrInvalidFilter = errors.New("invalid filter")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type helloFrame struct {
	Subscriptions []*service.Subscription `json:"subscriptions"`
}

type eventFrame struct {
	Topic events.Topic `json:"topic"`
	Event events.Event `json:"event"`
}

// streamEvents pushes the events of a view through a websocket, one json
// frame each. ?topic= may repeat, every topic by default. ?filter= is a
// json query matched against the event fields.
func streamEvents(ctx context.Context) error {

	s := GetServicer(ctx)
	r := box.GetRequest(ctx)
	w := box.GetResponse(ctx)

	handle, err := getHandle(ctx)
	if err != nil {
		return err
	}

	topics := events.Topics
	if requested := r.URL.Query()["topic"]; len(requested) > 0 {
		topics = make([]events.Topic, 0, len(requested))
		for _, t := range requested {
			topics = append(topics, events.Topic(t))
		}
	}

	var filter map[string]any
	if raw := r.URL.Query().Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidFilter, err)
		}
	}

	// Subscribe before upgrading, so that a bad handle or topic is still
	// answered with a plain http error.
	queue := make(chan events.Event, eventBuffer)
	send := func(evt events.Event) {
		select {
		case queue <- evt:
		default:
			slog.Warn("event dropped", "view", int(handle), "topic", evt.Topic())
		}
	}

	subscriptions := []*service.Subscription{}
	defer func() {
		for _, sub := range subscriptions {
			s.Unsubscribe(context.Background(), sub.ID)
		}
	}()
	for _, topic := range topics {
		sub, err := s.Subscribe(ctx, handle, topic, filter, send)
		if err != nil {
			return err
		}
		subscriptions = append(subscriptions, sub)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered
		slog.Warn("websocket upgrade", "view", int(handle), "err", err)
		return nil
	}
	defer conn.Close()

	if err := writeFrame(conn, helloFrame{Subscriptions: subscriptions}); err != nil {
		return nil
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// every subscription ends together when the view is destroyed
	gone := subscriptions[0].Done()

	for {
		select {
		case evt := <-queue:
			if err := writeFrame(conn, eventFrame{Topic: evt.Topic(), Event: evt}); err != nil {
				return nil
			}
		case <-gone:
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "view destroyed"))
			return nil
		case <-closed:
			return nil
		}
	}
}

func writeFrame(conn *websocket.Conn, frame any) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
