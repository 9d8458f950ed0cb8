// Package events is the topic based publish/subscribe bus a view uses to
// notify presentation code.
package events

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/SierraSoftworks/connor"

	"github.com/fulldump/scorepane/utils"
)

type Topic string

const (
	TopicPageRendered   Topic = "PageRendered"
	TopicObjectClicked  Topic = "ObjectClicked"
	TopicDocumentLoaded Topic = "DocumentLoaded"
	TopicEditCommitted  Topic = "EditCommitted"
)

var Topics = []Topic{TopicPageRendered, TopicObjectClicked, TopicDocumentLoaded, TopicEditCommitted}

type Event interface {
	Topic() Topic
}

type PageRendered struct {
	Document  string `json:"document"`
	PageIndex int    `json:"pageIndex"`
}

type ObjectClicked struct {
	Target  string `json:"target"`
	Measure string `json:"measure"`
}

type DocumentLoaded struct {
	PageCount int `json:"pageCount"`
}

type EditCommitted struct {
	Target    string `json:"target"`
	PageIndex int    `json:"pageIndex"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

func (PageRendered) Topic() Topic   { return TopicPageRendered }
func (ObjectClicked) Topic() Topic  { return TopicObjectClicked }
func (DocumentLoaded) Topic() Topic { return TopicDocumentLoaded }
func (EditCommitted) Topic() Topic  { return TopicEditCommitted }

type Callback func(evt Event)

// Handle identifies one subscription.
type Handle struct {
	Topic Topic
	id    uint64
}

type subscriber struct {
	id       uint64
	filter   map[string]any
	callback Callback
}

type Bus struct {
	logger *slog.Logger

	mutex       sync.Mutex
	last        uint64
	subscribers map[Topic][]*subscriber
}

func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		logger:      logger,
		subscribers: map[Topic][]*subscriber{},
	}
}

func (b *Bus) Subscribe(topic Topic, callback Callback) Handle {
	return b.SubscribeFilter(topic, nil, callback)
}

// SubscribeFilter subscribes to the events of topic whose json fields match
// filter, a mongo style query.
func (b *Bus) SubscribeFilter(topic Topic, filter map[string]any, callback Callback) Handle {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.last++
	b.subscribers[topic] = append(b.subscribers[topic], &subscriber{
		id:       b.last,
		filter:   filter,
		callback: callback,
	})
	return Handle{Topic: topic, id: b.last}
}

// Unsubscribe removes the subscription. With completely, every other
// subscription to the same topic goes too. It returns false if the handle
// was not subscribed.
func (b *Bus) Unsubscribe(handle Handle, completely bool) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	list := b.subscribers[handle.Topic]
	for i, s := range list {
		if s.id != handle.id {
			continue
		}
		if completely {
			delete(b.subscribers, handle.Topic)
		} else {
			b.subscribers[handle.Topic] = append(list[:i:i], list[i+1:]...)
		}
		return true
	}
	return false
}

// Purge drops every subscription to topic.
func (b *Bus) Purge(topic Topic) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	delete(b.subscribers, topic)
}

func (b *Bus) UnsubscribeAll() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.subscribers = map[Topic][]*subscriber{}
}

// ActiveTopics returns, sorted, the topics with at least one subscriber.
func (b *Bus) ActiveTopics() []Topic {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	result := []Topic{}
	for _, topic := range utils.GetKeys(b.subscribers) {
		if len(b.subscribers[topic]) > 0 {
			result = append(result, topic)
		}
	}
	return result
}

// Publish calls the subscribers of the event topic, latest first.
// Callbacks run on the caller's goroutine.
func (b *Bus) Publish(evt Event) {
	b.mutex.Lock()
	list := append([]*subscriber(nil), b.subscribers[evt.Topic()]...)
	b.mutex.Unlock()

	var fields map[string]any
	var fieldsErr error
	for i := len(list) - 1; i >= 0; i-- {
		s := list[i]
		if s.filter != nil {
			if fields == nil && fieldsErr == nil {
				fields, fieldsErr = utils.RemarshalMap(evt)
				if fieldsErr != nil {
					b.logger.Error("event fields", "topic", evt.Topic(), "err", fieldsErr)
				}
			}
			if fieldsErr != nil {
				// filtered subscribers cannot be matched, the rest still are
				continue
			}
			match, err := connor.Match(s.filter, fields)
			if err != nil {
				b.logger.Warn("event filter", "topic", evt.Topic(), "err", fmt.Errorf("match: %w", err))
				continue
			}
			if !match {
				continue
			}
		}
		s.callback(evt)
	}
}
