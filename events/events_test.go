package events

import (
	"testing"

	"github.com/fulldump/biff"
)

func TestBus(t *testing.T) {

	biff.Alternative("Event bus", func(a *biff.A) {

		b := New(nil)
		received := []string{}

		first := b.Subscribe(TopicObjectClicked, func(evt Event) {
			received = append(received, "first:"+evt.(ObjectClicked).Target)
		})
		b.Subscribe(TopicObjectClicked, func(evt Event) {
			received = append(received, "second:"+evt.(ObjectClicked).Target)
		})

		a.Alternative("Latest subscriber first", func(a *biff.A) {
			b.Publish(ObjectClicked{Target: "n1", Measure: "m1"})
			biff.AssertEqual(received, []string{"second:n1", "first:n1"})
		})

		a.Alternative("Other topics are not notified", func(a *biff.A) {
			b.Publish(PageRendered{Document: "<mei/>"})
			biff.AssertEqual(len(received), 0)
		})

		a.Alternative("Unsubscribe one", func(a *biff.A) {
			biff.AssertTrue(b.Unsubscribe(first, false))
			biff.AssertFalse(b.Unsubscribe(first, false))

			b.Publish(ObjectClicked{Target: "n1"})
			biff.AssertEqual(received, []string{"second:n1"})
		})

		a.Alternative("Unsubscribe completely", func(a *biff.A) {
			biff.AssertTrue(b.Unsubscribe(first, true))

			b.Publish(ObjectClicked{Target: "n1"})
			biff.AssertEqual(len(received), 0)
			biff.AssertEqual(b.ActiveTopics(), []Topic{})
		})

		a.Alternative("Purge and unsubscribe all", func(a *biff.A) {
			b.Subscribe(TopicPageRendered, func(evt Event) {})
			biff.AssertEqual(b.ActiveTopics(), []Topic{TopicObjectClicked, TopicPageRendered})

			b.Purge(TopicObjectClicked)
			biff.AssertEqual(b.ActiveTopics(), []Topic{TopicPageRendered})

			b.UnsubscribeAll()
			biff.AssertEqual(b.ActiveTopics(), []Topic{})
		})

		a.Alternative("Filtered subscription", func(a *biff.A) {
			b.UnsubscribeAll()
			b.SubscribeFilter(TopicObjectClicked, map[string]any{"measure": "m2"}, func(evt Event) {
				received = append(received, evt.(ObjectClicked).Target)
			})

			b.Publish(ObjectClicked{Target: "n1", Measure: "m1"})
			b.Publish(ObjectClicked{Target: "n7", Measure: "m2"})
			biff.AssertEqual(received, []string{"n7"})
		})

		a.Alternative("Event without json form", func(a *biff.A) {
			b.UnsubscribeAll()
			b.Subscribe(TopicObjectClicked, func(evt Event) {
				received = append(received, "plain")
			})
			b.SubscribeFilter(TopicObjectClicked, map[string]any{"measure": "m2"}, func(evt Event) {
				received = append(received, "filtered")
			})
			b.Subscribe(TopicObjectClicked, func(evt Event) {
				received = append(received, "latest")
			})

			b.Publish(opaqueClick{})
			biff.AssertEqual(received, []string{"latest", "plain"})
		})
	})
}

// opaqueClick carries a field json cannot represent.
type opaqueClick struct {
	ObjectClicked
	Done chan struct{} `json:"done"`
}
