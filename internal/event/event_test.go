package event_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvk/fanarena/internal/event"
)

type namedEvent string

func (e namedEvent) Name() string { return string(e) }

func TestBus_PublishSubscribe(t *testing.T) {
	type recorder struct {
		mu       sync.Mutex
		received map[string][]event.Event
	}

	record := func(r *recorder, subscriber string) event.Handler {
		return func(ctx context.Context, e event.Event) error {
			r.mu.Lock()
			r.received[subscriber] = append(r.received[subscriber], e)
			r.mu.Unlock()
			return nil
		}
	}

	tests := map[string]struct {
		subscriptions map[string][]string // subscriber -> event names
		published     []event.Event
		assert        func(t *testing.T, r *recorder)
	}{
		"subscriber only sees its event": {
			subscriptions: map[string][]string{
				"notifier": {"points.awarded"},
			},
			published: []event.Event{
				namedEvent("points.awarded"),
				namedEvent("badge.granted"),
			},
			assert: func(t *testing.T, r *recorder) {
				require.ElementsMatch(t, []event.Event{namedEvent("points.awarded")}, r.received["notifier"])
			},
		},

		"every publish of a subscribed event is delivered": {
			subscriptions: map[string][]string{
				"notifier": {"points.awarded"},
			},
			published: []event.Event{
				namedEvent("points.awarded"),
				namedEvent("points.awarded"),
				namedEvent("points.awarded"),
			},
			assert: func(t *testing.T, r *recorder) {
				require.Len(t, r.received["notifier"], 3)
			},
		},

		"an event fans out to every subscriber": {
			subscriptions: map[string][]string{
				"notifier": {"badge.granted"},
				"auditor":  {"badge.granted"},
			},
			published: []event.Event{
				namedEvent("badge.granted"),
			},
			assert: func(t *testing.T, r *recorder) {
				require.ElementsMatch(t, []event.Event{namedEvent("badge.granted")}, r.received["notifier"])
				require.ElementsMatch(t, []event.Event{namedEvent("badge.granted")}, r.received["auditor"])
			},
		},

		"unsubscribed events are dropped": {
			subscriptions: map[string][]string{
				"notifier": {"points.awarded"},
			},
			published: []event.Event{
				namedEvent("badge.granted"),
			},
			assert: func(t *testing.T, r *recorder) {
				require.Empty(t, r.received["notifier"])
			},
		},

		"overlapping subscriptions deliver independently": {
			subscriptions: map[string][]string{
				"notifier": {"points.awarded", "badge.granted"},
				"auditor":  {"points.awarded"},
			},
			published: []event.Event{
				namedEvent("points.awarded"),
				namedEvent("badge.granted"),
				namedEvent("points.awarded"),
			},
			assert: func(t *testing.T, r *recorder) {
				require.Len(t, r.received["notifier"], 3)
				require.Len(t, r.received["auditor"], 2)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := &recorder{received: make(map[string][]event.Event)}

			b := event.NewBus()
			for subscriber, names := range tt.subscriptions {
				for _, n := range names {
					b.Subscribe(n, record(r, subscriber))
				}
			}

			for _, e := range tt.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			tt.assert(t, r)
		})
	}
}

func TestBus_HandlerPanicDoesNotCrash(t *testing.T) {
	b := event.NewBus()

	b.Subscribe("points.awarded", func(ctx context.Context, e event.Event) error {
		panic("boom")
	})

	var delivered bool
	var mu sync.Mutex
	b.Subscribe("points.awarded", func(ctx context.Context, e event.Event) error {
		mu.Lock()
		delivered = true
		mu.Unlock()
		return nil
	})

	b.Publish(context.Background(), namedEvent("points.awarded"))
	b.Stop()

	mu.Lock()
	defer mu.Unlock()
	require.True(t, delivered)
}
