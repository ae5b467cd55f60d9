package notify

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestRegistry() *Registry[string] {
	return New[string]("test", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublishDeliversInOrder(t *testing.T) {
	r := newTestRegistry()
	var got []string
	r.SubscribeFunc(func(e string) { got = append(got, "a:"+e) })
	r.SubscribeFunc(func(e string) { got = append(got, "b:"+e) })

	if failed := r.Publish("x"); failed != 0 {
		t.Errorf("failed = %d, want 0", failed)
	}
	if diff := cmp.Diff([]string{"a:x", "b:x"}, got); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
}

func TestPublishIsolatesFailures(t *testing.T) {
	r := newTestRegistry()
	delivered := 0
	r.Subscribe(func(string) error { panic("boom") })
	r.Subscribe(func(string) error { return errors.New("nope") })
	r.SubscribeFunc(func(string) { delivered++ })

	if failed := r.Publish("x"); failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if delivered != 1 {
		t.Errorf("healthy listener called %d times, want 1", delivered)
	}
}

func TestUnsubscribe(t *testing.T) {
	r := newTestRegistry()
	calls := 0
	unsubscribe := r.SubscribeFunc(func(string) { calls++ })
	r.SubscribeFunc(func(string) {})

	unsubscribe()
	unsubscribe()
	r.Publish("x")

	if calls != 0 {
		t.Errorf("unsubscribed listener called %d times", calls)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestSubscribeDuringPublish(t *testing.T) {
	r := newTestRegistry()
	late := 0
	r.SubscribeFunc(func(string) {
		r.SubscribeFunc(func(string) { late++ })
	})

	r.Publish("first")
	if late != 0 {
		t.Errorf("listener added during publish received the same event")
	}
	r.Publish("second")
	if late != 1 {
		t.Errorf("late listener calls = %d, want 1", late)
	}
}
