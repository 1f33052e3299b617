package channel

import (
	"strconv"
	"testing"
	"time"

	"github.com/mcoot/cloudserver/internal/testutil"
)

func receive(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-events:
		if !ok {
			t.Fatal("subscription closed")
		}
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestHub_SubscribeAndPublish(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	events, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(Event{Name: "☁ Main", Value: "1"})
	hub.Publish(Event{Name: "☁ Main", Value: "2"})

	if got := receive(t, events); got.Value != "1" {
		t.Errorf("first event value = %q, want %q", got.Value, "1")
	}
	if got := receive(t, events); got.Value != "2" {
		t.Errorf("second event value = %q, want %q", got.Value, "2")
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	if hub.SubscriberCount() != 2 {
		t.Errorf("SubscriberCount() = %d, want 2", hub.SubscriberCount())
	}

	hub.Publish(Event{Name: "☁ Queue", Value: "0102"})

	for i, events := range []<-chan Event{a, b} {
		if got := receive(t, events); got.Value != "0102" {
			t.Errorf("subscriber %d received %q, want %q", i+1, got.Value, "0102")
		}
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	events, cancel := hub.Subscribe()
	cancel()
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed subscription")
		}
	case <-time.After(time.Second):
		t.Error("subscription was not closed")
	}

	if hub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d after unsubscribe, want 0", hub.SubscriberCount())
	}
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()

	events, cancel := hub.Subscribe()
	hub.Close()
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed subscription")
		}
	case <-time.After(time.Second):
		t.Error("subscription was not closed")
	}

	late, cancelLate := hub.Subscribe()
	defer cancelLate()
	if _, ok := <-late; ok {
		t.Error("subscribing to a closed hub should yield a closed stream")
	}

	// Publishing after close must not block or panic
	hub.Publish(Event{Name: "x", Value: "y"})
}

func TestHub_SlowSubscriberLosesNothing(t *testing.T) {
	hub := NewHub(testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	events, cancel := hub.Subscribe()
	defer cancel()

	const total = 1500
	for i := range total {
		hub.Publish(Event{Name: "☁ Queue", Value: strconv.Itoa(i)})
	}

	for i := range total {
		if got := receive(t, events); got.Value != strconv.Itoa(i) {
			t.Fatalf("event %d value = %q, want %q", i, got.Value, strconv.Itoa(i))
		}
	}
}
