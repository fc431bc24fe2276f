package event

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBusSubscribePublish(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{})
	t.Cleanup(bus.Close)

	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(42)

	select {
	case got := <-ch:
		if got != 42 {
			t.Fatalf("expected 42, got %d", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close after cancel")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusCloseClosesSubscribers(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{})
	ch, _ := bus.Subscribe()

	bus.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close after bus close")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusDropOnFull(t *testing.T) {
	bus := NewBus[string](context.Background(), BusOptions{
		Name:                 "drop",
		SubscriberBufferSize: 1,
	})
	t.Cleanup(bus.Close)

	ch, _ := bus.Subscribe()

	bus.Publish("first")

	done := make(chan struct{})
	go func() {
		bus.Publish("second")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("publish blocked with a full subscriber")
	}

	select {
	case got := <-ch:
		if got != "first" {
			t.Fatalf("expected first event, got %q", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for first event")
	}

	published, dropped := bus.Stats()
	if published != 2 {
		t.Fatalf("expected 2 published, got %d", published)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped, got %d", dropped)
	}
}

func TestBusHistoryStoresRecentEvents(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{
		HistorySize: 2,
	})
	t.Cleanup(bus.Close)

	bus.Publish(1)
	bus.Publish(2)
	bus.Publish(3)

	history := bus.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 retained events, got %d", len(history))
	}
	if history[0] != 2 || history[1] != 3 {
		t.Fatalf("expected [2 3], got %v", history)
	}
}

func TestBusSubscribeFiltered(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{})
	t.Cleanup(bus.Close)

	ch, cancel := bus.SubscribeFiltered(func(value int) bool {
		return value%2 == 0
	})
	defer cancel()

	bus.Publish(1)
	bus.Publish(2)

	select {
	case got := <-ch:
		if got != 2 {
			t.Fatalf("expected filtered event 2, got %d", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timed out waiting for filtered event")
	}

	select {
	case got := <-ch:
		t.Fatalf("unexpected event %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusMaxSubscribersReturnsClosedChannel(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{
		MaxSubscribers: 1,
	})
	t.Cleanup(bus.Close)

	_, cancel := bus.Subscribe()
	defer cancel()

	ch, extraCancel := bus.Subscribe()
	defer extraCancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel beyond subscriber cap")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected closed channel, channel blocked instead")
	}
	if count := bus.SubscriberCount(); count != 1 {
		t.Fatalf("expected 1 subscriber, got %d", count)
	}
}

func TestBusContextCancelCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewBus[int](ctx, BusOptions{})
	ch, _ := bus.Subscribe()

	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected channel to close after context cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestBusPublishSurvivesConcurrentCancel(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{
		SubscriberBufferSize: 1,
	})
	t.Cleanup(bus.Close)

	for round := 0; round < 2000; round++ {
		_, cancel := bus.Subscribe()

		done := make(chan struct{})
		go func() {
			defer close(done)
			cancel()
		}()
		bus.Publish(round)
		<-done
	}

	if count := bus.SubscriberCount(); count != 0 {
		t.Fatalf("expected no subscribers left, got %d", count)
	}
}

func TestBusConcurrentSubscribePublish(t *testing.T) {
	bus := NewBus[int](context.Background(), BusOptions{})
	t.Cleanup(bus.Close)

	var group sync.WaitGroup
	for worker := 0; worker < 4; worker++ {
		group.Add(1)
		go func() {
			defer group.Done()
			for index := 0; index < 50; index++ {
				ch, cancel := bus.Subscribe()
				bus.Publish(index)
				cancel()
				for range ch {
				}
			}
		}()
	}
	group.Wait()

	if count := bus.SubscriberCount(); count != 0 {
		t.Fatalf("expected no subscribers left, got %d", count)
	}
}

func TestRecordingEventHelpers(t *testing.T) {
	event := NewRecordingEvent(TypeRecordingFinished, "/videos/a.mkv", map[string]string{
		"elapsed": "300.0s",
	})
	if event.Type() != TypeRecordingFinished {
		t.Fatalf("expected type %q, got %q", TypeRecordingFinished, event.Type())
	}
	if event.Timestamp().IsZero() {
		t.Fatal("expected timestamp to be set")
	}
	if event.Path != "/videos/a.mkv" {
		t.Fatalf("unexpected path %q", event.Path)
	}
}
