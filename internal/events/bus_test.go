package events_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"animehub/internal/events"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := events.NewBus()
	calls := 0
	events.Subscribe(bus, func(events.AnimeCreated) error {
		calls++
		return nil
	})

	result := bus.Publish(events.AnimeCreated{
		Meta:    events.NewMeta(),
		AnimeID: uuid.New(),
		Title:   "Steins;Gate",
		Kind:    "tv",
	})

	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if !result.Ok() {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Handlers != 1 {
		t.Fatalf("handlers = %d, want 1", result.Handlers)
	}
}

func TestHandlersRunInSubscriptionOrder(t *testing.T) {
	bus := events.NewBus()
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		events.Subscribe(bus, func(events.EpisodeCreated) error {
			order = append(order, i)
			return nil
		})
	}

	bus.Publish(events.EpisodeCreated{Meta: events.NewMeta(), EpisodeID: uuid.New(), AnimeID: uuid.New(), EpisodeNumber: "1"})

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := events.NewBus()
	sentinel := errors.New("boom")
	secondRan := false

	events.Subscribe(bus, func(events.AnimeCreated) error {
		return sentinel
	})
	events.Subscribe(bus, func(events.AnimeCreated) error {
		secondRan = true
		return nil
	})

	result := bus.Publish(events.AnimeCreated{Meta: events.NewMeta(), AnimeID: uuid.New(), Title: "Test", Kind: "tv"})

	if !secondRan {
		t.Fatal("second handler did not run after first failed")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}
	if result.Errors[0].Index != 0 {
		t.Fatalf("error index = %d, want 0", result.Errors[0].Index)
	}
	if !errors.Is(result.Errors[0], sentinel) {
		t.Fatalf("error %v does not wrap sentinel", result.Errors[0])
	}
}

func TestHandlerPanicIsCaptured(t *testing.T) {
	bus := events.NewBus()
	secondRan := false

	events.Subscribe(bus, func(events.AnimeCreated) error {
		panic("intentional")
	})
	events.Subscribe(bus, func(events.AnimeCreated) error {
		secondRan = true
		return nil
	})

	result := bus.Publish(events.AnimeCreated{Meta: events.NewMeta(), AnimeID: uuid.New(), Title: "Test", Kind: "tv"})

	if !secondRan {
		t.Fatal("second handler did not run after first panicked")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want exactly one", result.Errors)
	}
}

func TestNestedPublishDrainsDepthFirst(t *testing.T) {
	bus := events.NewBus()
	var order []string

	events.Subscribe(bus, func(events.AnimeCreated) error {
		order = append(order, "anime-created")
		bus.Publish(events.EpisodeCreated{Meta: events.NewMeta(), EpisodeID: uuid.New(), AnimeID: uuid.New(), EpisodeNumber: "1"})
		order = append(order, "anime-created-after-nested")
		return nil
	})
	events.Subscribe(bus, func(events.EpisodeCreated) error {
		order = append(order, "episode-created")
		return nil
	})

	bus.Publish(events.AnimeCreated{Meta: events.NewMeta(), AnimeID: uuid.New(), Title: "Test", Kind: "tv"})

	want := []string{"anime-created", "episode-created", "anime-created-after-nested"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEventLogRecordsEveryPublish(t *testing.T) {
	bus := events.NewBus()
	events.Subscribe(bus, func(events.AnimeCreated) error { return nil })

	first := events.AnimeCreated{Meta: events.NewMeta(), AnimeID: uuid.New(), Title: "Cowboy Bebop", Kind: "tv"}
	bus.Publish(first)
	bus.Publish(events.EpisodeCreated{Meta: events.NewMeta(), EpisodeID: uuid.New(), AnimeID: uuid.New(), EpisodeNumber: "1"})

	log := bus.Log()
	if len(log) != 2 {
		t.Fatalf("log length = %d, want 2", len(log))
	}
	if log[0].EventType != "AnimeCreated" || log[1].EventType != "EpisodeCreated" {
		t.Fatalf("log types = %s, %s", log[0].EventType, log[1].EventType)
	}
	if log[0].EventID != first.EventID() {
		t.Fatal("log entry does not carry the event id")
	}
	if log[0].HandlerCount != 1 {
		t.Fatalf("handler count = %d, want 1", log[0].HandlerCount)
	}
	if log[1].HandlerCount != 0 {
		t.Fatalf("handler count = %d, want 0 for unsubscribed type", log[1].HandlerCount)
	}

	bus.ResetLog()
	if len(bus.Log()) != 0 {
		t.Fatal("log survived reset")
	}
}

func TestEventLogIsBounded(t *testing.T) {
	bus := events.NewBusWithLogCapacity(3)
	var last events.AnimeCreated
	for i := 0; i < 5; i++ {
		last = events.AnimeCreated{Meta: events.NewMeta(), AnimeID: uuid.New(), Title: "Test", Kind: "tv"}
		bus.Publish(last)
	}

	log := bus.Log()
	if len(log) != 3 {
		t.Fatalf("log length = %d, want 3", len(log))
	}
	if log[2].EventID != last.EventID() {
		t.Fatal("newest entry missing after rotation")
	}
}

func TestSubscriberCount(t *testing.T) {
	bus := events.NewBus()
	probe := events.AnimeCreated{Meta: events.NewMeta()}

	if got := bus.SubscriberCount(probe); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
	events.Subscribe(bus, func(events.AnimeCreated) error { return nil })
	events.Subscribe(bus, func(events.AnimeCreated) error { return nil })
	if got := bus.SubscriberCount(probe); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
	if got := bus.SubscriberCount(events.EpisodeCreated{Meta: events.NewMeta()}); got != 0 {
		t.Fatalf("count for other type = %d, want 0", got)
	}
}
