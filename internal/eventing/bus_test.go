package eventing

import (
	"context"
	"errors"
	"testing"
)

type sampleEvent struct {
	Value int
}

func TestInMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewInMemoryBus()

	var got []sampleEvent
	bus.Subscribe(TypeFor[sampleEvent](), func(ctx context.Context, event any) error {
		evt, ok := event.(sampleEvent)
		if !ok {
			return ErrInvalidEventType
		}
		got = append(got, evt)
		return nil
	})

	if err := bus.Publish(context.Background(), sampleEvent{Value: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0].Value != 7 {
		t.Fatalf("unexpected delivery: %v", got)
	}
}

func TestInMemoryBus_NilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestInMemoryBus_ReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus()
	wantErr := errors.New("handler failed")
	calls := 0

	bus.Subscribe(TypeFor[sampleEvent](), func(ctx context.Context, event any) error {
		calls++
		return wantErr
	})
	bus.Subscribe(TypeFor[sampleEvent](), func(ctx context.Context, event any) error {
		calls++
		return nil
	})

	err := bus.Publish(context.Background(), sampleEvent{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected first handler error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("all handlers must run, got %d calls", calls)
	}
}

func TestTypeOf_DereferencesPointers(t *testing.T) {
	if TypeOf(&sampleEvent{}) != TypeOf(sampleEvent{}) {
		t.Fatal("pointer and value events must share a type name")
	}
}
