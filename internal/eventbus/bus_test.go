package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string]()
	ch := bus.Subscribe()
	bus.Publish("result")
	if v := <-ch; v != "result" {
		t.Fatalf("expected result got %v", v)
	}
	bus.Unsubscribe(ch)
	if bus.Subscribers() != 0 {
		t.Fatalf("subscriber not removed")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewWithBuffer[int](1)
	ch := bus.Subscribe()
	bus.Publish(1)
	bus.Publish(2)
	if bus.Dropped() != 1 {
		t.Fatalf("expected 1 drop got %d", bus.Dropped())
	}
	if v := <-ch; v != 1 {
		t.Fatalf("expected first event kept, got %d", v)
	}
}

func TestBusClose(t *testing.T) {
	bus := New[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	bus.Publish(3)
	late := bus.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("expected subscription on closed bus to be closed")
	}
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch1)
}
