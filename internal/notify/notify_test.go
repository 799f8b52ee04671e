package notify_test

import (
	"testing"
	"time"

	"github.com/dyntab/dyntab/internal/notify"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := notify.NewBus()
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.PublishTableDataChanged(42)

	select {
	case ev := <-ch:
		if ev.Kind != notify.TableDataChanged || ev.TableID != 42 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	bus := notify.NewBus()
	done := make(chan struct{})
	go func() {
		bus.PublishTableListChanged()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := notify.NewBus()
	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, open := <-ch
	if open {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestFullSubscriberDropsRatherThanBlocks(t *testing.T) {
	bus := notify.NewBus()
	_, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			bus.PublishTableRowChanged(1, int64(i))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber channel")
	}
}
