package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/Ridhim15/Danam-Application/internal/models"
)

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := bus.Subscribe(ctx)
	b := bus.Subscribe(ctx)
	ev := DonationEvent(OpInsert, models.DonationRequest{ID: 7, Status: models.DonationStatusPending})
	if err := bus.Publish(ctx, ev); err != nil {
		t.Fatal(err)
	}
	for _, ch := range []<-chan Event{a, b} {
		select {
		case got := <-ch:
			if got.ID != 7 || got.Op != OpInsert || got.Row.Status != models.DonationStatusPending {
				t.Fatalf("got %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestMemoryBusReleasesOnCancel(t *testing.T) {
	bus := NewMemoryBus(1)
	ctx, cancel := context.WithCancel(context.Background())
	ch := bus.Subscribe(ctx)
	if bus.Subscribers() != 1 {
		t.Fatalf("Subscribers = %d", bus.Subscribers())
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	if bus.Subscribers() != 0 {
		t.Fatalf("Subscribers = %d after cancel", bus.Subscribers())
	}
}

func TestMemoryBusAsksFullSubscriberToResync(t *testing.T) {
	bus := NewMemoryBus(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := bus.Subscribe(ctx)

	for id := int64(1); id <= 3; id++ {
		_ = bus.Publish(ctx, Event{Op: OpUpdate, Table: DonationTable, ID: id})
	}

	got := <-ch
	if got.Op != OpResync {
		t.Fatalf("first event = %+v, want resync", got)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %+v", extra)
	default:
	}

	// delivery resumes normally after the resync
	_ = bus.Publish(ctx, Event{Op: OpUpdate, Table: DonationTable, ID: 4})
	if got := <-ch; got.ID != 4 || got.Op != OpUpdate {
		t.Fatalf("next event = %+v", got)
	}
}

func TestDecodeTriggerPayload(t *testing.T) {
	payload := `{"op":"UPDATE","table":"donation","id":12,"row":{"id":12,"meds":0,"books":1,"clothes":0,"food":2,"ngo":"Scope for Change","status":"accepted","uid":"donor-1","created_at":"2026-10-15T09:30:00.123456+00:00","ngo_id":null}}`
	ev, err := Decode([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if ev.Op != OpUpdate || ev.ID != 12 || ev.Row == nil {
		t.Fatalf("ev = %+v", ev)
	}
	if ev.Row.Food != 2 || ev.Row.Books != 1 || ev.Row.Status != models.DonationStatusAccepted || ev.Row.NGOID != "" {
		t.Fatalf("row = %+v", ev.Row)
	}

	if _, err := Decode([]byte(`{"op":"TRUNCATE"}`)); err == nil {
		t.Fatal("unknown op should fail")
	}
	if _, err := Decode([]byte(`{"op":"RESYNC"}`)); err == nil {
		t.Fatal("resync is never read from the wire")
	}
	if _, err := Decode([]byte(`{"op":"UPDATE","table":"donation","id":3,"row":{"id":3,"status":"archived"}}`)); err == nil {
		t.Fatal("unknown status should fail")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("bad json should fail")
	}
}
