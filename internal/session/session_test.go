package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrackAndCurrent(t *testing.T) {
	s := NewStore()
	sess := Session{ID: "s1", Identity: "u1", ExpiresAt: time.Now().Add(time.Hour)}

	var events []EventKind
	unsubscribe := s.Subscribe(func(ev Event) { events = append(events, ev.Kind) })
	defer unsubscribe()

	if _, err := s.Track(sess); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Track(sess); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Current("s1")
	if !ok || got.Identity != "u1" {
		t.Fatalf("Current = %+v,%v", got, ok)
	}
	if len(events) != 1 || events[0] != SignedIn {
		t.Fatalf("events = %v, want one signed_in", events)
	}
}

func TestSignOutClosesDoneAndRefusesSession(t *testing.T) {
	s := NewStore()
	sess := Session{ID: "s1", Identity: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	if _, err := s.Track(sess); err != nil {
		t.Fatal(err)
	}
	done := s.Done("s1")

	if err := s.SignOut("s1"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-done:
	default:
		t.Fatal("done channel should be closed after sign-out")
	}
	if _, ok := s.Current("s1"); ok {
		t.Fatal("signed-out session should not be current")
	}
	if _, err := s.Track(sess); !errors.Is(err, ErrSignedOut) {
		t.Fatalf("Track after sign-out err = %v", err)
	}
	if err := s.SignOut("s1"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("second SignOut err = %v", err)
	}
}

func TestSweepDropsExpired(t *testing.T) {
	s := NewStore()
	now := time.Now()
	_, _ = s.Track(Session{ID: "old", ExpiresAt: now.Add(-time.Minute)})
	_, _ = s.Track(Session{ID: "new", ExpiresAt: now.Add(time.Hour)})
	done := s.Done("old")

	if n := s.Sweep(now); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	select {
	case <-done:
	default:
		t.Fatal("expired session's done channel should be closed")
	}
	if _, ok := s.Current("new"); !ok {
		t.Fatal("live session was swept")
	}
}

func TestSweeperWithoutIntervalUsesDefault(t *testing.T) {
	s := NewStore()
	_, _ = s.Track(Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)})

	w := NewSweeper(s, 0)
	if w.interval != DefaultSweepInterval {
		t.Fatalf("interval = %v, want %v", w.interval, DefaultSweepInterval)
	}
	w.Start()
	defer w.Stop()
	if _, ok := s.Current("old"); ok {
		t.Fatal("Start should sweep once immediately")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s := NewStore()
	calls := 0
	unsubscribe := s.Subscribe(func(Event) { calls++ })
	unsubscribe()
	unsubscribe()
	_, _ = s.Track(Session{ID: "s1"})
	if calls != 0 {
		t.Fatalf("calls = %d after unsubscribe", calls)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := NewContext(context.Background(), Session{ID: "s1", Identity: "u1"})
	got, ok := FromContext(ctx)
	if !ok || got.Identity != "u1" {
		t.Fatalf("FromContext = %+v,%v", got, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context should carry no session")
	}
}
