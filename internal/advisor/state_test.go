package advisor

import (
	"testing"
	"time"
)

func baseState() State {
	return State{
		AdvisorID:           "a1",
		Status:              StatusOffline,
		MaxParallelSessions: 3,
	}
}

func checkInvariants(t *testing.T, s State) {
	t.Helper()
	if s.CurrentActiveSessions < 0 || s.CurrentActiveSessions > s.MaxParallelSessions {
		t.Fatalf("session count %d out of [0,%d]", s.CurrentActiveSessions, s.MaxParallelSessions)
	}
	if s.Status == StatusOffline {
		if s.AcceptNewBookings {
			t.Fatalf("offline advisor must not accept bookings: %+v", s)
		}
		return
	}
	wantAccept := s.CurrentActiveSessions < s.MaxParallelSessions &&
		s.Status != StatusBusy && s.Status != StatusAway
	if s.AcceptNewBookings != wantAccept {
		t.Fatalf("accept_new_bookings=%v, want %v (state %+v)", s.AcceptNewBookings, wantAccept, s)
	}
}

func TestStartSession_BringsOnline(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "here to help", "p1", now)

	if !s.IsActive || s.Status != StatusOnline {
		t.Fatalf("expected active online, got %+v", s)
	}
	if s.SessionCount != 1 {
		t.Fatalf("expected session count 1, got %d", s.SessionCount)
	}
	if !s.AcceptNewBookings {
		t.Fatalf("expected accepting bookings")
	}
	checkInvariants(t, s)
}

func TestStartSession_BusyPresenceBlocksBookings(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusBusy, "", "p1", now)
	if s.AcceptNewBookings {
		t.Fatalf("busy presence must not accept bookings")
	}
	if CanAcceptNewCalls(s) {
		t.Fatalf("busy presence must not accept calls")
	}
	checkInvariants(t, s)
}

func TestEndSession_AccumulatesActiveTime(t *testing.T) {
	start := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "", "p1", start)
	s = StartCallSession(s, "b1", start)

	end := start.Add(90 * time.Second)
	s = EndSession(s, end)

	if s.Status != StatusOffline || s.IsActive {
		t.Fatalf("expected offline inactive, got %+v", s)
	}
	if s.TotalActiveSeconds != 90 {
		t.Fatalf("expected 90s active time, got %d", s.TotalActiveSeconds)
	}
	if s.CurrentActiveSessions != 0 || s.CurrentSessionID != "" {
		t.Fatalf("expected counters reset, got %+v", s)
	}
	if s.AcceptNewBookings || CanAcceptNewCalls(s) {
		t.Fatalf("offline advisor must not accept")
	}
	checkInvariants(t, s)
}

func TestStartCallSession_CapacityFlipsBusy(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "", "p1", now)

	s = StartCallSession(s, "b1", now)
	if s.Status != StatusOnline || !s.AcceptNewBookings {
		t.Fatalf("one of three slots used, expected online+accepting, got %+v", s)
	}
	checkInvariants(t, s)

	s = StartCallSession(s, "b2", now)
	if s.Status != StatusOnline || !s.AcceptNewBookings {
		t.Fatalf("two of three slots used, expected online+accepting, got %+v", s)
	}
	checkInvariants(t, s)

	// Third call reaches capacity: busy, not accepting.
	s = StartCallSession(s, "b3", now)
	if s.Status != StatusBusy {
		t.Fatalf("expected busy at capacity, got %q", s.Status)
	}
	if s.AcceptNewBookings || CanAcceptNewCalls(s) {
		t.Fatalf("expected not accepting at capacity")
	}
	if s.CurrentActiveSessions != 3 {
		t.Fatalf("expected 3 active sessions, got %d", s.CurrentActiveSessions)
	}
	checkInvariants(t, s)

	// A subsequent end restores online + accepting.
	s = EndCallSession(s, now)
	if s.Status != StatusOnline {
		t.Fatalf("expected online after freeing a slot, got %q", s.Status)
	}
	if !s.AcceptNewBookings || !CanAcceptNewCalls(s) {
		t.Fatalf("expected accepting after freeing a slot")
	}
	if s.CurrentActiveSessions != 2 {
		t.Fatalf("expected 2 active sessions, got %d", s.CurrentActiveSessions)
	}
	checkInvariants(t, s)
}

func TestStartCallSession_CapsAtMax(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "", "p1", now)
	for i := 0; i < 10; i++ {
		s = StartCallSession(s, "b", now)
		checkInvariants(t, s)
	}
	if s.CurrentActiveSessions != 3 {
		t.Fatalf("expected cap at 3, got %d", s.CurrentActiveSessions)
	}
}

func TestEndCallSession_FloorsAtZero(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "", "p1", now)
	for i := 0; i < 5; i++ {
		s = EndCallSession(s, now)
		checkInvariants(t, s)
	}
	if s.CurrentActiveSessions != 0 {
		t.Fatalf("expected floor at 0, got %d", s.CurrentActiveSessions)
	}
}

func TestEndCallSession_ClearsSessionIDOnlyAtZero(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "", "p1", now)
	s = StartCallSession(s, "b1", now)
	s = StartCallSession(s, "b2", now)

	s = EndCallSession(s, now)
	if s.CurrentSessionID == "" {
		t.Fatalf("session id must persist while sessions remain")
	}
	s = EndCallSession(s, now)
	if s.CurrentSessionID != "" {
		t.Fatalf("session id must clear at zero sessions")
	}
	checkInvariants(t, s)
}

func TestCanAcceptNewCalls_AwayBlocks(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusAway, "bbl", "p1", now)
	if CanAcceptNewCalls(s) {
		t.Fatalf("away advisor must not accept calls")
	}
	checkInvariants(t, s)
}

func TestInvariants_RandomishSequences(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	s := StartSession(baseState(), StatusOnline, "", "p1", now)
	seq := []byte("ssseeseessseeeesssssseee")
	for _, op := range seq {
		switch op {
		case 's':
			s = StartCallSession(s, "b", now)
		case 'e':
			s = EndCallSession(s, now)
		}
		checkInvariants(t, s)
		if s.AcceptNewBookings != (s.CurrentActiveSessions < s.MaxParallelSessions &&
			s.Status != StatusBusy && s.Status != StatusAway) {
			t.Fatalf("accept flag diverged from count predicate: %+v", s)
		}
	}
}
