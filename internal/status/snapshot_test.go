// internal/status/snapshot_test.go
package status

import (
	"errors"
	"testing"
)

func TestObserve_ErrorThenRecovery(t *testing.T) {
	var s Snapshot

	if !s.Observe(errors.New("timeout"), 7, 0) {
		t.Fatalf("entering error must report a change")
	}
	if s.Health != HealthError || s.LastErrorCode != 7 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}

	s.Tick()
	s.Tick()
	if s.SecondsInError != 2 {
		t.Fatalf("seconds_in_error: got=%d want=2", s.SecondsInError)
	}

	// same error again: seconds keep counting, nothing else changes
	if s.Observe(errors.New("timeout"), 7, 0) {
		t.Fatalf("repeated error must not report a change")
	}

	prev := s
	if !s.Observe(nil, 0, 0) {
		t.Fatalf("recovery must report a change")
	}
	if !Recovered(prev, s) {
		t.Fatalf("expected recovery transition")
	}
	if s.SecondsInError != 0 || s.LastErrorCode != 0 || s.Health != HealthOK {
		t.Fatalf("recovery did not reset: %+v", s)
	}
}

func TestObserve_Degraded(t *testing.T) {
	var s Snapshot
	s.Observe(nil, 0, 2)
	if s.Health != HealthDegraded {
		t.Fatalf("health: got=%d want=%d", s.Health, HealthDegraded)
	}
	if s.Tick() {
		t.Fatalf("degraded devices do not count seconds in error")
	}
}

func TestTick_Saturates(t *testing.T) {
	s := Snapshot{Health: HealthError, SecondsInError: SecondsInErrorMax}
	if s.Tick() {
		t.Fatalf("tick must not wrap")
	}
	if s.SecondsInError != SecondsInErrorMax {
		t.Fatalf("seconds_in_error wrapped: %d", s.SecondsInError)
	}
}
