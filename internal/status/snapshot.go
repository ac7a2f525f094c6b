// internal/status/snapshot.go
package status

// Snapshot is the device-level health derived from poll cycles.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}

// Observe folds one cycle outcome into s and reports whether anything changed.
// failed is the number of channels that did not come back good; err is the
// cycle error, code its best-effort numeric form.
func (s *Snapshot) Observe(err error, code uint16, failed int) bool {
	next := *s

	switch {
	case err != nil:
		next.Health = HealthError
		next.LastErrorCode = code
	case failed > 0:
		next.Health = HealthDegraded
		next.LastErrorCode = 0
		next.SecondsInError = 0
	default:
		// Recovery / OK
		next.Health = HealthOK
		next.LastErrorCode = 0
		next.SecondsInError = 0
	}

	changed := next != *s
	*s = next
	return changed
}

// Tick advances the seconds-in-error counter once while in error.
// Returns false when nothing changed.
func (s *Snapshot) Tick() bool {
	if s.Health != HealthError {
		return false
	}
	if s.SecondsInError >= SecondsInErrorMax {
		return false
	}
	s.SecondsInError++
	return true
}

// Recovered reports a transition out of HealthError.
func Recovered(prev, cur Snapshot) bool {
	return prev.Health == HealthError && cur.Health != HealthError
}
