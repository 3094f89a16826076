package integritymonitor

import (
	"time"

	"pdqindex-go/x/ptr"
)

// Report is sent on CorruptChan/RecoveredChan when the index's integrity
// state transitions.
type Report struct {
	Corrupt bool
	Reason  string
	// Timestamp is the time the transition was detected.
	Timestamp *time.Time
}

// streak tracks consecutive pass/fail integrity checks the same way the
// teacher's Backend tracks consecutive health checks: positive for
// passing checks, negative for failing ones.
type streak struct {
	corrupt bool
	count   int
}

func (s *streak) fail(threshold int, reason string) (corrupt bool, newly bool) {
	if s.count > 0 {
		s.count = 0
	}
	s.count--
	if s.count == -threshold && !s.corrupt {
		s.corrupt = true
		newly = true
	}
	return s.corrupt, newly
}

func (s *streak) success(threshold int) (corrupt bool, newly bool) {
	if s.count < 0 {
		s.count = 0
	}
	s.count++
	if s.count == threshold && s.corrupt {
		s.corrupt = false
		newly = true
	}
	return s.corrupt, newly
}

func toReport(corrupt bool, reason string) *Report {
	return &Report{
		Corrupt:   corrupt,
		Reason:    reason,
		Timestamp: ptr.ToPtr(time.Now()),
	}
}
