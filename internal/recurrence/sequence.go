// Package recurrence projects a recurring task definition into a bounded
// series of dated instances and keeps that series in agreement with the
// definition. Everything here is pure: callers pass the current task set, the
// clock reading and an ID allocator, and apply the returned records or Delta
// to their store.
package recurrence

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

const (
	DefaultHorizonYears = 3
	DefaultStatus       = domain.TaskPlanned
)

// Policy holds the tunables of instance generation.
type Policy struct {
	// HorizonYears is how far past now instances are kept materialized.
	HorizonYears int
	// InitialStatus is the status every generated instance starts in.
	InitialStatus domain.TaskStatus
	// Location is the zone whose wall clock occurrences keep. Stores return
	// anchors in UTC, so generation converts every anchor into Location
	// before stepping. Nil means UTC.
	Location *time.Location
}

// DefaultPolicy returns the 3-year horizon with instances starting planned.
func DefaultPolicy() Policy {
	return Policy{HorizonYears: DefaultHorizonYears, InitialStatus: DefaultStatus}
}

// HorizonEnd returns the last instant that may carry an occurrence.
func (p Policy) HorizonEnd(now time.Time) time.Time {
	years := p.HorizonYears
	if years <= 0 {
		years = DefaultHorizonYears
	}
	return AddMonthsClamped(now, 12*years)
}

// Zone returns the location occurrences are computed in.
func (p Policy) Zone() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// InZone returns anchor expressed in the policy zone, or nil.
func (p Policy) InZone(anchor *time.Time) *time.Time {
	if anchor == nil {
		return nil
	}
	a := anchor.In(p.Zone())
	return &a
}

func (p Policy) initialStatus() domain.TaskStatus {
	if p.InitialStatus == "" || !p.InitialStatus.Valid() || p.InitialStatus == domain.TaskDone {
		return DefaultStatus
	}
	return p.InitialStatus
}

// Occurrences returns the occurrence dates strictly after anchor up to and
// including horizonEnd, in ascending order, keeping the wall clock of the
// anchor's own location. A nil or zero anchor, or a rule
// that does not recur, yields an empty sequence.
func Occurrences(anchor *time.Time, rule domain.RecurrenceType, horizonEnd time.Time) []time.Time {
	if anchor == nil || anchor.IsZero() || !rule.Recurs() {
		return nil
	}
	var out []time.Time
	for n := 1; ; n++ {
		next, ok := Step(*anchor, rule, n)
		if !ok || next.After(horizonEnd) {
			break
		}
		out = append(out, next)
	}
	return out
}

// Sequence returns the target occurrence dates for root as of now.
func Sequence(root *domain.Task, now time.Time, p Policy) []time.Time {
	if root == nil || root.IsInstance() {
		return nil
	}
	return Occurrences(p.InZone(root.DueDate), root.Recurrence, p.HorizonEnd(now))
}

// OccurrenceKey is the identity of an occurrence date used for
// de-duplication: the instant in UTC at second precision, which is the
// precision every store round-trips.
func OccurrenceKey(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
