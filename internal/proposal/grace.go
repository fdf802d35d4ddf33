// Package proposal decides whether a topic is still open for idea
// submission.  Evaluation is a pure function of the deadline and the
// current time and runs on every read.
package proposal

import (
	"strings"
	"time"

	"github.com/iliyamo/club-event-engine/internal/model"
)

// DefaultGrace is how long a topic stays active after its deadline.
const DefaultGrace = 24 * time.Hour

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
}

// ParseDeadline accepts ISO-8601 and DD/MM/YYYY forms.  Values without a
// zone are read in loc.
func ParseDeadline(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Policy evaluates topic activity with a fixed grace period.
type Policy struct {
	Grace    time.Duration
	Location *time.Location
}

// NewPolicy returns a Policy; a non-positive grace falls back to
// DefaultGrace.
func NewPolicy(grace time.Duration, loc *time.Location) Policy {
	if grace <= 0 {
		grace = DefaultGrace
	}
	if loc == nil {
		loc = time.UTC
	}
	return Policy{Grace: grace, Location: loc}
}

// Active reports whether a topic with the given deadline is still open at
// now.  A nil deadline never closes.
func (p Policy) Active(deadline *time.Time, now time.Time) bool {
	if deadline == nil {
		return true
	}
	return !now.After(deadline.Add(p.Grace))
}

// TopicOpen reports whether ideas may be submitted to e at now.
func (p Policy) TopicOpen(e *model.Event, now time.Time) bool {
	if !e.AcceptsIdeas || e.Status == model.EventCancelled {
		return false
	}
	return p.Active(e.IdeaSubmissionDeadline, now)
}

// FilterActive keeps the topics open at now, preserving order.
func (p Policy) FilterActive(events []model.Event, now time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for i := range events {
		if p.TopicOpen(&events[i], now) {
			out = append(out, events[i])
		}
	}
	return out
}
