package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// RuleKind discriminates the recurrence union. The values double as the
// persisted "kind" tag, so they are stable wire constants.
type RuleKind string

const (
	KindOnce     RuleKind = "once"
	KindInterval RuleKind = "interval"
	KindDaily    RuleKind = "daily"
	KindWeekly   RuleKind = "weekly"
)

// Rule is a tagged recurrence union. Fields beyond Kind are populated per
// kind:
//
//	KindOnce:     At
//	KindInterval: Every, NextAt
//	KindDaily:    Hour, Minute, NextAt
//	KindWeekly:   Weekday, Hour, Minute, NextAt
//
// Invariant: for non-Once kinds NextAt is always the next scheduled firing
// instant; Advance recomputes it immediately after each firing.
type Rule struct {
	Kind RuleKind

	At      time.Time     // once
	Every   time.Duration // interval
	Weekday time.Weekday  // weekly
	Hour    int           // daily, weekly
	Minute  int           // daily, weekly
	NextAt  time.Time     // interval, daily, weekly
}

// NextDue returns the rule's current due instant.
func (r Rule) NextDue() time.Time {
	if r.Kind == KindOnce {
		return r.At
	}
	return r.NextAt
}

// Wire shape, compatible with the persisted task file:
// instants are ISO-8601 with millisecond precision, interval periods are
// integer milliseconds.
type ruleJSON struct {
	Kind    RuleKind `json:"kind"`
	At      *isoTime `json:"at,omitempty"`
	EveryMs int64    `json:"everyMs,omitempty"`
	Dow     *int     `json:"dow,omitempty"`
	Hour    *int     `json:"hour,omitempty"`
	Minute  *int     `json:"minute,omitempty"`
	NextAt  *isoTime `json:"nextAt,omitempty"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	out := ruleJSON{Kind: r.Kind}
	switch r.Kind {
	case KindOnce:
		out.At = newISOTime(r.At)
	case KindInterval:
		out.EveryMs = r.Every.Milliseconds()
		out.NextAt = newISOTime(r.NextAt)
	case KindDaily:
		out.Hour = intp(r.Hour)
		out.Minute = intp(r.Minute)
		out.NextAt = newISOTime(r.NextAt)
	case KindWeekly:
		dow := int(r.Weekday)
		out.Dow = &dow
		out.Hour = intp(r.Hour)
		out.Minute = intp(r.Minute)
		out.NextAt = newISOTime(r.NextAt)
	default:
		return nil, fmt.Errorf("schedule: marshal: unknown rule kind %q", r.Kind)
	}
	return json.Marshal(out)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var in ruleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := Rule{Kind: in.Kind}
	switch in.Kind {
	case KindOnce:
		if in.At == nil {
			return fmt.Errorf("schedule: once rule missing %q", "at")
		}
		out.At = in.At.Time
	case KindInterval:
		if in.EveryMs <= 0 {
			return fmt.Errorf("schedule: interval rule has non-positive everyMs %d", in.EveryMs)
		}
		if in.NextAt == nil {
			return fmt.Errorf("schedule: interval rule missing %q", "nextAt")
		}
		out.Every = time.Duration(in.EveryMs) * time.Millisecond
		out.NextAt = in.NextAt.Time
	case KindDaily:
		if in.Hour == nil || in.Minute == nil || in.NextAt == nil {
			return fmt.Errorf("schedule: daily rule missing fields")
		}
		out.Hour = *in.Hour
		out.Minute = *in.Minute
		out.NextAt = in.NextAt.Time
	case KindWeekly:
		if in.Dow == nil || in.Hour == nil || in.Minute == nil || in.NextAt == nil {
			return fmt.Errorf("schedule: weekly rule missing fields")
		}
		out.Weekday = time.Weekday(*in.Dow)
		out.Hour = *in.Hour
		out.Minute = *in.Minute
		out.NextAt = in.NextAt.Time
	default:
		return fmt.Errorf("schedule: unmarshal: unknown rule kind %q", in.Kind)
	}
	*r = out
	return nil
}

func intp(v int) *int { return &v }

// isoTime serializes as ISO-8601 with millisecond precision and parses any
// RFC 3339 timestamp back. Round-tripping instants through the store must
// yield time.Time values again, not strings.
type isoTime struct{ Time time.Time }

const isoMilli = "2006-01-02T15:04:05.000Z07:00"

func newISOTime(t time.Time) *isoTime { return &isoTime{Time: t} }

func (t isoTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(isoMilli))
}

func (t *isoTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("schedule: bad timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
