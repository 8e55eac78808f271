package schedule

import (
	"time"

	"humancron/internal/phrase"
)

// FirstDue computes the initial firing instant for a parsed intent.
//
// Weekly policy: the next occurrence of the weekday strictly after now's
// calendar day. When now already falls on the target weekday the firing is
// pushed a full week out, even if the time of day has not passed yet.
func FirstDue(in phrase.Intent, now time.Time) time.Time {
	switch in.Kind {
	case phrase.KindIn:
		return now.Add(in.Every)
	case phrase.KindAt:
		return in.At
	case phrase.KindDaily:
		today := wallClock(now, in.Hour, in.Minute)
		if today.After(now) {
			return today
		}
		return today.Add(24 * time.Hour)
	case phrase.KindWeekly:
		days := int(in.Weekday-now.Weekday()+7) % 7
		if days == 0 {
			days = 7
		}
		return wallClock(now.AddDate(0, 0, days), in.Hour, in.Minute)
	default:
		return now.Add(phrase.FallbackEvery)
	}
}

// FromIntent maps an intent and its computed first due instant onto a Rule.
func FromIntent(in phrase.Intent, due time.Time) Rule {
	switch in.Kind {
	case phrase.KindIn:
		return Rule{Kind: KindInterval, Every: in.Every, NextAt: due}
	case phrase.KindAt:
		return Rule{Kind: KindOnce, At: due}
	case phrase.KindDaily:
		return Rule{Kind: KindDaily, Hour: in.Hour, Minute: in.Minute, NextAt: due}
	case phrase.KindWeekly:
		return Rule{Kind: KindWeekly, Weekday: in.Weekday, Hour: in.Hour, Minute: in.Minute, NextAt: due}
	default:
		return Rule{Kind: KindInterval, Every: phrase.FallbackEvery, NextAt: due}
	}
}

// Advance pushes a rule's due instant to its next occurrence after a firing.
//
// The new instant is anchored to the previous scheduled instant, never to
// the actual firing time, so a late tick does not accumulate drift.
// Once rules have no next occurrence; the caller disables the task.
func Advance(r Rule) Rule {
	switch r.Kind {
	case KindOnce:
		return r
	case KindInterval:
		r.NextAt = r.NextAt.Add(r.Every)
		return r
	case KindDaily:
		// Shift a calendar day, then re-apply the wall-clock time so the
		// hour survives month boundaries and naive day arithmetic.
		r.NextAt = wallClock(r.NextAt.AddDate(0, 0, 1), r.Hour, r.Minute)
		return r
	case KindWeekly:
		r.NextAt = wallClock(r.NextAt.AddDate(0, 0, 7), r.Hour, r.Minute)
		return r
	default:
		return r
	}
}

// wallClock returns t's calendar day at hour:minute, seconds zeroed.
// Out-of-range hour/minute values normalize by overflow (hour 25 rolls
// into the next day) rather than failing; garbage from the parser is
// accepted here by contract.
func wallClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
