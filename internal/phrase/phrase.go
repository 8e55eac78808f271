package phrase

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates parser results.
type Kind int

const (
	// KindIn fires once per Every, starting Every from now.
	KindIn Kind = iota
	// KindAt fires exactly once at At.
	KindAt
	// KindDaily fires every day at Hour:Minute.
	KindDaily
	// KindWeekly fires every week on Weekday at Hour:Minute.
	KindWeekly
)

func (k Kind) String() string {
	switch k {
	case KindIn:
		return "in"
	case KindAt:
		return "at"
	case KindDaily:
		return "daily"
	case KindWeekly:
		return "weekly"
	default:
		return "unknown"
	}
}

// Intent is the structured meaning of a scheduling phrase.
// Fields other than Kind are populated per kind:
//
//	KindIn:     Every
//	KindAt:     At
//	KindDaily:  Hour, Minute
//	KindWeekly: Weekday, Hour, Minute
type Intent struct {
	Kind    Kind
	Every   time.Duration
	At      time.Time
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// FallbackEvery is the interval produced when no pattern matches.
// Malformed input always yields a schedulable intent, never an error.
const FallbackEvery = 10 * time.Second

// Patterns are matched against normalized text (trimmed, lowercased,
// diacritics folded), so "às" arrives here as "as".
var (
	reInMinutes = regexp.MustCompile(`em\s+(\d+)\s+min(uto)?s?`)
	reInSeconds = regexp.MustCompile(`em\s+(\d+)\s+s(egundo)?s?`)
	reTomorrow  = regexp.MustCompile(`amanha\s*(as)?\s*(\d{1,2})(?::(\d{2}))?`)
	reWeekly    = regexp.MustCompile(`tod[ao]\s+([a-z-]+)\s*(as)?\s*(\d{1,2})(?::(\d{2}))?`)
	reDaily     = regexp.MustCompile(`(diariamente|todo\s+dia)\s*(as)?\s*(\d{1,2})(?::(\d{2}))?`)
	reAt        = regexp.MustCompile(`as\s*(\d{1,2})(?::(\d{2}))?`)
)

// Parse turns a short Portuguese scheduling phrase into an Intent.
//
// Patterns are tried in a fixed order and the first match wins; the order
// matters because patterns overlap ("toda segunda as 9" also contains a bare
// "as 9"). Hours are not range-checked here: out-of-range values flow into
// wall-clock normalization downstream.
func Parse(text string, now time.Time) Intent {
	s := Normalize(text)

	if m := reInMinutes.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Intent{Kind: KindIn, Every: time.Duration(n) * time.Minute}
	}

	if m := reInSeconds.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Intent{Kind: KindIn, Every: time.Duration(n) * time.Second}
	}

	// "amanha as H[:MM]": always tomorrow, even if H:MM is still ahead today.
	if m := reTomorrow.FindStringSubmatch(s); m != nil {
		hour, minute := hourMinute(m[2], m[3])
		at := wallClock(now, hour, minute).Add(24 * time.Hour)
		return Intent{Kind: KindAt, At: at}
	}

	// "toda segunda as 14:30". An unknown weekday name is not an error:
	// the pattern is treated as non-matching and parsing falls through.
	if m := reWeekly.FindStringSubmatch(s); m != nil {
		if dow, ok := weekdayByName(m[1]); ok {
			hour, minute := hourMinute(m[3], m[4])
			return Intent{Kind: KindWeekly, Weekday: dow, Hour: hour, Minute: minute}
		}
	}

	if m := reDaily.FindStringSubmatch(s); m != nil {
		hour, minute := hourMinute(m[3], m[4])
		return Intent{Kind: KindDaily, Hour: hour, Minute: minute}
	}

	// Bare "as H[:MM]": today if still ahead, otherwise tomorrow.
	if m := reAt.FindStringSubmatch(s); m != nil {
		hour, minute := hourMinute(m[1], m[2])
		at := wallClock(now, hour, minute)
		if !at.After(now) {
			at = at.Add(24 * time.Hour)
		}
		return Intent{Kind: KindAt, At: at}
	}

	return Intent{Kind: KindIn, Every: FallbackEvery}
}

// Normalize trims, lowercases and folds diacritics so that accented and
// unaccented spellings ("Terça", "terca") compare equal.
func Normalize(s string) string {
	return foldDiacritics(strings.ToLower(strings.TrimSpace(s)))
}

// foldDiacritics maps accented letters to their unaccented base letter.
// The table covers the Latin-1/Latin Extended-A range, which is all
// Portuguese needs; anything else passes through untouched.
var diacriticFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
)

func foldDiacritics(s string) string {
	return diacriticFolder.Replace(s)
}

func hourMinute(h, m string) (int, int) {
	hour, _ := strconv.Atoi(h)
	minute := 0
	if m != "" {
		minute, _ = strconv.Atoi(m)
	}
	return hour, minute
}

// wallClock returns t's calendar day at hour:minute with seconds and
// sub-seconds zeroed. Out-of-range fields normalize by overflow
// (hour 25 rolls into the next day), matching time.Date semantics.
func wallClock(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}
