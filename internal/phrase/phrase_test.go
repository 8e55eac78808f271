package phrase

import (
	"testing"
	"time"
)

// refNow is Monday 2024-05-06 10:00 local.
var refNow = time.Date(2024, 5, 6, 10, 0, 0, 0, time.Local)

func TestParseRelative(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want time.Duration
	}{
		{"em 5 minutos", 5 * time.Minute},
		{"em 1 minuto", 1 * time.Minute},
		{"Em 90 min", 90 * time.Minute},
		{"em 30 segundos", 30 * time.Second},
		{"em 1 segundo", 1 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Parse(tt.text, refNow)
			if got.Kind != KindIn {
				t.Fatalf("Kind = %v, want %v", got.Kind, KindIn)
			}
			if got.Every != tt.want {
				t.Fatalf("Every = %v, want %v", got.Every, tt.want)
			}
		})
	}
}

func TestParseTomorrow(t *testing.T) {
	t.Parallel()
	got := Parse("amanhã às 9", refNow)
	if got.Kind != KindAt {
		t.Fatalf("Kind = %v, want %v", got.Kind, KindAt)
	}
	want := time.Date(2024, 5, 7, 9, 0, 0, 0, time.Local)
	if !got.At.Equal(want) {
		t.Fatalf("At = %v, want %v", got.At, want)
	}

	// "amanhã" is always tomorrow, even when the time is still ahead today.
	got = Parse("amanha as 23:15", refNow)
	want = time.Date(2024, 5, 7, 23, 15, 0, 0, time.Local)
	if !got.At.Equal(want) {
		t.Fatalf("At = %v, want %v", got.At, want)
	}
}

func TestParseWeekly(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text    string
		weekday time.Weekday
		hour    int
		minute  int
	}{
		{"toda segunda às 14:30", time.Monday, 14, 30},
		{"Toda TERÇA às 8", time.Tuesday, 8, 0},
		{"toda terca-feira as 8", time.Tuesday, 8, 0},
		{"toda quarta-feira às 12:45", time.Wednesday, 12, 45},
		{"toda sex 18:00", time.Friday, 18, 0},
		{"todo sabado as 7", time.Saturday, 7, 0},
		{"todo domingo às 20:05", time.Sunday, 20, 5},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Parse(tt.text, refNow)
			if got.Kind != KindWeekly {
				t.Fatalf("Kind = %v, want %v", got.Kind, KindWeekly)
			}
			if got.Weekday != tt.weekday || got.Hour != tt.hour || got.Minute != tt.minute {
				t.Fatalf("got %v %d:%02d, want %v %d:%02d",
					got.Weekday, got.Hour, got.Minute, tt.weekday, tt.hour, tt.minute)
			}
		})
	}
}

func TestParseDaily(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"diariamente às 09:00", "todo dia as 9"} {
		got := Parse(text, refNow)
		if got.Kind != KindDaily {
			t.Fatalf("Parse(%q).Kind = %v, want %v", text, got.Kind, KindDaily)
		}
		if got.Hour != 9 || got.Minute != 0 {
			t.Fatalf("Parse(%q) = %d:%02d, want 9:00", text, got.Hour, got.Minute)
		}
	}

	got := Parse("todo dia às 6:30", refNow)
	if got.Hour != 6 || got.Minute != 30 {
		t.Fatalf("got %d:%02d, want 6:30", got.Hour, got.Minute)
	}
}

func TestParseBareTime(t *testing.T) {
	t.Parallel()
	// Still ahead today: today's occurrence.
	now := time.Date(2024, 5, 6, 23, 0, 0, 0, time.Local)
	got := Parse("às 23:59", now)
	if got.Kind != KindAt {
		t.Fatalf("Kind = %v, want %v", got.Kind, KindAt)
	}
	want := time.Date(2024, 5, 6, 23, 59, 0, 0, time.Local)
	if !got.At.Equal(want) {
		t.Fatalf("At = %v, want %v", got.At, want)
	}

	// Just past: tomorrow's occurrence.
	now = time.Date(2024, 5, 6, 23, 59, 1, 0, time.Local)
	got = Parse("às 23:59", now)
	want = time.Date(2024, 5, 7, 23, 59, 0, 0, time.Local)
	if !got.At.Equal(want) {
		t.Fatalf("At = %v, want %v", got.At, want)
	}
}

func TestParsePrecedence(t *testing.T) {
	t.Parallel()
	// "toda segunda às 9" contains a bare "as 9"; the weekly pattern must
	// win because it is tried first.
	got := Parse("toda segunda às 9", refNow)
	if got.Kind != KindWeekly {
		t.Fatalf("Kind = %v, want %v", got.Kind, KindWeekly)
	}

	// An unknown weekday name makes the weekly pattern non-matching and
	// parsing falls through to the bare time pattern.
	got = Parse("toda lua às 9", refNow)
	if got.Kind != KindAt {
		t.Fatalf("Kind = %v, want %v", got.Kind, KindAt)
	}
	want := time.Date(2024, 5, 7, 9, 0, 0, 0, time.Local) // 9:00 already passed at refNow
	if !got.At.Equal(want) {
		t.Fatalf("At = %v, want %v", got.At, want)
	}
}

func TestParseFallback(t *testing.T) {
	t.Parallel()
	for _, text := range []string{"blah blah", "", "lembra de algo"} {
		got := Parse(text, refNow)
		if got.Kind != KindIn {
			t.Fatalf("Parse(%q).Kind = %v, want %v", text, got.Kind, KindIn)
		}
		if got.Every != FallbackEvery {
			t.Fatalf("Parse(%q).Every = %v, want %v", text, got.Every, FallbackEvery)
		}
	}
}

func TestNormalizeDiacritics(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"Terça", "terca"},
		{"TERÇA", "terca"},
		{"terca", "terca"},
		{"sábado", "sabado"},
		{"  AMANHÃ às 9 ", "amanha as 9"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
