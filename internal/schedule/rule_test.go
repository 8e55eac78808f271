package schedule

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestRuleJSONRoundTrip(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 5, 6, 10, 0, 0, 123e6, time.Local)
	next := time.Date(2024, 5, 7, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		rule Rule
	}{
		{"once", Rule{Kind: KindOnce, At: at}},
		{"interval", Rule{Kind: KindInterval, Every: 10 * time.Second, NextAt: next}},
		{"daily", Rule{Kind: KindDaily, Hour: 9, Minute: 30, NextAt: next}},
		{"weekly", Rule{Kind: KindWeekly, Weekday: time.Tuesday, Hour: 9, Minute: 30, NextAt: next}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.rule)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got Rule
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Kind != tt.rule.Kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.rule.Kind)
			}
			if got.Every != tt.rule.Every || got.Weekday != tt.rule.Weekday ||
				got.Hour != tt.rule.Hour || got.Minute != tt.rule.Minute {
				t.Fatalf("fields differ: got %+v, want %+v", got, tt.rule)
			}
			if !got.NextDue().Equal(tt.rule.NextDue()) {
				t.Fatalf("NextDue = %v, want %v", got.NextDue(), tt.rule.NextDue())
			}
		})
	}
}

func TestRuleJSONWireShape(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(Rule{Kind: KindInterval, Every: 10 * time.Second, NextAt: time.Now()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{`"kind":"interval"`, `"everyMs":10000`, `"nextAt":`} {
		if !strings.Contains(s, want) {
			t.Fatalf("wire %s missing %s", s, want)
		}
	}
}

func TestRuleJSONMillisecondPrecision(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 5, 6, 10, 0, 0, 0, time.Local).Add(456 * time.Millisecond)
	b, err := json.Marshal(Rule{Kind: KindOnce, At: at})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Rule
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.At.Equal(at) {
		t.Fatalf("At = %v, want %v", got.At, at)
	}
}

func TestRuleJSONRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	var r Rule
	if err := json.Unmarshal([]byte(`{"kind":"hourly"}`), &r); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRuleJSONRejectsBadInterval(t *testing.T) {
	t.Parallel()
	var r Rule
	if err := json.Unmarshal([]byte(`{"kind":"interval","everyMs":0,"nextAt":"2024-05-06T10:00:00.000Z"}`), &r); err == nil {
		t.Fatal("expected error for non-positive everyMs")
	}
}
