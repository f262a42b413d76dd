package calendar

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	start := time.Date(2026, 9, 1, 21, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	event := func(s, e string) *Event {
		return &Event{
			Start: &EventDateTime{DateTime: s},
			End:   &EventDateTime{DateTime: e},
		}
	}

	cases := []struct {
		name  string
		event *Event
		want  bool
	}{
		{"inside", event("2026-09-01T21:15:00Z", "2026-09-01T21:45:00Z"), true},
		{"straddles start", event("2026-09-01T20:30:00Z", "2026-09-01T21:30:00Z"), true},
		{"touches end", event("2026-09-01T22:00:00Z", "2026-09-01T23:00:00Z"), false},
		{"before", event("2026-09-01T19:00:00Z", "2026-09-01T20:00:00Z"), false},
		{"all-day", &Event{Start: &EventDateTime{Date: "2026-09-01"}, End: &EventDateTime{Date: "2026-09-02"}}, false},
		{"no times", &Event{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.event, start, end); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}
