package builder

import (
	"testing"
	"time"
)

func TestIssuedAt(t *testing.T) {
	cairo, err := time.LoadLocation("Africa/Cairo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	cases := []struct {
		date, clock string
		want        string
	}{
		{"2024-01-15", "10:30:00", "2024-01-15T08:30:00Z"},
		{"2024-01-15", "10:30:00.123456", "2024-01-15T08:30:00Z"},
		{"2024-01-15", "9:05:07", "2024-01-15T07:05:07Z"},
		{"2024-01-15", "01:00", "2024-01-14T23:00:00Z"},
		{"2024-01-15", "", "2024-01-14T22:00:00Z"},
	}
	for _, tc := range cases {
		got, err := IssuedAt(tc.date, tc.clock, cairo)
		if err != nil {
			t.Fatalf("IssuedAt(%q, %q): %v", tc.date, tc.clock, err)
		}
		if got != tc.want {
			t.Fatalf("IssuedAt(%q, %q) = %s, want %s", tc.date, tc.clock, got, tc.want)
		}
	}

	if _, err := IssuedAt("", "", cairo); err == nil {
		t.Fatalf("expected error for empty posting date")
	}
}
