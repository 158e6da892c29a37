package planner

import (
	"errors"
	"testing"
)

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		clock   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"9am", 0, true},
		{"0930", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.clock, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClock(tt.clock)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfiguration) {
					t.Errorf("ParseClock(%q) err = %v, want ErrInvalidConfiguration", tt.clock, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q): %v", tt.clock, err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.clock, got, tt.want)
			}
		})
	}
}

func TestFormatClock_Wrapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{570, "09:30"},
		{1439, "23:59"},
		{1440, "00:00"},
		{1530, "01:30"},
		{-30, "23:30"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.minutes); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

// Formatting then parsing preserves the minute value modulo one day
func TestClockRoundTrip(t *testing.T) {
	t.Parallel()

	for _, minutes := range []int{0, 1, 59, 60, 720, 1439, 1440, 2000} {
		parsed, err := ParseClock(FormatClock(minutes))
		if err != nil {
			t.Fatalf("round trip of %d: %v", minutes, err)
		}
		if parsed != minutes%1440 {
			t.Errorf("round trip of %d = %d, want %d", minutes, parsed, minutes%1440)
		}
	}
}
