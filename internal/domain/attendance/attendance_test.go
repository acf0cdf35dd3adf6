package attendance_test

import (
	"testing"
	"time"

	"github.com/attendhub/attendhub/internal/domain/attendance"
)

func TestHoursBetween(t *testing.T) {
	day := func(hh, mm, ss int) time.Time {
		return time.Date(2025, 3, 10, hh, mm, ss, 0, time.UTC)
	}

	tests := []struct {
		name string
		in   time.Time
		out  time.Time
		want float64
	}{
		{name: "full day", in: day(9, 0, 0), out: day(17, 30, 0), want: 8.5},
		{name: "quarter hours", in: day(9, 0, 0), out: day(17, 15, 0), want: 8.25},
		{name: "rounds to cents", in: day(9, 0, 0), out: day(9, 10, 0), want: 0.17},
		{name: "zero duration", in: day(9, 0, 0), out: day(9, 0, 0), want: 0},
		{name: "sub minute", in: day(9, 0, 0), out: day(9, 0, 17), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := attendance.HoursBetween(tt.in, tt.out)

			if got != tt.want {
				t.Fatalf("HoursBetween() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundHours(t *testing.T) {
	if got := attendance.RoundHours(8.256); got != 8.26 {
		t.Fatalf("RoundHours(8.256) = %v, want 8.26", got)
	}

	if got := attendance.RoundHours(8.254); got != 8.25 {
		t.Fatalf("RoundHours(8.254) = %v, want 8.25", got)
	}
}
