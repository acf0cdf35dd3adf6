package attendance

import (
	"errors"
	"math"
	"time"
)

// StatusPresent is the only status a record can carry today; leave and
// holiday handling would add more.
const StatusPresent = "present"

// DateFormat is the calendar-day key format. Zero padding keeps plain
// string comparison equivalent to date comparison.
const DateFormat = "2006-01-02"

// MonthFormat prefixes DateFormat, so strings.HasPrefix works for
// month scoping.
const MonthFormat = "2006-01"

type Record struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Date       string     `json:"date"`
	CheckIn    time.Time  `json:"checkIn"`
	CheckOut   *time.Time `json:"checkOut"`
	TotalHours *float64   `json:"totalHours"`
	Status     string     `json:"status"`
}

// EnrichedRecord is a Record joined with the owning user's display fields.
// UserName and EmployeeID fall back to "Unknown" when the user no longer
// resolves.
type EnrichedRecord struct {
	Record
	UserName   string `json:"userName"`
	EmployeeID string `json:"employeeId"`
}

// ListFilter scopes a listing. UserID empty means all users; dates are
// inclusive on both ends and compared as YYYY-MM-DD strings.
type ListFilter struct {
	UserID    string
	StartDate string
	EndDate   string
}

type TodayStatus struct {
	HasCheckedIn  bool    `json:"hasCheckedIn"`
	HasCheckedOut bool    `json:"hasCheckedOut"`
	Record        *Record `json:"record"`
}

var (
	ErrNotFound          = errors.New("attendance record not found")
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
	ErrNoCheckIn         = errors.New("no check-in record found for today")
)

// HoursBetween returns the elapsed hours from in to out rounded to two
// decimal places, e.g. 09:00:00 -> 17:30:00 yields 8.5.
func HoursBetween(in, out time.Time) float64 {
	h := out.Sub(in).Hours()
	return RoundHours(h)
}

func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
