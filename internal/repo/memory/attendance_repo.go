package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/attendhub/attendhub/internal/domain/attendance"
	"github.com/google/uuid"
)

// AttendanceRepo keys records by (userID, date) so the once-per-day
// invariant holds under the same lock that guards the write.
type AttendanceRepo struct {
	mu    sync.RWMutex
	items map[string]attendance.Record
	users *UsersRepo
}

func NewAttendanceRepo(users *UsersRepo) *AttendanceRepo {
	return &AttendanceRepo{
		items: make(map[string]attendance.Record),
		users: users,
	}
}

func dayKey(userID, date string) string {
	return userID + "|" + date
}

func (r *AttendanceRepo) GetForDay(ctx context.Context, userID, date string) (attendance.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.items[dayKey(userID, date)]

	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}

	return rec, nil
}

func (r *AttendanceRepo) CheckIn(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey(userID, date)

	if _, exists := r.items[key]; exists {
		return attendance.Record{}, attendance.ErrAlreadyCheckedIn
	}

	rec := attendance.Record{
		ID:      uuid.NewString(),
		UserID:  userID,
		Date:    date,
		CheckIn: at,
		Status:  attendance.StatusPresent,
	}

	r.items[key] = rec

	return rec, nil
}

func (r *AttendanceRepo) CheckOut(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := dayKey(userID, date)

	rec, ok := r.items[key]

	if !ok {
		return attendance.Record{}, attendance.ErrNoCheckIn
	}

	if rec.CheckOut != nil {
		return attendance.Record{}, attendance.ErrAlreadyCheckedOut
	}

	out := at
	hours := attendance.HoursBetween(rec.CheckIn, out)

	rec.CheckOut = &out
	rec.TotalHours = &hours

	r.items[key] = rec

	return rec, nil
}

func (r *AttendanceRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.EnrichedRecord, error) {
	r.mu.RLock()

	matched := make([]attendance.Record, 0, len(r.items))

	for _, rec := range r.items {
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}

		// inclusive bounds; YYYY-MM-DD strings compare like dates
		if filter.StartDate != "" && rec.Date < filter.StartDate {
			continue
		}

		if filter.EndDate != "" && rec.Date > filter.EndDate {
			continue
		}

		matched = append(matched, rec)
	}

	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date == matched[j].Date {
			return matched[i].CheckIn.Before(matched[j].CheckIn)
		}

		return matched[i].Date < matched[j].Date
	})

	out := make([]attendance.EnrichedRecord, 0, len(matched))

	for _, rec := range matched {
		enriched := attendance.EnrichedRecord{
			Record:     rec,
			UserName:   "Unknown",
			EmployeeID: "Unknown",
		}

		if r.users != nil {
			if u, err := r.users.GetByID(ctx, rec.UserID); err == nil {
				enriched.UserName = u.Name
				enriched.EmployeeID = u.EmployeeID
			}
		}

		out = append(out, enriched)
	}

	return out, nil
}

func (r *AttendanceRepo) CountPresent(ctx context.Context, date string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0

	for _, rec := range r.items {
		if rec.Date == date {
			n++
		}
	}

	return n, nil
}

func (r *AttendanceRepo) AverageHoursForMonth(ctx context.Context, month string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := 0.0
	count := 0

	for _, rec := range r.items {
		if !strings.HasPrefix(rec.Date, month) || rec.TotalHours == nil {
			continue
		}

		sum += *rec.TotalHours
		count++
	}

	if count == 0 {
		return 0, nil
	}

	return attendance.RoundHours(sum / float64(count)), nil
}
