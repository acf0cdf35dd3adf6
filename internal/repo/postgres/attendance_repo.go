package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/attendhub/attendhub/internal/domain/attendance"
	"github.com/attendhub/attendhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AttendanceRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAttendanceRepo(pool *pgxpool.Pool, prom *observability.Prom) *AttendanceRepo {
	return &AttendanceRepo{pool: pool, prom: prom}
}

func (r *AttendanceRepo) observe(op string, fn func() error) error {
	if r.prom == nil {
		return fn()
	}

	return r.prom.ObserveDB(op, fn)
}

const recordColumns = `id, user_id, date, check_in, check_out, total_hours, status`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	var day time.Time

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&day,
		&rec.CheckIn,
		&rec.CheckOut,
		&rec.TotalHours,
		&rec.Status,
	)

	if err != nil {
		return attendance.Record{}, err
	}

	rec.Date = day.Format(attendance.DateFormat)

	return rec, nil
}

func parseDay(date string) (time.Time, error) {
	return time.Parse(attendance.DateFormat, date)
}

func (r *AttendanceRepo) GetForDay(ctx context.Context, userID, date string) (attendance.Record, error) {
	day, err := parseDay(date)

	if err != nil {
		return attendance.Record{}, err
	}

	var rec attendance.Record

	err = r.observe("attendance.get_for_day", func() error {
		var err error
		rec, err = scanRecord(r.pool.QueryRow(
			ctx,
			`SELECT `+recordColumns+` FROM attendance WHERE user_id = $1 AND date = $2`,
			userID, day,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrNotFound
		}

		return attendance.Record{}, err
	}

	return rec, nil
}

// CheckIn inserts the day's record. The unique index on (user_id, date)
// makes a concurrent double check-in lose here rather than in a
// read-then-write check.
func (r *AttendanceRepo) CheckIn(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error) {
	day, err := parseDay(date)

	if err != nil {
		return attendance.Record{}, err
	}

	rec := attendance.Record{
		ID:      uuid.NewString(),
		UserID:  userID,
		Date:    date,
		CheckIn: at,
		Status:  attendance.StatusPresent,
	}

	err = r.observe("attendance.check_in", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO attendance (id, user_id, date, check_in, status)
			VALUES ($1,$2,$3,$4,$5)
			`,
			rec.ID, rec.UserID, day, rec.CheckIn, rec.Status,
		)
		return err
	})

	if isUniqueViolation(err) {
		return attendance.Record{}, attendance.ErrAlreadyCheckedIn
	}

	if err != nil {
		return attendance.Record{}, err
	}

	return rec, nil
}

// CheckOut performs the single open->closed transition atomically; the
// check_out IS NULL guard keeps a second check-out from overwriting the
// first.
func (r *AttendanceRepo) CheckOut(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error) {
	day, err := parseDay(date)

	if err != nil {
		return attendance.Record{}, err
	}

	var rec attendance.Record

	err = r.observe("attendance.check_out", func() error {
		var err error
		rec, err = scanRecord(r.pool.QueryRow(
			ctx,
			`UPDATE attendance
			SET check_out = $3,
					total_hours = ROUND((EXTRACT(EPOCH FROM ($3::timestamptz - check_in)) / 3600.0)::numeric, 2)
			WHERE user_id = $1 AND date = $2 AND check_out IS NULL
			RETURNING `+recordColumns,
			userID, day, at,
		))
		return err
	})

	if err == nil {
		return rec, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, err
	}

	// No open record: distinguish "never checked in" from "already closed".
	if _, err := r.GetForDay(ctx, userID, date); err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			return attendance.Record{}, attendance.ErrNoCheckIn
		}

		return attendance.Record{}, err
	}

	return attendance.Record{}, attendance.ErrAlreadyCheckedOut
}

func (r *AttendanceRepo) List(ctx context.Context, filter attendance.ListFilter) ([]attendance.EnrichedRecord, error) {
	baseQuery := `SELECT a.id,
		a.user_id,
		a.date,
		a.check_in,
		a.check_out,
		a.total_hours,
		a.status,
		COALESCE(u.name, 'Unknown') AS user_name,
		COALESCE(u.employee_id, 'Unknown') AS employee_id
	FROM attendance a
	LEFT JOIN users u ON u.id = a.user_id
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.UserID != "" {
		conds = append(conds, fmt.Sprintf("a.user_id = $%d", argsPosition))
		args = append(args, filter.UserID)
		argsPosition++
	}

	if filter.StartDate != "" {
		day, err := parseDay(filter.StartDate)

		if err != nil {
			return nil, err
		}

		conds = append(conds, fmt.Sprintf("a.date >= $%d", argsPosition))
		args = append(args, day)
		argsPosition++
	}

	if filter.EndDate != "" {
		day, err := parseDay(filter.EndDate)

		if err != nil {
			return nil, err
		}

		conds = append(conds, fmt.Sprintf("a.date <= $%d", argsPosition))
		args = append(args, day)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY a.date ASC, a.check_in ASC"

	var out []attendance.EnrichedRecord

	err := r.observe("attendance.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]attendance.EnrichedRecord, 0, 32)

		for rows.Next() {
			var rec attendance.EnrichedRecord
			var day time.Time

			err = rows.Scan(
				&rec.ID,
				&rec.UserID,
				&day,
				&rec.CheckIn,
				&rec.CheckOut,
				&rec.TotalHours,
				&rec.Status,
				&rec.UserName,
				&rec.EmployeeID,
			)

			if err != nil {
				return err
			}

			rec.Date = day.Format(attendance.DateFormat)
			out = append(out, rec)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *AttendanceRepo) CountPresent(ctx context.Context, date string) (int, error) {
	day, err := parseDay(date)

	if err != nil {
		return 0, err
	}

	var n int

	err = r.observe("attendance.count_present", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT COUNT(*) FROM attendance WHERE date = $1`,
			day,
		).Scan(&n)
	})

	if err != nil {
		return 0, err
	}

	return n, nil
}

// AverageHoursForMonth averages total_hours across the month's closed
// records; month is YYYY-MM. Returns 0 when nothing qualifies.
func (r *AttendanceRepo) AverageHoursForMonth(ctx context.Context, month string) (float64, error) {
	var avg float64

	err := r.observe("attendance.avg_hours_month", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT COALESCE(AVG(total_hours), 0)
			FROM attendance
			WHERE to_char(date, 'YYYY-MM') = $1 AND total_hours IS NOT NULL`,
			month,
		).Scan(&avg)
	})

	if err != nil {
		return 0, err
	}

	return attendance.RoundHours(avg), nil
}
