package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/attendhub/attendhub/internal/config"
	"github.com/attendhub/attendhub/internal/domain/attendance"
	"github.com/attendhub/attendhub/internal/domain/user"
	"github.com/attendhub/attendhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AttendanceStore interface {
	GetForDay(ctx context.Context, userID, date string) (attendance.Record, error)
	CheckIn(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error)
	CheckOut(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error)
	List(ctx context.Context, filter attendance.ListFilter) ([]attendance.EnrichedRecord, error)
}

type AttendanceHandler struct {
	store AttendanceStore
	now   func() time.Time
}

func NewAttendanceHandler(store AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{
		store: store,
		now:   time.Now,
	}
}

// "today" is the server's local calendar day, same clock that stamps the
// check-in itself.
func (h *AttendanceHandler) today(at time.Time) string {
	return at.Format(attendance.DateFormat)
}

func (h *AttendanceHandler) CheckIn(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	at := h.now()

	rec, err := h.store.CheckIn(cctx, userID, h.today(at), at)

	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			RespondError(ctx, http.StatusBadRequest, "already_checked_in", "Already checked in today", nil)
			return
		}

		RespondInternal(ctx, "Could not check in")
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (h *AttendanceHandler) CheckOut(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	at := h.now()

	rec, err := h.store.CheckOut(cctx, userID, h.today(at), at)

	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrNoCheckIn):
			RespondError(ctx, http.StatusBadRequest, "no_check_in", "No check-in record found for today", nil)
		case errors.Is(err, attendance.ErrAlreadyCheckedOut):
			RespondError(ctx, http.StatusBadRequest, "already_checked_out", "Already checked out today", nil)
		default:
			RespondInternal(ctx, "Could not check out")
		}
		return
	}

	ctx.JSON(http.StatusOK, rec)
}

func (h *AttendanceHandler) ListAttendance(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)
	role, _ := middlewares.RoleFromContext(ctx)

	filter := attendance.ListFilter{
		StartDate: ctx.Query("startDate"),
		EndDate:   ctx.Query("endDate"),
	}

	for name, value := range map[string]string{"startDate": filter.StartDate, "endDate": filter.EndDate} {
		if value == "" {
			continue
		}

		if _, err := time.Parse(attendance.DateFormat, value); err != nil {
			RespondError(ctx, http.StatusBadRequest, "invalid_request", name+" must be a YYYY-MM-DD date", nil)
			return
		}
	}

	// non-admins only ever see their own records, whatever they ask for
	if role == user.RoleAdmin {
		filter.UserID = ctx.Query("userId")
	} else {
		filter.UserID = userID
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	records, err := h.store.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list attendance")
		return
	}

	ctx.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) TodayStatus(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	rec, err := h.store.GetForDay(cctx, userID, h.today(h.now()))

	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			ctx.JSON(http.StatusOK, attendance.TodayStatus{})
			return
		}

		RespondInternal(ctx, "Could not load today's status")
		return
	}

	ctx.JSON(http.StatusOK, attendance.TodayStatus{
		HasCheckedIn:  true,
		HasCheckedOut: rec.CheckOut != nil,
		Record:        &rec,
	})
}
