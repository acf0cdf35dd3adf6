package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/attendhub/attendhub/internal/cache"
	"github.com/attendhub/attendhub/internal/config"
	"github.com/attendhub/attendhub/internal/domain/attendance"
	"github.com/attendhub/attendhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserCounter interface {
	CountByRole(ctx context.Context, role string) (int, error)
}

type AttendanceAggregator interface {
	CountPresent(ctx context.Context, date string) (int, error)
	AverageHoursForMonth(ctx context.Context, month string) (float64, error)
}

type DashboardStats struct {
	TotalEmployees    int     `json:"totalEmployees"`
	PresentToday      int     `json:"presentToday"`
	AbsentToday       int     `json:"absentToday"`
	AvgHoursThisMonth float64 `json:"avgHoursThisMonth"`
}

type DashboardHandler struct {
	users      UserCounter
	attendance AttendanceAggregator
	cache      *cache.Cache
	now        func() time.Time
}

func NewDashboardHandler(users UserCounter, agg AttendanceAggregator, statsCache *cache.Cache) *DashboardHandler {
	return &DashboardHandler{
		users:      users,
		attendance: agg,
		cache:      statsCache,
		now:        time.Now,
	}
}

const statsCacheKey = "dashboard.stats"

func (h *DashboardHandler) Stats(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(statsCacheKey); ok {
			if stats, ok := v.(DashboardStats); ok {
				ctx.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	at := h.now()
	today := at.Format(attendance.DateFormat)
	month := at.Format(attendance.MonthFormat)

	totalEmployees, err := h.users.CountByRole(cctx, user.RoleEmployee)

	if err != nil {
		RespondInternal(ctx, "Could not compute stats")
		return
	}

	presentToday, err := h.attendance.CountPresent(cctx, today)

	if err != nil {
		RespondInternal(ctx, "Could not compute stats")
		return
	}

	avgHours, err := h.attendance.AverageHoursForMonth(cctx, month)

	if err != nil {
		RespondInternal(ctx, "Could not compute stats")
		return
	}

	stats := DashboardStats{
		TotalEmployees:    totalEmployees,
		PresentToday:      presentToday,
		// can go negative if non-employees check in; reported as observed
		AbsentToday:       totalEmployees - presentToday,
		AvgHoursThisMonth: avgHours,
	}

	if h.cache != nil {
		h.cache.Set(statsCacheKey, stats)
	}

	ctx.JSON(http.StatusOK, stats)
}
