package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/attendhub/attendhub/internal/auth"
	"github.com/attendhub/attendhub/internal/cache"
	"github.com/attendhub/attendhub/internal/config"
	"github.com/attendhub/attendhub/internal/domain/attendance"
	"github.com/attendhub/attendhub/internal/domain/user"
	"github.com/attendhub/attendhub/internal/http/handlers"
	"github.com/attendhub/attendhub/internal/http/middlewares"
	"github.com/attendhub/attendhub/internal/observability"
	"github.com/attendhub/attendhub/internal/redisclient"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UsersStore is everything the routes need from the users backend; both
// the postgres and memory repos satisfy it.
type UsersStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Insert(ctx context.Context, u user.User) error
	CountByRole(ctx context.Context, role string) (int, error)
}

type AttendanceStore interface {
	GetForDay(ctx context.Context, userID, date string) (attendance.Record, error)
	CheckIn(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error)
	CheckOut(ctx context.Context, userID, date string, at time.Time) (attendance.Record, error)
	List(ctx context.Context, filter attendance.ListFilter) ([]attendance.EnrichedRecord, error)
	CountPresent(ctx context.Context, date string) (int, error)
	AverageHoursForMonth(ctx context.Context, month string) (float64, error)
}

// Deps carries the explicitly constructed collaborators into the router;
// handlers never reach for globals.
type Deps struct {
	Users      UsersStore
	Attendance AttendanceStore

	JWT *auth.Manager

	// optional
	Redis   *redisclient.Client
	Prom    *observability.Prom
	Metrics http.Handler
	Ping    func() error
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("attendhub"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// handlers
	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT)
	usersHandler := handlers.NewUsersHandler(deps.Users)
	attendanceHandler := handlers.NewAttendanceHandler(deps.Attendance)
	dashboardHandler := handlers.NewDashboardHandler(deps.Users, deps.Attendance, cache.New(5*time.Second))

	authMW := middlewares.NewAuthMiddleware(deps.JWT)

	api := r.Group("/api")

	// login stays outside the bearer wall; brute force is throttled per IP
	api.POST("/login", loginLimiter(cfg, deps), authHandler.Login)

	protected := api.Group("", authMW.RequireAuth())

	adminOnly := protected.Group("/users", authMW.RequireRole(user.RoleAdmin))
	adminOnly.GET("", usersHandler.ListUsers)
	adminOnly.POST("", usersHandler.CreateUser)

	protected.POST("/attendance/checkin", attendanceHandler.CheckIn)
	protected.POST("/attendance/checkout", attendanceHandler.CheckOut)
	protected.GET("/attendance", attendanceHandler.ListAttendance)
	protected.GET("/attendance/today", attendanceHandler.TodayStatus)

	// stats carries no role guard; the client hides it from non-admins but
	// the API serves any authenticated caller
	protected.GET("/dashboard/stats", dashboardHandler.Stats)

	log.Debug("router wired", "driver_ping", deps.Ping != nil, "redis", deps.Redis != nil)

	return r
}

func loginLimiter(cfg config.Config, deps Deps) gin.HandlerFunc {
	if deps.Redis != nil {
		rl := middlewares.NewRedisRateLimiter(deps.Redis.Raw(), cfg.LoginRateLimit, cfg.LoginRateWindow)
		return rl.RateLimiterMiddleware(middlewares.KeyByIP)
	}

	rl := middlewares.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	return rl.RateLimiterMiddleware(middlewares.KeyByIP)
}
