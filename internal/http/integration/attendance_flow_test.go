package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/attendhub/attendhub/internal/auth"
	"github.com/attendhub/attendhub/internal/config"
	"github.com/attendhub/attendhub/internal/db"
	apphttp "github.com/attendhub/attendhub/internal/http"
	"github.com/attendhub/attendhub/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "test",
		Port:              0,
		StoreDriver:       "memory",
		JWTSecret:         "test-secret-key",
		JWTAccessTTLHours: 24,
		AdminEmail:        "admin@company.com",
		AdminPassword:     "admin123",
		AdminName:         "System Administrator",
		AdminEmployeeID:   "EMP001",
		AdminDepartment:   "IT",
		LoginRateLimit:    100,
		LoginRateWindow:   time.Minute,
	}
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()

	users := memory.NewUsersRepo()
	attendanceRepo := memory.NewAttendanceRepo(users)

	if err := db.EnsureAdminUser(context.Background(), users, cfg); err != nil {
		t.Fatalf("admin bootstrap failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	deps := apphttp.Deps{
		Users:      users,
		Attendance: attendanceRepo,
		JWT:        auth.NewManager(cfg.JWTSecret, cfg.AccessTTL()),
	}

	return apphttp.NewRouter(logger, cfg, deps)
}

func doJSON(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doJSON(router, http.MethodPost, "/api/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s failed: status=%d body=%s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}

	if resp.Token == "" {
		t.Fatal("login returned an empty token")
	}

	return resp.Token
}

func TestFullAttendanceFlow(t *testing.T) {
	router := setupRouter(t)

	// bootstrap admin can log in with the default credentials
	adminToken := login(t, router, "admin@company.com", "admin123")

	// wrong password is rejected
	if w := doJSON(router, http.MethodPost, "/api/login", "", `{"email":"admin@company.com","password":"nope"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status=%d, want 401", w.Code)
	}

	// admin creates alice
	w := doJSON(router, http.MethodPost, "/api/users", adminToken,
		`{"email":"alice@company.com","password":"secret123","name":"Alice","employeeId":"EMP002","department":"Engineering"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("create user: status=%d body=%s", w.Code, w.Body.String())
	}

	// duplicate email is a 400
	w = doJSON(router, http.MethodPost, "/api/users", adminToken,
		`{"email":"alice@company.com","password":"secret123","name":"Alice Again","employeeId":"EMP009","department":"Engineering"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate user: status=%d, want 400", w.Code)
	}

	aliceToken := login(t, router, "alice@company.com", "secret123")

	// alice cannot reach the directory
	if w := doJSON(router, http.MethodGet, "/api/users", aliceToken, ""); w.Code != http.StatusForbidden {
		t.Fatalf("employee /api/users: status=%d, want 403", w.Code)
	}

	// and anonymous callers cannot reach anything protected
	if w := doJSON(router, http.MethodGet, "/api/attendance", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous /api/attendance: status=%d, want 401", w.Code)
	}

	// before any check-in, today is empty
	w = doJSON(router, http.MethodGet, "/api/attendance/today", aliceToken, "")

	var status struct {
		HasCheckedIn  bool `json:"hasCheckedIn"`
		HasCheckedOut bool `json:"hasCheckedOut"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal today: %v", err)
	}

	if status.HasCheckedIn || status.HasCheckedOut {
		t.Fatalf("expected empty day, got %+v", status)
	}

	// check-out before check-in fails
	if w := doJSON(router, http.MethodPost, "/api/attendance/checkout", aliceToken, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("early checkout: status=%d, want 400", w.Code)
	}

	// first check-in succeeds, second fails
	if w := doJSON(router, http.MethodPost, "/api/attendance/checkin", aliceToken, ""); w.Code != http.StatusOK {
		t.Fatalf("checkin: status=%d body=%s", w.Code, w.Body.String())
	}

	if w := doJSON(router, http.MethodPost, "/api/attendance/checkin", aliceToken, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("double checkin: status=%d, want 400", w.Code)
	}

	// first check-out succeeds, second fails
	if w := doJSON(router, http.MethodPost, "/api/attendance/checkout", aliceToken, ""); w.Code != http.StatusOK {
		t.Fatalf("checkout: status=%d body=%s", w.Code, w.Body.String())
	}

	if w := doJSON(router, http.MethodPost, "/api/attendance/checkout", aliceToken, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("double checkout: status=%d, want 400", w.Code)
	}

	// alice's listing carries her enrichment and exactly one record
	w = doJSON(router, http.MethodGet, "/api/attendance?userId=someone-else", aliceToken, "")

	var records []struct {
		UserName   string `json:"userName"`
		EmployeeID string `json:"employeeId"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("unmarshal attendance list: %v", err)
	}

	if len(records) != 1 || records[0].UserName != "Alice" || records[0].EmployeeID != "EMP002" {
		t.Fatalf("unexpected listing: %+v", records)
	}

	// dashboard reflects the day: one employee, present
	w = doJSON(router, http.MethodGet, "/api/dashboard/stats", aliceToken, "")

	if w.Code != http.StatusOK {
		t.Fatalf("stats: status=%d body=%s", w.Code, w.Body.String())
	}

	var stats struct {
		TotalEmployees int `json:"totalEmployees"`
		PresentToday   int `json:"presentToday"`
		AbsentToday    int `json:"absentToday"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}

	if stats.TotalEmployees != 1 || stats.PresentToday != 1 || stats.AbsentToday != 0 {
		t.Fatalf("stats = %+v, want 1 employee present", stats)
	}
}

func TestExpiredTokenRequiresRelogin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()

	users := memory.NewUsersRepo()
	attendanceRepo := memory.NewAttendanceRepo(users)

	if err := db.EnsureAdminUser(context.Background(), users, cfg); err != nil {
		t.Fatalf("admin bootstrap failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// issue tokens that are already expired
	deps := apphttp.Deps{
		Users:      users,
		Attendance: attendanceRepo,
		JWT:        auth.NewManager(cfg.JWTSecret, -time.Minute),
	}

	router := apphttp.NewRouter(logger, cfg, deps)

	token := login(t, router, "admin@company.com", "admin123")

	if w := doJSON(router, http.MethodGet, "/api/users", token, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status=%d, want 401", w.Code)
	}
}

func TestBodylessCheckInNeedsNoContentType(t *testing.T) {
	router := setupRouter(t)

	token := login(t, router, "admin@company.com", "admin123")

	// the browser client posts check-in/check-out with only the bearer
	// header, no body and no Content-Type
	req := httptest.NewRequest(http.MethodPost, "/api/attendance/checkin", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("bodyless check-in: status=%d body=%s, want 200", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/attendance/checkout", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("bodyless check-out: status=%d body=%s, want 200", w.Code, w.Body.String())
	}

	// a post that does carry a body still has to declare JSON
	req = httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewBufferString(`{"email":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("text/plain body: status=%d, want 415", w.Code)
	}
}
