package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/attendhub/attendhub/internal/auth"
	"github.com/attendhub/attendhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(mgr *auth.Manager, extra ...gin.HandlerFunc) *gin.Engine {
	authMW := middlewares.NewAuthMiddleware(mgr)

	r := gin.New()

	chain := append([]gin.HandlerFunc{authMW.RequireAuth()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		role, _ := middlewares.RoleFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})

	r.GET("/protected", chain...)

	return r
}

func TestRequireAuth(t *testing.T) {
	mgr := auth.NewManager("test-secret-key", time.Hour)

	valid, err := mgr.GenerateAccessToken("u1", "alice@company.com", "employee")

	if err != nil {
		t.Fatalf("token issue failed: %v", err)
	}

	expiredMgr := auth.NewManager("test-secret-key", -time.Minute)
	expired, err := expiredMgr.GenerateAccessToken("u1", "alice@company.com", "employee")

	if err != nil {
		t.Fatalf("expired token issue failed: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc123", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
	}

	r := protectedRouter(mgr)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	mgr := auth.NewManager("test-secret-key", time.Hour)
	authMW := middlewares.NewAuthMiddleware(mgr)

	r := gin.New()
	r.GET("/admin", authMW.RequireAuth(), authMW.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	adminToken, _ := mgr.GenerateAccessToken("a1", "admin@company.com", "admin")
	employeeToken, _ := mgr.GenerateAccessToken("u1", "alice@company.com", "employee")

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "admin passes", token: adminToken, wantStatus: http.StatusOK},
		{name: "employee forbidden", token: employeeToken, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
