package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/attendhub/attendhub/internal/auth"
	"github.com/attendhub/attendhub/internal/domain/user"
	"github.com/attendhub/attendhub/internal/http/handlers"
	"github.com/attendhub/attendhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUserReader struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeUserReader) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	hash, err := security.HashPassword(plain)

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	return hash
}

func TestLoginHandler(t *testing.T) {
	alice := func(t *testing.T) user.User {
		return user.User{
			ID:           "u1",
			Email:        "alice@company.com",
			PasswordHash: mustHash(t, "secret123"),
			Name:         "Alice",
			Role:         user.RoleEmployee,
			EmployeeID:   "EMP002",
			Department:   "Engineering",
		}
	}

	tests := []struct {
		name       string
		body       string
		reader     func(t *testing.T) *fakeUserReader
		wantStatus int
		wantCode   string
	}{
		{
			name: "valid credentials",
			body: `{"email":"alice@company.com","password":"secret123"}`,
			reader: func(t *testing.T) *fakeUserReader {
				u := alice(t)
				return &fakeUserReader{getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
					if email != u.Email {
						return user.User{}, user.ErrNotFound
					}
					return u, nil
				}}
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown email",
			body: `{"email":"nobody@company.com","password":"secret123"}`,
			reader: func(t *testing.T) *fakeUserReader {
				return &fakeUserReader{}
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_credentials",
		},
		{
			name: "wrong password",
			body: `{"email":"alice@company.com","password":"not-the-password"}`,
			reader: func(t *testing.T) *fakeUserReader {
				u := alice(t)
				return &fakeUserReader{getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
					return u, nil
				}}
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "invalid_credentials",
		},
		{
			name: "missing fields",
			body: `{"email":"alice@company.com"}`,
			reader: func(t *testing.T) *fakeUserReader {
				return &fakeUserReader{}
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := auth.NewManager("test-secret-key", time.Hour)
			h := handlers.NewAuthHandler(tt.reader(t), mgr)

			r := gin.New()
			r.POST("/api/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp struct {
					Error handlers.APIError `json:"error"`
				}

				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal error response: %v", err)
				}

				if resp.Error.Code != tt.wantCode {
					t.Fatalf("error code = %q, want %q", resp.Error.Code, tt.wantCode)
				}

				return
			}

			var resp struct {
				Token string          `json:"token"`
				User  json.RawMessage `json:"user"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal success response: %v", err)
			}

			if resp.Token == "" {
				t.Fatal("expected a token in the response")
			}

			claims, err := mgr.VerifyAccessToken(resp.Token)

			if err != nil {
				t.Fatalf("issued token did not verify: %v", err)
			}

			if claims.UserID != "u1" || claims.Role != user.RoleEmployee {
				t.Fatalf("unexpected claims: %+v", claims)
			}

			if strings.Contains(string(resp.User), "secret123") || strings.Contains(strings.ToLower(string(resp.User)), "password") {
				t.Fatalf("redacted user leaked credential material: %s", resp.User)
			}
		})
	}
}
