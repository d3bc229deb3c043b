package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/session"
)

type stubIdP struct{ err error }

func (s stubIdP) SignInWithPassword(context.Context, string, string) (models.AuthSession, error) {
	return models.AuthSession{}, s.err
}

func (stubIdP) SignOut(context.Context, string) error { return nil }

func (stubIdP) GetUser(context.Context, string) (models.AuthUser, error) {
	return models.AuthUser{}, errors.New("not signed in")
}

type stubRoles struct{}

func (stubRoles) Role(context.Context, string) (models.Role, error) { return models.RoleAdmin, nil }

func TestAuthHandler_LoginFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBanner string
	}{
		{"bad credentials", repository.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
		{"backend unreachable", errors.New("dial tcp: connection refused"), http.StatusBadGateway, auth.ErrSignInUnavailable.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := auth.NewService(stubIdP{err: tt.err}, stubRoles{}, session.NewMemoryStore(time.Hour), "", nil)
			h := NewAuthHandler(svc, nil)

			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login",
				strings.NewReader(`{"email":"admin@farm.gn","password":"pw"}`))
			c.Request.Header.Set("Content-Type", "application/json")

			h.Login(c)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Banner.Type != "danger" || body.Banner.Message != tt.wantBanner {
				t.Errorf("banner = %+v", body.Banner)
			}
		})
	}
}
