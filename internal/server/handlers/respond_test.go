package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/pkg/clients/supabase"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantType     string
		wantRedirect string
	}{
		{"unauthenticated", fmt.Errorf("%w: expired", auth.ErrUnauthenticated), http.StatusUnauthorized, "warning", "login"},
		{"forbidden", auth.ErrForbidden, http.StatusForbidden, "danger", ""},
		{"invalid role", auth.ErrInvalidRole, http.StatusForbidden, "danger", ""},
		{"sign in unavailable", fmt.Errorf("%w: dial tcp: refused", auth.ErrSignInUnavailable), http.StatusBadGateway, "danger", ""},
		{"not found", fmt.Errorf("get barn: %w", repository.ErrNotFound), http.StatusNotFound, "warning", ""},
		{"validation", barns.Validate(models.BarnInput{}), http.StatusBadRequest, "warning", ""},
		{"duplicate", ErrDuplicateSubmit, http.StatusConflict, "warning", ""},
		{"backend", fmt.Errorf("list barns: %w", &supabase.APIError{Status: 500, Message: "boom"}), http.StatusBadGateway, "danger", ""},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "danger", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, nil, "Barn not found", tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Banner.Type != tt.wantType || body.Redirect != tt.wantRedirect {
				t.Errorf("banner = %+v, redirect = %q", body.Banner, body.Redirect)
			}
			if body.Banner.DismissAfterMS != 5000 {
				t.Errorf("dismiss_after_ms = %d", body.Banner.DismissAfterMS)
			}
		})
	}
}
