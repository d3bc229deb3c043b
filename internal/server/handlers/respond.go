package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/repository"
	"github.com/mamadbah2/telurku/internal/service/auth"
	"github.com/mamadbah2/telurku/internal/service/barns"
	"github.com/mamadbah2/telurku/internal/service/feed"
	"github.com/mamadbah2/telurku/internal/service/reporting"
	"github.com/mamadbah2/telurku/internal/view"
	"github.com/mamadbah2/telurku/pkg/clients/supabase"
)

// ErrDuplicateSubmit is returned when a form is posted again before the
// previous submission finished.
var ErrDuplicateSubmit = errors.New("This form is already being submitted")

// Redirect targets understood by the frontend.
const (
	RedirectLogin     = "login"
	RedirectDashboard = "dashboard"
	RedirectBarns     = "barns"
	RedirectFeed      = "feed"
)

// redirectDelayMS is how long the frontend waits after a save before it navigates.
const redirectDelayMS = 1000

type errorResponse struct {
	Error    string      `json:"error"`
	Banner   view.Banner `json:"banner"`
	Redirect string      `json:"redirect,omitempty"`
}

type actionResponse struct {
	Banner          view.Banner `json:"banner"`
	Data            any         `json:"data,omitempty"`
	Redirect        string      `json:"redirect,omitempty"`
	RedirectAfterMS int         `json:"redirect_after_ms,omitempty"`
}

// respondError maps err onto a status code and banner. notFound is the
// message shown for a missing record.
func respondError(c *gin.Context, logger *zap.Logger, notFound string, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		status   int
		banner   view.Banner
		redirect string
	)

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		status = http.StatusUnauthorized
		banner = view.NewBanner(view.ColorWarning, "Please sign in to continue")
		redirect = RedirectLogin
	case errors.Is(err, auth.ErrForbidden):
		status = http.StatusForbidden
		banner = view.NewBanner(view.ColorDanger, auth.ErrForbidden.Error())
	case errors.Is(err, auth.ErrInvalidRole):
		status = http.StatusForbidden
		banner = view.NewBanner(view.ColorDanger, auth.ErrInvalidRole.Error())
	case errors.Is(err, auth.ErrRoleVerification):
		status = http.StatusBadGateway
		banner = view.NewBanner(view.ColorDanger, auth.ErrRoleVerification.Error())
	case errors.Is(err, auth.ErrSignInUnavailable):
		status = http.StatusBadGateway
		banner = view.NewBanner(view.ColorDanger, auth.ErrSignInUnavailable.Error())
		logger.Error("sign in failed", zap.Error(err))
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
		if notFound == "" {
			notFound = "Record not found"
		}
		banner = view.NewBanner(view.ColorWarning, notFound)
	case errors.Is(err, barns.ErrValidation), errors.Is(err, feed.ErrValidation):
		status = http.StatusBadRequest
		banner = view.NewBanner(view.ColorWarning, err.Error())
	case errors.Is(err, ErrDuplicateSubmit):
		status = http.StatusConflict
		banner = view.NewBanner(view.ColorWarning, ErrDuplicateSubmit.Error())
	case errors.Is(err, reporting.ErrExportDisabled), errors.Is(err, reporting.ErrArchiveDisabled):
		status = http.StatusServiceUnavailable
		banner = view.NewBanner(view.ColorWarning, err.Error())
	default:
		status = http.StatusInternalServerError
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) {
			status = http.StatusBadGateway
		}
		banner = view.NewBanner(view.ColorDanger, "Error: "+err.Error())
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	if status < http.StatusInternalServerError {
		logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}

	c.JSON(status, errorResponse{Error: err.Error(), Banner: banner, Redirect: redirect})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:  message,
		Banner: view.NewBanner(view.ColorWarning, message),
	})
}

func respondSaved(c *gin.Context, status int, message, redirect string, data any) {
	c.JSON(status, actionResponse{
		Banner:          view.NewBanner(view.ColorSuccess, message),
		Data:            data,
		Redirect:        redirect,
		RedirectAfterMS: redirectDelayMS,
	})
}
