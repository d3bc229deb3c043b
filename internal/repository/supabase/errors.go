package supabase

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mamadbah2/telurku/internal/repository"
	client "github.com/mamadbah2/telurku/pkg/clients/supabase"
)

// translate keeps the backend error in the chain and adds the repository
// sentinel for the failure classes callers branch on.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, client.ErrNotFound):
		return fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	case client.IsStatus(err, http.StatusUnauthorized), client.IsStatus(err, http.StatusForbidden):
		return fmt.Errorf("%w: %w", repository.ErrForbidden, err)
	default:
		return err
	}
}

// translateSignIn marks the backend's rejection of the credentials themselves.
// Transport failures and 5xx answers stay as they are.
func translateSignIn(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError &&
		apiErr.Status != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", repository.ErrInvalidCredentials, err)
	}
	return err
}
