package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned when a singleton lookup, update, or delete matched no row.
var ErrNotFound = errors.New("supabase: row not found")

// codeNoRows is PostgREST's error code for a singular response with zero rows.
const codeNoRows = "PGRST116"

// APIError is an error payload returned by PostgREST or GoTrue.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("supabase api error: status=%d", e.Status)
	if e.Code != "" {
		msg += ", code=" + e.Code
	}
	if e.Message != "" {
		msg += ", message=" + e.Message
	}
	if e.Details != "" {
		msg += ", details=" + e.Details
	}
	return msg
}

// Is lets errors.Is(err, ErrNotFound) match PostgREST's no-rows response.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Code == codeNoRows
}

// authErrorPayload covers both the legacy and the current GoTrue error shapes.
type authErrorPayload struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
}

func decodeAPIError(resp *resty.Response) error {
	apiErr := &APIError{Status: resp.StatusCode()}

	var payload authErrorPayload
	if err := json.Unmarshal(resp.Body(), &payload); err == nil {
		var code string
		if err := json.Unmarshal(payload.Code, &code); err == nil {
			apiErr.Code = code
		}
		if apiErr.Code == "" {
			apiErr.Code = firstNonEmpty(payload.ErrorCode, payload.Error)
		}
		apiErr.Message = firstNonEmpty(payload.Message, payload.Msg, payload.ErrorDescription)
		apiErr.Details = payload.Details
		apiErr.Hint = payload.Hint
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}

// IsStatus reports whether err is an APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
