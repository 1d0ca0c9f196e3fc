package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Zhima-Mochi/storefront/internal/application"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

type envelope struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message,omitempty"`
	Data    any                      `json:"data,omitempty"`
	Errors  []application.FieldError `json:"errors,omitempty"`
}

// decodeJSON reads exactly one JSON object into dst and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadBody)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

// writeError maps an application error to its status code and envelope. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), observability.NopLogger()).Error("http_request_failed",
			observability.F("status", status),
			observability.F("error", err),
		)
	}
	writeJSON(w, status, body)
}

func errorResponse(err error) (int, envelope) {
	var (
		verr    *application.ValidationError
		itemErr *application.ItemError
		adErr   *application.AdapterError
	)
	switch {
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, envelope{Message: errBadBody.Error()}
	case errors.As(err, &verr):
		return http.StatusBadRequest, envelope{Message: "validation failed", Errors: verr.Fields}
	case errors.As(err, &itemErr):
		status := http.StatusBadRequest
		if errors.Is(itemErr, application.ErrNotFound) {
			status = http.StatusNotFound
		}
		return status, envelope{
			Message: itemErr.Error(),
			Errors:  []application.FieldError{{Field: "items", Message: itemErr.Error()}},
		}
	case errors.Is(err, application.ErrUnauthenticated):
		return http.StatusUnauthorized, envelope{Message: application.ErrUnauthenticated.Error()}
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, envelope{Message: application.ErrForbidden.Error()}
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, envelope{Message: application.ErrNotFound.Error()}
	case errors.Is(err, application.ErrInvalidTransition), errors.Is(err, application.ErrConflict):
		return http.StatusConflict, envelope{Message: err.Error()}
	case errors.As(err, &adErr):
		if adErr.Adapter == "payment" {
			return http.StatusPaymentRequired, envelope{Message: adErr.Error()}
		}
		return http.StatusBadGateway, envelope{Message: adErr.Error()}
	default:
		return http.StatusInternalServerError, envelope{Message: "internal server error"}
	}
}

// queryInt parses an optional integer query parameter; absent means zero.
func queryInt(r *http.Request, key string, verr *application.ValidationError) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		verr.Add(key, "must be an integer")
		return 0
	}
	return n
}
