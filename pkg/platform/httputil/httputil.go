package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "kitties/pkg/domain-errors"
)

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into a JSON error envelope. Internal
// errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := errorEnvelope{Error: string(code)}
	if code != dErrors.CodeInternal {
		body.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// Validatable is implemented by request bodies that normalize and check
// themselves after decoding.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes the body into T and validates it. On failure it
// writes the error response and returns ok=false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := PT(new(T))
	if err := DecodeJSON(r, req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request", "request_id", requestID, "error", err)
		}
		WriteError(w, err)
		return nil, false
	}
	if err := req.Validate(); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "invalid request", "request_id", requestID, "error", err)
		}
		WriteError(w, err)
		return nil, false
	}
	return (*T)(req), true
}
