package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kitties/internal/kitty/models"
	id "kitties/pkg/domain"
	dErrors "kitties/pkg/domain-errors"
	"kitties/pkg/platform/httputil"
	"kitties/pkg/requestcontext"
)

// Service defines the registry operations exposed over HTTP.
type Service interface {
	CreateKitty(ctx context.Context, owner id.AccountID, raw []byte) (*models.Kitty, error)
	DebugLog(ctx context.Context, message string)
	HashCode() uint64
}

// Handler wires kitty endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts kitty endpoints on the router. Callers must be
// authenticated by middleware upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/kitties", h.HandleCreateKitty)
	r.Post("/debug/log", h.HandleDebugLog)
}

// HandleCreateKitty handles POST /kitties.
func (h *Handler) HandleCreateKitty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, ok := httputil.DecodeAndPrepare[CreateKittyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	kitty, err := h.service.CreateKitty(ctx, req.ParsedOwner(), req.ParsedDNA())
	if err != nil {
		writeKittyError(w, err)
		return
	}

	resp, err := FromKitty(kitty, h.service.HashCode())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to render kitty",
			"request_id", requestID,
			"dna", kitty.DNA.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render kitty"))
		return
	}

	h.logger.InfoContext(ctx, "kitty create request served",
		"request_id", requestID,
		"dna", kitty.DNA.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// HandleDebugLog handles POST /debug/log.
func (h *Handler) HandleDebugLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	req, ok := httputil.DecodeAndPrepare[DebugLogRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	h.service.DebugLog(ctx, req.Message)
	w.WriteHeader(http.StatusNoContent)
}

// writeKittyError reports registry failures by their reason
// (e.g. "duplicate_kitty") instead of the generic code.
func writeKittyError(w http.ResponseWriter, err error) {
	var kerr *models.Error
	code := dErrors.CodeOf(err)
	if !errors.As(err, &kerr) || code == dErrors.CodeInternal {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorResponse{
		Error:            string(kerr.Reason),
		ErrorDescription: dErrors.MessageOf(err),
	})
}
