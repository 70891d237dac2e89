package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"thingapi/internal/information/models"
	dErrors "thingapi/pkg/domain-errors"
	"thingapi/pkg/platform/httputil"
	"thingapi/pkg/requestcontext"
)

// Messages returned in the envelope. Clients match on these strings.
const (
	msgMissingInformation = "You must send information to save."
	msgSaveFailed         = "Error saving information"
	msgNotFound           = "Could not find that information"
	msgGroupNotFound      = "Could not find that group"
	msgListFailed         = "Could not find information"
	msgLocationFailed     = "Error finding location"
	msgUpdateNotFound     = "Could not find that information to update"
	msgUpdateFailed       = "Error updating person"
	msgDeleteNotFound     = "Could not find that information to delete"
	msgDeleted            = "Successfully deleted id %s"
)

// Service defines the information operations used by the HTTP layer.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.Information, error)
	Get(ctx context.Context, id string) (*models.Information, error)
	ListByGroup(ctx context.Context, group string) ([]*models.Information, error)
	ListAll(ctx context.Context) ([]*models.Information, error)
	UpdateLocation(ctx context.Context, id string, req *models.UpdateRequest) (*models.Information, error)
	Remove(ctx context.Context, id string) (*models.Information, error)
}

// Handler serves the information endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new information Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the information routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/thing", h.handleCreate)
	r.Get("/api/thing", h.handleListAll)
	r.Get("/api/thing/group/{id}", h.handleListByGroup)
	r.Get("/api/thing/{id}", h.handleGet)
	r.Delete("/api/thing/{id}", h.handleRemove)
	r.Put("/api/{id}", h.handleUpdate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid create request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, errorEnvelope(msgMissingInformation))
		return
	}

	info, err := h.service.Create(ctx, &req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.WarnContext(ctx, "invalid create request",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteJSON(w, http.StatusBadRequest, errorEnvelope(msgMissingInformation))
			return
		}
		h.logger.ErrorContext(ctx, "failed to save information",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgSaveFailed))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Information: toResponse(info)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	info, err := h.service.Get(ctx, id)
	if err != nil {
		h.logFailure(ctx, "failed to get information", err, "id", id)
		httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgNotFound))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Information: toResponse(info)})
}

// handleListByGroup reads the group from the query string and falls back to
// the path segment when the query parameter is absent.
func (h *Handler) handleListByGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	group := chi.URLParam(r, "id")
	if query := r.URL.Query(); query.Has("group") {
		group = query.Get("group")
	}

	infos, err := h.service.ListByGroup(ctx, group)
	if err != nil {
		h.logFailure(ctx, "failed to list group", err, "group", group)
		httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgGroupNotFound))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Information: toResponses(infos)})
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	infos, err := h.service.ListAll(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list information", err)
		httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgListFailed))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Information: toResponses(infos)})
}

// handleUpdate geocodes the submitted location onto the record. A body that
// cannot be decoded has no location to resolve.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req models.UpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
		h.logger.WarnContext(ctx, "invalid update request",
			"request_id", requestcontext.RequestID(ctx),
			"id", id,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgLocationFailed))
		return
	}

	info, err := h.service.UpdateLocation(ctx, id, &req)
	if err != nil {
		h.logFailure(ctx, "failed to update information", err, "id", id)
		switch {
		case dErrors.Is(err, dErrors.CodeGeocode):
			httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgLocationFailed))
		case dErrors.Is(err, dErrors.CodeNotFound):
			httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgUpdateNotFound))
		default:
			httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgUpdateFailed))
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Person: toResponse(info)})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if _, err := h.service.Remove(ctx, id); err != nil {
		h.logFailure(ctx, "failed to delete information", err, "id", id)
		httputil.WriteJSON(w, http.StatusOK, errorEnvelope(msgDeleteNotFound))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Message: fmt.Sprintf(msgDeleted, id)})
}

// logFailure logs not-found and geocode misses at warn, everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
	switch dErrors.CodeOf(err) {
	case dErrors.CodeNotFound, dErrors.CodeGeocode, dErrors.CodeValidation:
		h.logger.WarnContext(ctx, msg, attrs...)
	default:
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
}
