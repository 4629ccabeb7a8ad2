package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nazifamoh/artifyAI/internal/auth"
	"github.com/Nazifamoh/artifyAI/internal/handler/dto"
	"github.com/Nazifamoh/artifyAI/internal/metrics"
	"github.com/Nazifamoh/artifyAI/internal/transform"
	"github.com/Nazifamoh/artifyAI/internal/workflow"
)

// WorkflowHandler manages transformation editing sessions.
type WorkflowHandler struct {
	sessions *workflow.Manager
	gate     workflow.CreditGate
	saver    workflow.Saver
	cdnBase  string
	cdnCloud string
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// WorkflowHandlerConfig holds dependencies for the workflow handler.
type WorkflowHandlerConfig struct {
	Sessions *workflow.Manager
	Gate     workflow.CreditGate
	Saver    workflow.Saver
	CDNBase  string
	CDNCloud string
	Metrics  metrics.Recorder
	Logger   *slog.Logger
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(cfg WorkflowHandlerConfig) *WorkflowHandler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &WorkflowHandler{
		sessions: cfg.Sessions,
		gate:     cfg.Gate,
		saver:    cfg.Saver,
		cdnBase:  cfg.CDNBase,
		cdnCloud: cfg.CDNCloud,
		metrics:  recorder,
		logger:   cfg.Logger,
	}
}

// ListTransformations handles GET /api/v1/transformations.
func (h *WorkflowHandler) ListTransformations(w http.ResponseWriter, r *http.Request) {
	types := []transform.Type{
		transform.TypeRestore,
		transform.TypeRemoveBackground,
		transform.TypeFill,
		transform.TypeRemove,
		transform.TypeRecolor,
		transform.TypeGenerativeFill,
	}
	data := make([]dto.TransformationResponse, len(types))
	for i, t := range types {
		info := transform.InfoFor(t)
		data[i] = dto.TransformationResponse{
			Type:     t,
			Title:    info.Title,
			SubTitle: info.SubTitle,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// CreateSession handles POST /api/v1/transformations/{type}/sessions.
func (h *WorkflowHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	typ, err := transform.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "UNKNOWN_TYPE", "Unknown transformation type")
		return
	}

	var req dto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.PublicID) == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PUBLIC_ID", "Uploaded asset public ID is required")
		return
	}

	session, err := h.sessions.Create(user.ID, typ, workflow.Source{
		PublicID:  req.PublicID,
		SecureURL: req.SecureURL,
		Title:     req.Title,
		Width:     req.Width,
		Height:    req.Height,
	})
	if err != nil {
		h.handleWorkflowError(w, err)
		return
	}

	h.logger.Info("workflow_session_created",
		"session_id", session.ID,
		"user_id", user.ID,
		"type", string(typ),
	)

	writeJSON(w, http.StatusCreated, dto.ToSessionResponse(session.Snapshot()))
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *WorkflowHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dto.ToSessionResponse(session.Snapshot()))
}

// Edit handles POST /api/v1/sessions/{id}/edits. The edit settles after
// its quiet window; the response reflects the session, not the settled
// value.
func (h *WorkflowHandler) Edit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req dto.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := session.Edit(req.Field, req.Value); err != nil {
		h.handleWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.ToSessionResponse(session.Snapshot()))
}

// Apply handles POST /api/v1/sessions/{id}/apply. One credit is charged
// per apply regardless of how many fields changed.
func (h *WorkflowHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	start := time.Now()
	snap, err := session.Apply(r.Context(), h.gate, h.cdnBase, h.cdnCloud)
	if err != nil {
		h.handleWorkflowError(w, err)
		return
	}
	h.metrics.ObserveApplyDuration(time.Since(start))
	h.metrics.IncTransformationApplied(string(session.Type()))

	h.logger.Info("transformation_applied",
		"session_id", session.ID,
		"user_id", user.ID,
		"type", string(session.Type()),
		"applies", snap.Applies,
	)

	writeJSON(w, http.StatusOK, dto.ToSessionResponse(snap))
}

// Save handles POST /api/v1/sessions/{id}/save.
func (h *WorkflowHandler) Save(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	imageID, err := session.Save(r.Context(), h.saver)
	if err != nil {
		h.handleWorkflowError(w, err)
		return
	}

	h.logger.Info("transformation_saved",
		"session_id", session.ID,
		"user_id", user.ID,
		"image_id", imageID,
	)

	writeJSON(w, http.StatusCreated, dto.SaveResponse{ImageID: imageID})
}

// Discard handles DELETE /api/v1/sessions/{id}. Credits already charged
// for applied batches stay charged.
func (h *WorkflowHandler) Discard(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if err := h.sessions.Discard(id, user.ID); err != nil {
		h.handleWorkflowError(w, err)
		return
	}

	h.logger.Info("workflow_session_discarded", "session_id", id, "user_id", user.ID)

	w.WriteHeader(http.StatusNoContent)
}

// lookup fetches the caller's session or writes the error response.
func (h *WorkflowHandler) lookup(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	user := auth.MustUserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Session ID is required")
		return nil, false
	}

	session, err := h.sessions.Get(id, user.ID)
	if err != nil {
		h.handleWorkflowError(w, err)
		return nil, false
	}
	return session, true
}

// handleWorkflowError maps workflow errors to HTTP responses.
func (h *WorkflowHandler) handleWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	case errors.Is(err, workflow.ErrInsufficientCredits):
		h.metrics.IncApplyRejected("insufficient_credits")
		writeError(w, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS", "Not enough credits for this transformation")
	case errors.Is(err, workflow.ErrOperationInFlight):
		h.metrics.IncApplyRejected("in_flight")
		writeError(w, http.StatusConflict, "OPERATION_IN_FLIGHT", "Another operation is already running")
	case errors.Is(err, workflow.ErrNothingToApply):
		h.metrics.IncApplyRejected("nothing_to_apply")
		writeError(w, http.StatusUnprocessableEntity, "NOTHING_TO_APPLY", "No pending edits to apply")
	case errors.Is(err, workflow.ErrNotApplied):
		writeError(w, http.StatusUnprocessableEntity, "NOT_APPLIED", "Apply the transformation before saving")
	case errors.Is(err, workflow.ErrAlreadySaved):
		writeError(w, http.StatusConflict, "ALREADY_SAVED", "Session already saved")
	case errors.Is(err, transform.ErrUnknownType):
		writeError(w, http.StatusBadRequest, "UNKNOWN_TYPE", "Unknown transformation type")
	case errors.Is(err, transform.ErrUnknownField):
		writeError(w, http.StatusBadRequest, "UNKNOWN_FIELD", "Field is not editable for this transformation type")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
