// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ecowander/ecoproof/internal/domain/model"
	"github.com/google/uuid"
)

// VerificationDependencies defines the interface for verification processing dependencies.
type VerificationDependencies interface {
	Enqueue(ctx context.Context, job model.Job) bool
	Result(ctx context.Context, id string) (model.VerificationResult, error)
}

// VerificationsHandler handles verification submissions and lookups.
type VerificationsHandler struct {
	deps VerificationDependencies
}

// NewVerificationsHandler creates a new verifications handler.
func NewVerificationsHandler(deps VerificationDependencies) *VerificationsHandler {
	return &VerificationsHandler{deps: deps}
}

// HandlePostVerification handles POST /verifications requests.
func (h *VerificationsHandler) HandlePostVerification(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_verification"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	job := model.Job{
		JobID:       uuid.NewString(),
		Request:     req.toModel(),
		SubmittedAt: time.Now().UTC(),
	}

	// Try to enqueue for async processing
	if ok := h.deps.Enqueue(r.Context(), job); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: job.JobID})
}

// HandleGetVerification handles GET /verifications/{id} requests.
func (h *VerificationsHandler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /verifications/
	path := strings.TrimPrefix(r.URL.Path, "/verifications/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	result, err := h.deps.Result(r.Context(), path)
	if err != nil {
		// Pending or unknown ids both surface as not found; the
		// submitter is expected to poll until the worker stores a result.
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
