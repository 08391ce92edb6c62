// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ecowander/ecoproof/internal/adapters/repository"
	"github.com/ecowander/ecoproof/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Enqueue pushes a verification job for async processing.
	// Returns false on backpressure.
	Enqueue(ctx context.Context, job model.Job) bool

	// Result returns the verification result for a job id.
	Result(ctx context.Context, id string) (model.VerificationResult, error)

	// Locations lists the known eco-locations, optionally filtered by
	// challenge type.
	Locations(ctx context.Context, challenge string) []model.EcoLocation
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	verificationsHandler *VerificationsHandler
	locationsHandler     *LocationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		verificationsHandler: NewVerificationsHandler(deps),
		locationsHandler:     NewLocationsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/locations", MetricsMiddleware(s.locationsHandler.HandleGetLocations, "locations"))
	mux.HandleFunc("/verifications", MetricsMiddleware(s.verificationsHandler.HandlePostVerification, "verifications"))
	mux.HandleFunc("/verifications/", MetricsMiddleware(s.verificationsHandler.HandleGetVerification, "verification_result"))
}

// verificationRequest mirrors the public schema for POST /verifications.
type verificationRequest struct {
	ImagePath       string            `json:"image_path"`
	ChallengeType   string            `json:"challenge_type"`
	UserID          string            `json:"user_id"`
	ClaimedLocation *model.Coordinate `json:"claimed_location,omitempty"`
	ClaimedTS       *int64            `json:"claimed_ts,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

func (v verificationRequest) validate() error {
	switch {
	case strings.TrimSpace(v.ImagePath) == "":
		return errors.New("missing image_path")
	case strings.TrimSpace(v.ChallengeType) == "":
		return errors.New("missing challenge_type")
	}
	if v.ClaimedLocation != nil && !v.ClaimedLocation.Valid() {
		return errors.New("claimed_location out of range")
	}
	return nil
}

func (v verificationRequest) toModel() model.VerificationRequest {
	return model.VerificationRequest{
		ImagePath:        v.ImagePath,
		Claimed:          v.ClaimedLocation,
		ChallengeType:    v.ChallengeType,
		UserID:           v.UserID,
		ClaimedTimestamp: v.ClaimedTS,
		Metadata:         v.Metadata,
	}
}

type ackResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
