// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/ecowander/ecoproof/internal/domain/model"
)

// LocationDependencies defines the interface for location registry reads.
type LocationDependencies interface {
	Locations(ctx context.Context, challenge string) []model.EcoLocation
}

// LocationsHandler handles eco-location registry requests.
type LocationsHandler struct {
	deps LocationDependencies
}

// NewLocationsHandler creates a new locations handler.
func NewLocationsHandler(deps LocationDependencies) *LocationsHandler {
	return &LocationsHandler{deps: deps}
}

type locationsResponse struct {
	Locations []model.EcoLocation `json:"locations"`
	Count     int                 `json:"count"`
}

// HandleGetLocations handles GET /locations requests. An optional
// "challenge" query parameter filters by supported challenge type.
func (h *LocationsHandler) HandleGetLocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	challenge := r.URL.Query().Get("challenge")
	locations := h.deps.Locations(r.Context(), challenge)
	if locations == nil {
		locations = []model.EcoLocation{}
	}
	writeJSON(w, http.StatusOK, locationsResponse{Locations: locations, Count: len(locations)})
}
