// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies in the legal degree ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// VerificationRequest is one eco-action submission to verify.
type VerificationRequest struct {
	ImagePath        string            `json:"image_path"`
	Claimed          *Coordinate       `json:"claimed_location,omitempty"`
	ChallengeType    string            `json:"challenge_type"`
	UserID           string            `json:"user_id,omitempty"`
	ClaimedTimestamp *int64            `json:"claimed_ts,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// Validate checks the structural invariants of the request. The claimed
// location may be absent (the image may carry its own coordinate), but
// when present it must be in range.
func (r VerificationRequest) Validate() error {
	if strings.TrimSpace(r.ImagePath) == "" {
		return fmt.Errorf("%w: missing image path", ErrValidation)
	}
	if strings.TrimSpace(r.ChallengeType) == "" {
		return fmt.Errorf("%w: missing challenge type", ErrValidation)
	}
	if r.Claimed != nil && !r.Claimed.Valid() {
		return fmt.Errorf("%w: coordinate out of range (%.4f, %.4f)", ErrValidation, r.Claimed.Lat, r.Claimed.Lon)
	}
	return nil
}

// EcoLocation is one entry of the known-location registry. The registry
// is immutable reference data loaded at process start.
type EcoLocation struct {
	Name           string     `json:"name"`
	Coordinate     Coordinate `json:"coordinates"`
	RadiusMeters   float64    `json:"radius_meters"`
	ChallengeTypes []string   `json:"challenge_types"`
	Description    string     `json:"description,omitempty"`
}

// Supports reports whether the location hosts the given challenge type.
func (l EcoLocation) Supports(challenge string) bool {
	for _, c := range l.ChallengeTypes {
		if c == challenge {
			return true
		}
	}
	return false
}

// Classification is the image classifier's output for one request.
type Classification struct {
	PredictedClass string             `json:"predicted_class"`
	Confidence     float64            `json:"confidence"`
	ClassScores    map[string]float64 `json:"class_scores"`
	IsValid        bool               `json:"is_valid"`

	// Blossom-rule extras; zero unless the rule ran.
	PinkPixelRatio float64 `json:"pink_pixel_ratio,omitempty"`
	SeasonalValid  bool    `json:"seasonal_valid,omitempty"`
}

// LocationSource records which coordinate the location scorer used.
type LocationSource string

// Location sources.
const (
	SourceImage LocationSource = "image"
	SourceUser  LocationSource = "user"
)

// LocationResult is the location scorer's output for one request.
type LocationResult struct {
	Score          float64        `json:"score"`
	DistanceMeters float64        `json:"distance_meters"`
	Nearest        *EcoLocation   `json:"nearest_eco_location,omitempty"`
	Source         LocationSource `json:"location_source,omitempty"`
	TimestampValid bool           `json:"timestamp_valid"`
}

// ManipulationFlags captures the cheap image-manipulation heuristics.
type ManipulationFlags struct {
	HasTransparency       bool    `json:"has_transparency"`
	HasAlphaMeta          bool    `json:"has_alpha"`
	HasThumbnail          bool    `json:"has_thumbnails"`
	HasEditingSoftwareTag bool    `json:"has_editing_software_tags"`
	EdgeVariance          float64 `json:"edge_variance"`
	IsEdited              bool    `json:"is_edited"`
}

// FraudResult is the fraud scorer's output for one request.
type FraudResult struct {
	FraudScore   float64           `json:"fraud_score"`
	ImageHash    string            `json:"image_hash,omitempty"`
	IsDuplicate  bool              `json:"is_duplicate"`
	Manipulation ManipulationFlags `json:"manipulation_detected"`
}

// VerificationResult is the fused outcome of one verification call.
// It is immutable after construction and safe to share.
type VerificationResult struct {
	ID             string            `json:"id"`
	IsVerified     bool              `json:"is_verified"`
	OverallScore   float64           `json:"overall_score"`
	Classification Classification    `json:"photo_verification"`
	Location       LocationResult    `json:"location_verification"`
	Fraud          FraudResult       `json:"fraud_detection"`
	ChallengeType  string            `json:"challenge_type"`
	Degraded       map[string]string `json:"degraded,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

// Job is the queue payload for asynchronous verification.
type Job struct {
	JobID       string
	Request     VerificationRequest
	SubmittedAt time.Time
}

// Round4 rounds v to 4 decimal places; all float fields on results are
// rounded at construction so serialized output stays at 4-decimal
// precision.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
