package bridge

import (
	"errors"
	"fmt"
	"strings"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/domain/bmr"
)

const (
	ActionCalculateBMR = "calculate_bmr"
	ActionHealthCheck  = "health_check"
	ActionListMethods  = "list_methods"
	ActionGetMetrics   = "get_metrics"
	ActionGetHistory   = "get_history"
)

var (
	ErrMissingAction  = errors.New("bridge: action is required")
	ErrMissingProfile = errors.New("bridge: profile is required")
)

// Command is one line of the protocol in its current shape.
type Command struct {
	Action    string       `json:"action"`
	SubjectID string       `json:"subject_id,omitempty"`
	Method    string       `json:"method,omitempty"`
	Profile   *dto.Profile `json:"profile,omitempty"`
	Limit     int          `json:"limit,omitempty"`

	// legacy marks commands built from the flat shape so replies keep the
	// old {"success", "result"} layout.
	legacy bool
}

// LegacyRequest is the flat request shape older clients still send.
type LegacyRequest struct {
	Operation         string   `json:"operation"`
	WeightKg          *float64 `json:"weight_kg"`
	HeightCm          *float64 `json:"height_cm"`
	Age               *int     `json:"age"`
	Gender            string   `json:"gender"`
	BodyFatPercentage *float64 `json:"body_fat_percentage"`
	Method            string   `json:"method"`
}

// legacyDefaultMethod is what flat calculate_bmr requests used when no
// method was named.
const legacyDefaultMethod = string(bmr.MethodAdaptiveEnsemble)

// FromLegacy translates a flat request into a Command. Missing profile
// fields are reported by name instead of being defaulted.
func FromLegacy(req LegacyRequest) (Command, error) {
	op := strings.TrimSpace(req.Operation)
	cmd := Command{Action: op, Method: strings.TrimSpace(req.Method), legacy: true}
	if op != ActionCalculateBMR {
		return cmd, nil
	}
	var missing []string
	if req.WeightKg == nil {
		missing = append(missing, "weight_kg")
	}
	if req.HeightCm == nil {
		missing = append(missing, "height_cm")
	}
	if req.Age == nil {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(req.Gender) == "" {
		missing = append(missing, "gender")
	}
	if len(missing) > 0 {
		return Command{}, fmt.Errorf("bridge: legacy request missing %s", strings.Join(missing, ", "))
	}
	cmd.Profile = &dto.Profile{
		WeightKg:          *req.WeightKg,
		HeightCm:          *req.HeightCm,
		Age:               *req.Age,
		Gender:            req.Gender,
		BodyFatPercentage: req.BodyFatPercentage,
	}
	if cmd.Method == "" {
		cmd.Method = legacyDefaultMethod
	}
	return cmd, nil
}
