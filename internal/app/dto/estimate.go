package dto

import (
	"time"

	"bmrengine/internal/domain/bmr"
	"bmrengine/internal/domain/estimates"
)

// Profile is the wire form of bmr.Profile.
type Profile struct {
	WeightKg          float64  `json:"weight_kg"`
	HeightCm          float64  `json:"height_cm"`
	Age               int      `json:"age"`
	Gender            string   `json:"gender"`
	BodyFatPercentage *float64 `json:"body_fat_percentage,omitempty"`
}

// ToDomain parses the gender and copies the remaining fields. Range checks
// are left to the engine.
func (p Profile) ToDomain() (bmr.Profile, error) {
	gender, err := bmr.ParseGender(p.Gender)
	if err != nil {
		return bmr.Profile{}, err
	}
	out := bmr.Profile{
		WeightKg: p.WeightKg,
		HeightCm: p.HeightCm,
		Age:      p.Age,
		Gender:   gender,
	}
	if p.BodyFatPercentage != nil {
		out.BodyFatPercentage = bmr.BodyFat(*p.BodyFatPercentage)
	}
	return out, nil
}

func MapProfile(p bmr.Profile) Profile {
	out := Profile{
		WeightKg: p.WeightKg,
		HeightCm: p.HeightCm,
		Age:      p.Age,
		Gender:   string(p.Gender),
	}
	if p.BodyFatPercentage != nil {
		v := *p.BodyFatPercentage
		out.BodyFatPercentage = &v
	}
	return out
}

type EstimateRequest struct {
	SubjectID string  `json:"subject_id,omitempty"`
	Method    string  `json:"method,omitempty"`
	Profile   Profile `json:"profile"`
}

type Estimate struct {
	BMR              float64            `json:"bmr"`
	Method           string             `json:"method"`
	Confidence       float64            `json:"confidence"`
	Components       map[string]float64 `json:"components"`
	BodyFatEstimated bool               `json:"body_fat_estimated"`
	Weights          map[string]float64 `json:"weights,omitempty"`
	Constituents     []Estimate         `json:"constituents,omitempty"`
	Metadata         *EstimateMetadata  `json:"metadata,omitempty"`
}

// EstimateMetadata is filled in by the layers around the engine.
type EstimateMetadata struct {
	CalculationTimeMs float64   `json:"calculation_time_ms"`
	Timestamp         time.Time `json:"timestamp"`
	RecordID          string    `json:"record_id,omitempty"`
	RequestID         string    `json:"request_id,omitempty"`
	Experiment        string    `json:"experiment,omitempty"`
	Cached            bool      `json:"cached,omitempty"`
}

// Meta returns a writable copy of the metadata so callers never share it.
func (e *Estimate) Meta() *EstimateMetadata {
	if e.Metadata == nil {
		e.Metadata = &EstimateMetadata{}
	} else {
		cp := *e.Metadata
		e.Metadata = &cp
	}
	return e.Metadata
}

func MapEstimate(res bmr.EstimateResult) Estimate {
	out := Estimate{
		BMR:              res.BMR,
		Method:           string(res.Method),
		Confidence:       res.Confidence,
		Components:       make(map[string]float64, len(res.Components)),
		BodyFatEstimated: res.BodyFatEstimated,
	}
	for k, v := range res.Components {
		out.Components[k] = v
	}
	if len(res.Weights) > 0 {
		out.Weights = make(map[string]float64, len(res.Weights))
		for m, w := range res.Weights {
			out.Weights[string(m)] = w
		}
	}
	for _, c := range res.Constituents {
		out.Constituents = append(out.Constituents, MapEstimate(c))
	}
	return out
}

// ToDomain rebuilds the engine result, used when reading persisted history.
func (e Estimate) ToDomain() bmr.EstimateResult {
	out := bmr.EstimateResult{
		BMR:              e.BMR,
		Method:           bmr.Method(e.Method),
		Confidence:       e.Confidence,
		Components:       make(map[string]float64, len(e.Components)),
		BodyFatEstimated: e.BodyFatEstimated,
	}
	for k, v := range e.Components {
		out.Components[k] = v
	}
	if len(e.Weights) > 0 {
		out.Weights = make(map[bmr.Method]float64, len(e.Weights))
		for m, w := range e.Weights {
			out.Weights[bmr.Method(m)] = w
		}
	}
	for _, c := range e.Constituents {
		out.Constituents = append(out.Constituents, c.ToDomain())
	}
	return out
}

type MethodInfo struct {
	Name            string   `json:"name"`
	BaseConfidence  *float64 `json:"base_confidence,omitempty"`
	RequiresBodyFat bool     `json:"requires_body_fat"`
	Description     string   `json:"description"`
}

type MethodCatalog struct {
	Default string       `json:"default"`
	Items   []MethodInfo `json:"items"`
}

type HistoryEntry struct {
	ID         string    `json:"id"`
	SubjectID  string    `json:"subject_id"`
	Method     string    `json:"method"`
	Profile    Profile   `json:"profile"`
	Result     Estimate  `json:"result"`
	Experiment string    `json:"experiment,omitempty"`
	Cached     bool      `json:"cached"`
	CreatedAt  time.Time `json:"created_at"`
}

type History struct {
	SubjectID string         `json:"subject_id"`
	Items     []HistoryEntry `json:"items"`
}

func MapHistory(subjectID string, records []estimates.Record) History {
	out := History{SubjectID: subjectID, Items: make([]HistoryEntry, 0, len(records))}
	for _, rec := range records {
		out.Items = append(out.Items, HistoryEntry{
			ID:         string(rec.ID),
			SubjectID:  rec.SubjectID,
			Method:     string(rec.Method),
			Profile:    MapProfile(rec.Profile),
			Result:     MapEstimate(rec.Result),
			Experiment: rec.Experiment,
			Cached:     rec.Cached,
			CreatedAt:  rec.CreatedAt,
		})
	}
	return out
}
