package estimate

import (
	"context"
	"strconv"
	"strings"
	"time"

	"bmrengine/internal/app/dto"
	"bmrengine/internal/app/queries"
	"bmrengine/internal/domain/bmr"
)

const estimateKey = "bmr.estimate"

// EstimateQuery asks the engine for one estimate. Method may be empty when a
// method selection middleware sits in front of the handler.
type EstimateQuery struct {
	SubjectID string
	Profile   bmr.Profile
	Method    string
}

func (q EstimateQuery) Key() string { return estimateKey }

func (q EstimateQuery) Subject() string { return q.SubjectID }

func (q EstimateQuery) MethodName() string { return strings.TrimSpace(q.Method) }

func (q EstimateQuery) BodyProfile() bmr.Profile { return q.Profile }

func (q EstimateQuery) WithMethod(method string) queries.Query {
	q.Method = method
	return q
}

// CacheKey identifies the profile+method pair; the subject is not part of it.
func (q EstimateQuery) CacheKey() string {
	bf := "-"
	if q.Profile.BodyFatPercentage != nil {
		bf = formatFloat(*q.Profile.BodyFatPercentage)
	}
	return strings.Join([]string{
		"bmr", "v1",
		q.MethodName(),
		formatFloat(q.Profile.WeightKg),
		formatFloat(q.Profile.HeightCm),
		strconv.Itoa(q.Profile.Age),
		string(q.Profile.Gender),
		bf,
	}, ":")
}

func (q EstimateQuery) ResultPrototype() any { return &dto.Estimate{} }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EstimateHandler runs the engine and stamps timing metadata on the result.
type EstimateHandler struct {
	Registry *bmr.Registry
	Now      func() time.Time
}

func (h *EstimateHandler) Handle(ctx context.Context, q EstimateQuery) (dto.Estimate, error) {
	if h.Registry == nil {
		return dto.Estimate{}, ErrRegistryMissing
	}
	now := h.now()
	started := time.Now()
	res, err := h.Registry.Estimate(q.Profile, q.Method)
	if err != nil {
		return dto.Estimate{}, err
	}
	out := dto.MapEstimate(res)
	meta := out.Meta()
	meta.CalculationTimeMs = float64(time.Since(started).Microseconds()) / 1000
	meta.Timestamp = now.UTC()
	return out, nil
}

func (h *EstimateHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ queries.Handler[EstimateQuery, dto.Estimate] = (*EstimateHandler)(nil)
