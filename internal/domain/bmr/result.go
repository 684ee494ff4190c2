package bmr

import "math"

// Method names a formula or the ensemble that produced an estimate.
type Method string

const (
	MethodMifflinStJeor    Method = "mifflin_st_jeor"
	MethodHarrisBenedict   Method = "harris_benedict"
	MethodKatchMcArdle     Method = "katch_mcardle"
	MethodAdaptiveEnsemble Method = "adaptive_ensemble"
)

// EstimateResult is the output of a single estimate call.
//
// Components maps named sub-terms to their contribution in kcal/day (or the
// input they were derived from, such as lean_body_mass). For the ensemble,
// Components holds each constituent's weighted contribution, Weights the
// weights applied and Constituents the full per-formula results.
type EstimateResult struct {
	BMR              float64
	Method           Method
	Confidence       float64
	Components       map[string]float64
	BodyFatEstimated bool
	Weights          map[Method]float64
	Constituents     []EstimateResult
}

// Constituent returns the constituent result produced by method, if present.
func (r EstimateResult) Constituent(method Method) (EstimateResult, bool) {
	for _, c := range r.Constituents {
		if c.Method == method {
			return c, true
		}
	}
	return EstimateResult{}, false
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func checkFinite(method Method, p Profile, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) {
			return &ComputationError{Method: method, Profile: p, Detail: "NaN"}
		}
		if math.IsInf(v, 0) {
			return &ComputationError{Method: method, Profile: p, Detail: "infinite value"}
		}
	}
	return nil
}
