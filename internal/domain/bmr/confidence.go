package bmr

import "math"

const (
	// MaxConfidence keeps every estimate short of certainty.
	MaxConfidence = 0.99

	youngAge = 18
	oldAge   = 65

	ageFactor        = 0.90
	bmiFactor        = 0.92
	extremeBMIFactor = 0.80
	bodyFatBonus     = 1.05
	ensembleBonus    = 0.05
)

var baseConfidence = map[Method]float64{
	MethodMifflinStJeor:  0.95,
	MethodHarrisBenedict: 0.90,
	MethodKatchMcArdle:   0.93,
}

// BaseConfidence returns the unadjusted confidence of a single formula.
func BaseConfidence(method Method) (float64, bool) {
	c, ok := baseConfidence[method]
	return c, ok
}

// Confidence scores how far a formula can be trusted for the given profile.
// Adjustments are multiplicative: age outside [18, 65], BMI outside
// [18.5, 30] with a further penalty outside [16, 35], and a bonus for
// Katch-McArdle when body fat was measured rather than estimated.
func Confidence(method Method, p Profile) float64 {
	c, ok := baseConfidence[method]
	if !ok {
		return 0
	}
	if p.Age < youngAge || p.Age > oldAge {
		c *= ageFactor
	}
	bmi := p.BMI()
	if bmi < 18.5 || bmi > 30 {
		c *= bmiFactor
	}
	if bmi < 16 || bmi > 35 {
		c *= extremeBMIFactor
	}
	if method == MethodKatchMcArdle && p.HasBodyFat() {
		c *= bodyFatBonus
	}
	return clampConfidence(c)
}

func clampConfidence(c float64) float64 {
	return round3(math.Max(0, math.Min(MaxConfidence, c)))
}
