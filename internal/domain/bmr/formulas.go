package bmr

// Formula computes an estimate from a profile. Implementations are pure.
type Formula func(p Profile) (EstimateResult, error)

const (
	mifflinMaleAdjustment   = 5.0
	mifflinFemaleAdjustment = -161.0

	katchBaseConstant = 370.0
	katchLBMFactor    = 21.6
)

type harrisCoefficients struct {
	base, weight, height, age float64
}

var (
	harrisMale   = harrisCoefficients{base: 88.362, weight: 13.397, height: 4.799, age: 5.677}
	harrisFemale = harrisCoefficients{base: 447.593, weight: 9.247, height: 3.098, age: 4.330}
)

// MifflinStJeor implements 10w + 6.25h - 5a + (5 | -161).
func MifflinStJeor(p Profile) (EstimateResult, error) {
	if err := p.Validate(); err != nil {
		return EstimateResult{}, err
	}
	weight := 10 * p.WeightKg
	height := 6.25 * p.HeightCm
	age := -5 * float64(p.Age)
	base := weight + height + age
	adjustment := mifflinFemaleAdjustment
	if p.IsMale() {
		adjustment = mifflinMaleAdjustment
	}
	bmr := base + adjustment
	if err := checkFinite(MethodMifflinStJeor, p, base, bmr); err != nil {
		return EstimateResult{}, err
	}
	return EstimateResult{
		BMR:        round1(bmr),
		Method:     MethodMifflinStJeor,
		Confidence: Confidence(MethodMifflinStJeor, p),
		Components: map[string]float64{
			"base":              round1(base),
			"gender_adjustment": adjustment,
			"weight_component":  round1(weight),
			"height_component":  round1(height),
			"age_component":     round1(age),
		},
	}, nil
}

// HarrisBenedict implements the revised (Roza-Shizgal) Harris-Benedict equation.
func HarrisBenedict(p Profile) (EstimateResult, error) {
	if err := p.Validate(); err != nil {
		return EstimateResult{}, err
	}
	k := harrisFemale
	if p.IsMale() {
		k = harrisMale
	}
	weight := k.weight * p.WeightKg
	height := k.height * p.HeightCm
	age := -k.age * float64(p.Age)
	bmr := k.base + weight + height + age
	if err := checkFinite(MethodHarrisBenedict, p, bmr); err != nil {
		return EstimateResult{}, err
	}
	return EstimateResult{
		BMR:        round1(bmr),
		Method:     MethodHarrisBenedict,
		Confidence: Confidence(MethodHarrisBenedict, p),
		Components: map[string]float64{
			"base_constant":    k.base,
			"weight_component": round1(weight),
			"height_component": round1(height),
			"age_component":    round1(age),
		},
	}, nil
}

// KatchMcArdle implements 370 + 21.6 * lean body mass. Without a supplied
// body fat percentage the value comes from EstimateBodyFat and the result is
// flagged BodyFatEstimated.
func KatchMcArdle(p Profile) (EstimateResult, error) {
	if err := p.Validate(); err != nil {
		return EstimateResult{}, err
	}
	estimated := !p.HasBodyFat()
	var bodyFat float64
	if estimated {
		bodyFat = EstimateBodyFat(p)
	} else {
		bodyFat = *p.BodyFatPercentage
	}
	lbm := p.WeightKg * (1 - bodyFat/100)
	lbmComponent := katchLBMFactor * lbm
	bmr := katchBaseConstant + lbmComponent
	if err := checkFinite(MethodKatchMcArdle, p, lbm, bmr); err != nil {
		return EstimateResult{}, err
	}
	return EstimateResult{
		BMR:              round1(bmr),
		Method:           MethodKatchMcArdle,
		Confidence:       Confidence(MethodKatchMcArdle, p),
		BodyFatEstimated: estimated,
		Components: map[string]float64{
			"base_constant":  katchBaseConstant,
			"lean_body_mass": round1(lbm),
			"lbm_component":  round1(lbmComponent),
			"body_fat_used":  round1(bodyFat),
		},
	}, nil
}

// EstimateBodyFat approximates body fat from BMI and age (Deurenberg style),
// clamped to [5, 50]. It is a heuristic, not a measurement.
func EstimateBodyFat(p Profile) float64 {
	offset := 5.4
	if p.IsMale() {
		offset = 16.2
	}
	bf := 1.20*p.BMI() + 0.23*float64(p.Age) - offset
	switch {
	case bf < 5:
		return 5
	case bf > 50:
		return 50
	default:
		return bf
	}
}
