package bmr

const katchEnsembleShare = 0.3

type ensembleMember struct {
	method Method
	fn     Formula
}

// EnsembleWeights returns the static Mifflin/Harris weighting for a profile.
// Normal BMI favours Mifflin-St Jeor, obesity moves weight toward
// Harris-Benedict, and ages over 60 shift a further 0.05 toward Harris.
func EnsembleWeights(p Profile) map[Method]float64 {
	mifflin, harris := 0.6, 0.4
	bmi := p.BMI()
	switch {
	case bmi >= 18.5 && bmi <= 25:
		mifflin, harris = 0.7, 0.3
	case bmi > 30:
		mifflin, harris = 0.55, 0.45
	}
	if p.Age > 60 {
		mifflin -= 0.05
		harris += 0.05
	}
	weights := map[Method]float64{
		MethodMifflinStJeor:  round2(mifflin),
		MethodHarrisBenedict: round2(harris),
	}
	if p.HasBodyFat() {
		for m, w := range weights {
			weights[m] = w * (1 - katchEnsembleShare)
		}
		weights[MethodKatchMcArdle] = katchEnsembleShare
	}
	return weights
}

// AdaptiveEnsemble combines Mifflin-St Jeor and Harris-Benedict (plus
// Katch-McArdle when body fat was supplied) as a weighted sum.
func AdaptiveEnsemble(p Profile) (EstimateResult, error) {
	if err := p.Validate(); err != nil {
		return EstimateResult{}, err
	}
	formulas := []ensembleMember{
		{MethodMifflinStJeor, MifflinStJeor},
		{MethodHarrisBenedict, HarrisBenedict},
	}
	if p.HasBodyFat() {
		formulas = append(formulas, ensembleMember{MethodKatchMcArdle, KatchMcArdle})
	}

	weights := EnsembleWeights(p)
	constituents := make([]EstimateResult, 0, len(formulas))
	components := make(map[string]float64, len(formulas))
	var bmr, confidenceSum float64
	for _, f := range formulas {
		res, err := f.fn(p)
		if err != nil {
			return EstimateResult{}, err
		}
		contribution := weights[f.method] * res.BMR
		bmr += contribution
		confidenceSum += res.Confidence
		components[string(f.method)] = round1(contribution)
		constituents = append(constituents, res)
	}
	if err := checkFinite(MethodAdaptiveEnsemble, p, bmr); err != nil {
		return EstimateResult{}, err
	}

	mean := confidenceSum / float64(len(constituents))
	return EstimateResult{
		BMR:          round1(bmr),
		Method:       MethodAdaptiveEnsemble,
		Confidence:   clampConfidence(mean + ensembleBonus),
		Components:   components,
		Weights:      weights,
		Constituents: constituents,
	}, nil
}
