package bmr

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func referenceProfile() Profile {
	return Profile{WeightKg: 75, HeightCm: 180, Age: 30, Gender: GenderMale}
}

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %v, want %v (±%v)", name, got, want, tol)
	}
}

func TestMifflinStJeorReferenceProfile(t *testing.T) {
	res, err := MifflinStJeor(referenceProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Method != MethodMifflinStJeor {
		t.Fatalf("method = %s", res.Method)
	}
	approx(t, "bmr", res.BMR, 1730.0, 1e-9)
	approx(t, "base", res.Components["base"], 1725, 1e-9)
	approx(t, "gender_adjustment", res.Components["gender_adjustment"], 5, 0)
	approx(t, "confidence", res.Confidence, 0.95, 1e-9)
}

func TestMifflinStJeorMatchesClosedForm(t *testing.T) {
	cases := []Profile{
		{WeightKg: 60, HeightCm: 165, Age: 40, Gender: GenderFemale},
		{WeightKg: 92.4, HeightCm: 191.5, Age: 55, Gender: GenderMale},
		{WeightKg: 48, HeightCm: 150, Age: 16, Gender: GenderFemale},
		{WeightKg: 130, HeightCm: 175, Age: 82, Gender: GenderMale},
	}
	for _, p := range cases {
		res, err := MifflinStJeor(p)
		if err != nil {
			t.Fatalf("%+v: %v", p, err)
		}
		adj := -161.0
		if p.Gender == GenderMale {
			adj = 5
		}
		want := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age) + adj
		approx(t, "bmr", res.BMR, want, 0.05)
	}
}

func TestHarrisBenedictBranches(t *testing.T) {
	male, err := HarrisBenedict(referenceProfile())
	if err != nil {
		t.Fatalf("male: %v", err)
	}
	approx(t, "male bmr", male.BMR, 1786.65, 0.06)
	approx(t, "male base_constant", male.Components["base_constant"], 88.362, 0)
	approx(t, "male confidence", male.Confidence, 0.90, 1e-9)

	female, err := HarrisBenedict(Profile{WeightKg: 60, HeightCm: 165, Age: 40, Gender: GenderFemale})
	if err != nil {
		t.Fatalf("female: %v", err)
	}
	approx(t, "female bmr", female.BMR, 447.593+9.247*60+3.098*165-4.330*40, 0.05)
	approx(t, "female base_constant", female.Components["base_constant"], 447.593, 0)
}

func TestKatchMcArdleSuppliedBodyFat(t *testing.T) {
	p := referenceProfile()
	p.BodyFatPercentage = BodyFat(15)
	res, err := KatchMcArdle(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "bmr", res.BMR, 1747.0, 1e-6)
	approx(t, "lean_body_mass", res.Components["lean_body_mass"], 63.75, 0.051)
	if res.BodyFatEstimated {
		t.Fatal("body fat was supplied, result must not be flagged estimated")
	}
	approx(t, "confidence", res.Confidence, 0.977, 1e-9)
}

func TestKatchMcArdleEstimatesBodyFat(t *testing.T) {
	p := referenceProfile()
	res, err := KatchMcArdle(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.BodyFatEstimated {
		t.Fatal("expected body_fat_estimated")
	}
	bf := 1.20*p.BMI() + 0.23*30 - 16.2
	approx(t, "body_fat_used", res.Components["body_fat_used"], bf, 0.05)
	approx(t, "bmr", res.BMR, 370+21.6*75*(1-bf/100), 0.05)
	approx(t, "confidence", res.Confidence, 0.93, 1e-9)
	if p.BodyFatPercentage != nil {
		t.Fatal("caller profile must not be mutated")
	}
}

func TestEstimateBodyFatClamps(t *testing.T) {
	cases := []struct {
		name string
		p    Profile
		want float64
	}{
		{"lean young male floors at 5", Profile{WeightKg: 45, HeightCm: 190, Age: 18, Gender: GenderMale}, 5},
		{"obese old female caps at 50", Profile{WeightKg: 160, HeightCm: 160, Age: 80, Gender: GenderFemale}, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			approx(t, "bf", EstimateBodyFat(tc.p), tc.want, 0)
		})
	}
	female := Profile{WeightKg: 60, HeightCm: 165, Age: 40, Gender: GenderFemale}
	approx(t, "female bf", EstimateBodyFat(female), 1.20*female.BMI()+0.23*40-5.4, 1e-9)
}

func TestConfidenceAdjustments(t *testing.T) {
	cases := []struct {
		name   string
		method Method
		p      Profile
		want   float64
	}{
		{"in range", MethodMifflinStJeor, referenceProfile(), 0.95},
		{"minor", MethodMifflinStJeor, Profile{WeightKg: 60, HeightCm: 170, Age: 16, Gender: GenderMale}, round3(0.95 * 0.90)},
		{"senior", MethodHarrisBenedict, Profile{WeightKg: 70, HeightCm: 175, Age: 66, Gender: GenderMale}, round3(0.90 * 0.90)},
		{"age 65 is in range", MethodHarrisBenedict, Profile{WeightKg: 70, HeightCm: 175, Age: 65, Gender: GenderMale}, 0.90},
		{"overweight bmi", MethodMifflinStJeor, Profile{WeightKg: 100, HeightCm: 175, Age: 40, Gender: GenderMale}, round3(0.95 * 0.92)},
		{"extreme bmi stacks", MethodMifflinStJeor, Profile{WeightKg: 120, HeightCm: 170, Age: 40, Gender: GenderFemale}, round3(0.95 * 0.92 * 0.80)},
		{"underweight extreme", MethodMifflinStJeor, Profile{WeightKg: 42, HeightCm: 170, Age: 30, Gender: GenderFemale}, round3(0.95 * 0.92 * 0.80)},
		{"all penalties", MethodHarrisBenedict, Profile{WeightKg: 120, HeightCm: 170, Age: 70, Gender: GenderFemale}, round3(0.90 * 0.90 * 0.92 * 0.80)},
		{"unknown method", Method("nope"), referenceProfile(), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			approx(t, "confidence", Confidence(tc.method, tc.p), tc.want, 1e-9)
		})
	}
}

func TestConfidenceClamp(t *testing.T) {
	if got := clampConfidence(1.029); got != MaxConfidence {
		t.Fatalf("clamp(1.029) = %v, want %v", got, MaxConfidence)
	}
	if got := clampConfidence(-0.2); got != 0 {
		t.Fatalf("clamp(-0.2) = %v, want 0", got)
	}
	approx(t, "clamp(0.12345)", clampConfidence(0.12345), 0.123, 1e-12)
}

func TestEnsembleWeights(t *testing.T) {
	cases := []struct {
		name            string
		p               Profile
		mifflin, harris float64
	}{
		{"normal bmi", referenceProfile(), 0.7, 0.3},
		{"overweight", Profile{WeightKg: 85, HeightCm: 175, Age: 40, Gender: GenderMale}, 0.6, 0.4},
		{"obese", Profile{WeightKg: 110, HeightCm: 175, Age: 40, Gender: GenderMale}, 0.55, 0.45},
		{"normal senior", Profile{WeightKg: 70, HeightCm: 175, Age: 61, Gender: GenderMale}, 0.65, 0.35},
		{"obese senior", Profile{WeightKg: 120, HeightCm: 170, Age: 70, Gender: GenderFemale}, 0.5, 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := EnsembleWeights(tc.p)
			approx(t, "mifflin", w[MethodMifflinStJeor], tc.mifflin, 1e-9)
			approx(t, "harris", w[MethodHarrisBenedict], tc.harris, 1e-9)
			if _, ok := w[MethodKatchMcArdle]; ok {
				t.Fatal("katch must be absent without body fat")
			}
		})
	}

	p := referenceProfile()
	p.BodyFatPercentage = BodyFat(15)
	w := EnsembleWeights(p)
	approx(t, "mifflin scaled", w[MethodMifflinStJeor], 0.49, 1e-9)
	approx(t, "harris scaled", w[MethodHarrisBenedict], 0.21, 1e-9)
	approx(t, "katch", w[MethodKatchMcArdle], 0.3, 0)
	approx(t, "sum", w[MethodMifflinStJeor]+w[MethodHarrisBenedict]+w[MethodKatchMcArdle], 1, 1e-9)
}

func TestAdaptiveEnsembleReferenceProfile(t *testing.T) {
	res, err := AdaptiveEnsemble(referenceProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approx(t, "bmr", res.BMR, 0.7*1730.0+0.3*1786.6, 0.05)
	approx(t, "confidence", res.Confidence, 0.975, 1e-9)
	if len(res.Constituents) != 2 {
		t.Fatalf("constituents = %d, want 2", len(res.Constituents))
	}
	mifflin, ok := res.Constituent(MethodMifflinStJeor)
	if !ok || mifflin.Components["base"] != 1725 {
		t.Fatalf("mifflin constituent not retained in full: %+v", mifflin)
	}
	sum := 0.0
	for _, v := range res.Components {
		sum += v
	}
	approx(t, "component sum", sum, res.BMR, 0.1)
}

func TestAdaptiveEnsembleBlendsKatchWhenBodyFatSupplied(t *testing.T) {
	p := referenceProfile()
	p.BodyFatPercentage = BodyFat(15)
	res, err := AdaptiveEnsemble(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := res.Constituent(MethodKatchMcArdle); !ok {
		t.Fatal("katch_mcardle constituent missing")
	}
	approx(t, "bmr", res.BMR, 0.49*1730.0+0.21*1786.6+0.3*1747.0, 0.05)
	if res.Confidence != MaxConfidence {
		t.Fatalf("confidence = %v, want capped %v", res.Confidence, MaxConfidence)
	}
}

func TestZeroBodyFatCountsAsSupplied(t *testing.T) {
	p := referenceProfile()
	p.BodyFatPercentage = BodyFat(0)
	cases := []struct {
		name    string
		formula Formula
		bmr     float64
	}{
		{"katch_mcardle", KatchMcArdle, 370 + 21.6*75},
		{"adaptive_ensemble", AdaptiveEnsemble, 0.49*1730.0 + 0.21*1786.6 + 0.3*2020.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := tc.formula(p)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			approx(t, "bmr", res.BMR, tc.bmr, 0.05)
			katch := res
			if res.Method == MethodAdaptiveEnsemble {
				approx(t, "katch weight", res.Weights[MethodKatchMcArdle], 0.3, 1e-9)
				var ok bool
				if katch, ok = res.Constituent(MethodKatchMcArdle); !ok {
					t.Fatal("katch_mcardle constituent missing")
				}
			}
			if katch.BodyFatEstimated {
				t.Fatal("zero body fat was supplied, result must not be flagged estimated")
			}
			approx(t, "body_fat_used", katch.Components["body_fat_used"], 0, 0)
			approx(t, "katch confidence", katch.Confidence, 0.977, 1e-9)
		})
	}
}

func TestAdaptiveEnsembleConfidenceBounds(t *testing.T) {
	profiles := []Profile{
		referenceProfile(),
		{WeightKg: 120, HeightCm: 170, Age: 70, Gender: GenderFemale},
		{WeightKg: 38, HeightCm: 172, Age: 12, Gender: GenderMale},
		{WeightKg: 200, HeightCm: 150, Age: 95, Gender: GenderFemale, BodyFatPercentage: BodyFat(55)},
	}
	for _, p := range profiles {
		res, err := AdaptiveEnsemble(p)
		if err != nil {
			t.Fatalf("%+v: %v", p, err)
		}
		lowest := 1.0
		for _, c := range res.Constituents {
			lowest = math.Min(lowest, c.Confidence)
		}
		if res.Confidence > MaxConfidence || res.Confidence < 0 {
			t.Fatalf("confidence %v out of bounds", res.Confidence)
		}
		if res.Confidence < lowest {
			t.Fatalf("ensemble confidence %v below weakest constituent %v", res.Confidence, lowest)
		}
	}
}

func TestRegistryEstimate(t *testing.T) {
	reg := NewRegistry()
	for _, m := range reg.Methods() {
		res, err := reg.Estimate(referenceProfile(), string(m))
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		if res.Method != m {
			t.Fatalf("method = %s, want %s", res.Method, m)
		}
	}
	if got := len(reg.Methods()); got != 4 {
		t.Fatalf("methods = %d, want 4", got)
	}
}

func TestRegistryUnknownMethod(t *testing.T) {
	_, err := NewRegistry().Estimate(referenceProfile(), "nonexistent_method")
	if !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("err = %v, want ErrUnknownMethod", err)
	}
	var umErr *UnknownMethodError
	if !errors.As(err, &umErr) || umErr.Method != "nonexistent_method" {
		t.Fatalf("unexpected error detail: %#v", err)
	}
	if _, err := NewRegistry().Estimate(referenceProfile(), ""); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("empty method must not default: %v", err)
	}
}

func TestInvalidProfiles(t *testing.T) {
	cases := []struct {
		name  string
		p     Profile
		field string
	}{
		{"zero height", Profile{WeightKg: 70, HeightCm: 0, Age: 30, Gender: GenderMale}, "height_cm"},
		{"negative age", Profile{WeightKg: 70, HeightCm: 170, Age: -5, Gender: GenderMale}, "age"},
		{"zero weight", Profile{WeightKg: 0, HeightCm: 170, Age: 30, Gender: GenderFemale}, "weight_kg"},
		{"nan weight", Profile{WeightKg: math.NaN(), HeightCm: 170, Age: 30, Gender: GenderFemale}, "weight_kg"},
		{"infinite height", Profile{WeightKg: 70, HeightCm: math.Inf(1), Age: 30, Gender: GenderFemale}, "height_cm"},
		{"missing gender", Profile{WeightKg: 70, HeightCm: 170, Age: 30}, "gender"},
		{"body fat over 100", Profile{WeightKg: 70, HeightCm: 170, Age: 30, Gender: GenderMale, BodyFatPercentage: BodyFat(101)}, "body_fat_percentage"},
		{"negative body fat", Profile{WeightKg: 70, HeightCm: 170, Age: 30, Gender: GenderMale, BodyFatPercentage: BodyFat(-1)}, "body_fat_percentage"},
	}
	reg := NewRegistry()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, m := range reg.Methods() {
				_, err := reg.Estimate(tc.p, string(m))
				if !errors.Is(err, ErrInvalidProfile) {
					t.Fatalf("%s: err = %v, want ErrInvalidProfile", m, err)
				}
				var ipErr *InvalidProfileError
				if !errors.As(err, &ipErr) || ipErr.Field != tc.field {
					t.Fatalf("%s: field = %v, want %s", m, err, tc.field)
				}
			}
		})
	}
}

func TestComputationErrorOnOverflow(t *testing.T) {
	p := Profile{WeightKg: math.MaxFloat64, HeightCm: 170, Age: 30, Gender: GenderMale}
	_, err := MifflinStJeor(p)
	if !errors.Is(err, ErrComputation) {
		t.Fatalf("err = %v, want ErrComputation", err)
	}
	var cErr *ComputationError
	if !errors.As(err, &cErr) || cErr.Method != MethodMifflinStJeor {
		t.Fatalf("unexpected error detail: %#v", err)
	}
}

func TestParseGender(t *testing.T) {
	for raw, want := range map[string]Gender{"male": GenderMale, " Female ": GenderFemale, "MALE": GenderMale} {
		got, err := ParseGender(raw)
		if err != nil || got != want {
			t.Fatalf("ParseGender(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseGender("other"); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected invalid profile error, got %v", err)
	}
}

func TestRegistryConcurrentUse(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := Profile{WeightKg: 60 + float64(i), HeightCm: 170, Age: 20 + i, Gender: GenderFemale}
			if _, err := reg.Estimate(p, string(MethodAdaptiveEnsemble)); err != nil {
				t.Errorf("estimate: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
