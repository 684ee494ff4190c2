package bmr

import (
	"math"
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender accepts male/female in any case and surrounding whitespace.
func ParseGender(raw string) (Gender, error) {
	switch Gender(strings.ToLower(strings.TrimSpace(raw))) {
	case GenderMale:
		return GenderMale, nil
	case GenderFemale:
		return GenderFemale, nil
	default:
		return "", invalid("gender", "must be male or female")
	}
}

// Profile is the body description every formula works from.
type Profile struct {
	WeightKg          float64
	HeightCm          float64
	Age               int
	Gender            Gender
	BodyFatPercentage *float64
}

// BodyFat returns a pointer suitable for Profile.BodyFatPercentage.
func BodyFat(pct float64) *float64 {
	return &pct
}

func (p Profile) Validate() error {
	if math.IsNaN(p.WeightKg) || math.IsInf(p.WeightKg, 0) {
		return invalid("weight_kg", "must be finite")
	}
	if p.WeightKg <= 0 {
		return invalid("weight_kg", "must be positive")
	}
	if math.IsNaN(p.HeightCm) || math.IsInf(p.HeightCm, 0) {
		return invalid("height_cm", "must be finite")
	}
	if p.HeightCm <= 0 {
		return invalid("height_cm", "must be positive")
	}
	if p.Age <= 0 {
		return invalid("age", "must be positive")
	}
	if p.Gender != GenderMale && p.Gender != GenderFemale {
		return invalid("gender", "must be male or female")
	}
	if p.BodyFatPercentage != nil {
		bf := *p.BodyFatPercentage
		if math.IsNaN(bf) || bf < 0 || bf > 100 {
			return invalid("body_fat_percentage", "must be within [0, 100]")
		}
	}
	return nil
}

func (p Profile) IsMale() bool {
	return p.Gender == GenderMale
}

// BMI is weight over height in metres squared.
func (p Profile) BMI() float64 {
	m := p.HeightCm / 100
	return p.WeightKg / (m * m)
}

// HasBodyFat reports whether the caller supplied a measured body fat value.
func (p Profile) HasBodyFat() bool {
	return p.BodyFatPercentage != nil
}
