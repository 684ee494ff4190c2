package bmr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidProfile = errors.New("bmr: invalid profile")
	ErrUnknownMethod  = errors.New("bmr: unknown method")
	ErrComputation    = errors.New("bmr: computation failed")
)

// InvalidProfileError reports the first profile field that violates its invariant.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("bmr: invalid profile: %s %s", e.Field, e.Reason)
}

func (e *InvalidProfileError) Is(target error) bool { return target == ErrInvalidProfile }

// UnknownMethodError is returned for method names the registry does not know.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("bmr: unknown method %q", e.Method)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }

// ComputationError carries the formula and inputs that produced a non-finite value.
type ComputationError struct {
	Method  Method
	Profile Profile
	Detail  string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("bmr: %s produced %s (weight_kg=%g height_cm=%g age=%d gender=%s)",
		e.Method, e.Detail, e.Profile.WeightKg, e.Profile.HeightCm, e.Profile.Age, e.Profile.Gender)
}

func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

func invalid(field, reason string) error {
	return &InvalidProfileError{Field: field, Reason: reason}
}
