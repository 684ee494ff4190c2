package features

import (
	"errors"
	"fmt"
)

var ErrMethodDisabled = errors.New("features: method disabled")

// DisabledError names the flag that kept a subject away from a method.
type DisabledError struct {
	Flag   string
	Method string
}

func (e *DisabledError) Error() string {
	return fmt.Sprintf("features: method %s disabled by flag %s", e.Method, e.Flag)
}

func (e *DisabledError) Is(target error) bool { return target == ErrMethodDisabled }

// Flag gates a set of methods. Rollout is a fraction in [0, 1]; subjects are
// bucketed by a hash of flag name and subject id so the decision is sticky.
type Flag struct {
	Name    string
	Enabled bool
	Rollout float64
	Methods []string
}

// EnabledFor reports whether the flag is on for the subject. Anonymous
// callers only see fully rolled out flags.
func (f Flag) EnabledFor(subject string) bool {
	if !f.Enabled {
		return false
	}
	if f.Rollout >= 1 {
		return true
	}
	if subject == "" || f.Rollout <= 0 {
		return false
	}
	return bucket(f.Name+":"+subject) < f.Rollout
}

func (f Flag) guards(method string) bool {
	for _, m := range f.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Flags is an immutable set of method gates.
type Flags struct {
	flags []Flag
}

func NewFlags(flags ...Flag) *Flags {
	return &Flags{flags: append([]Flag(nil), flags...)}
}

// Allows returns a DisabledError when any flag guarding method is off for subject.
func (s *Flags) Allows(method, subject string) error {
	if s == nil {
		return nil
	}
	for _, f := range s.flags {
		if f.guards(method) && !f.EnabledFor(subject) {
			return &DisabledError{Flag: f.Name, Method: method}
		}
	}
	return nil
}

// List returns a copy of the configured flags.
func (s *Flags) List() []Flag {
	if s == nil {
		return nil
	}
	return append([]Flag(nil), s.flags...)
}
