package bmr

import "strings"

// Registry maps method names to formulas. It is populated once at startup
// and only read afterwards, so a single value can serve concurrent callers.
type Registry struct {
	formulas map[Method]Formula
	order    []Method
}

// NewRegistry returns a registry with every built-in method.
func NewRegistry() *Registry {
	r := &Registry{formulas: make(map[Method]Formula)}
	r.Register(MethodMifflinStJeor, MifflinStJeor)
	r.Register(MethodHarrisBenedict, HarrisBenedict)
	r.Register(MethodKatchMcArdle, KatchMcArdle)
	r.Register(MethodAdaptiveEnsemble, AdaptiveEnsemble)
	return r
}

// Register adds or replaces a formula. Not safe once the registry is shared.
func (r *Registry) Register(method Method, fn Formula) {
	if method == "" {
		panic("bmr: empty method registration")
	}
	if fn == nil {
		panic("bmr: nil formula for " + string(method))
	}
	if _, exists := r.formulas[method]; !exists {
		r.order = append(r.order, method)
	}
	r.formulas[method] = fn
}

// Lookup resolves a method name. Unknown names fail; there is no default.
func (r *Registry) Lookup(method string) (Formula, Method, error) {
	m := Method(strings.TrimSpace(method))
	fn, ok := r.formulas[m]
	if !ok {
		return nil, "", &UnknownMethodError{Method: method}
	}
	return fn, m, nil
}

// Estimate validates the profile and runs the named method.
func (r *Registry) Estimate(p Profile, method string) (EstimateResult, error) {
	fn, _, err := r.Lookup(method)
	if err != nil {
		return EstimateResult{}, err
	}
	if err := p.Validate(); err != nil {
		return EstimateResult{}, err
	}
	return fn(p)
}

// Methods lists registered methods in registration order.
func (r *Registry) Methods() []Method {
	return append([]Method(nil), r.order...)
}
