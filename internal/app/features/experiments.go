package features

// Variant is one arm of an experiment. Weights are relative.
type Variant struct {
	Method string
	Weight float64
}

type Experiment struct {
	Name     string
	Enabled  bool
	Variants []Variant
}

// Assignment records which experiment arm picked the method.
type Assignment struct {
	Experiment string
	Method     string
}

// Assign deterministically places a subject into one variant.
func (e Experiment) Assign(subject string) (Variant, bool) {
	if !e.Enabled || subject == "" {
		return Variant{}, false
	}
	var total float64
	for _, v := range e.Variants {
		if v.Weight > 0 {
			total += v.Weight
		}
	}
	if total <= 0 {
		return Variant{}, false
	}
	point := bucket(e.Name+":"+subject) * total
	var cumulative float64
	var last Variant
	for _, v := range e.Variants {
		if v.Weight <= 0 {
			continue
		}
		cumulative += v.Weight
		last = v
		if point < cumulative {
			return v, true
		}
	}
	return last, true
}

// Experiments assigns subjects using the first enabled experiment.
type Experiments struct {
	list []Experiment
}

func NewExperiments(list ...Experiment) *Experiments {
	return &Experiments{list: append([]Experiment(nil), list...)}
}

func (s *Experiments) Assign(subject string) (Assignment, bool) {
	if s == nil {
		return Assignment{}, false
	}
	for _, e := range s.list {
		if v, ok := e.Assign(subject); ok {
			return Assignment{Experiment: e.Name, Method: v.Method}, true
		}
	}
	return Assignment{}, false
}
