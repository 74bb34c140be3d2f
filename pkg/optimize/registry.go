package optimize

// Registry is the fixed set of optimizers the experiment runner drives, per
// spec §9's "Polymorphism over optimizers": every entry satisfies Optimizer
// and nothing downstream type-switches on the concrete algorithm.
type Registry map[string]Optimizer

// DefaultRegistry constructs all six optimizers with spec-default tunables.
func DefaultRegistry() Registry {
	return Registry{
		"GA":    NewGA(DefaultGAConfig()),
		"ACO":   NewACO(DefaultACOConfig()),
		"PSO":   NewPSO(DefaultPSOConfig()),
		"SA":    NewSA(DefaultSAConfig()),
		"QL":    NewQL(DefaultRLConfig()),
		"SARSA": NewSARSA(DefaultRLConfig()),
	}
}

// Names returns the registry's algorithm names in the canonical order used
// for report output: GA, ACO, PSO, SA, QL, SARSA.
func (r Registry) Names() []string {
	order := []string{"GA", "ACO", "PSO", "SA", "QL", "SARSA"}
	out := make([]string, 0, len(order))
	for _, n := range order {
		if _, ok := r[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Select returns the named optimizers in the order the names are given, or
// an error naming the first unknown algorithm.
func (r Registry) Select(names []string) ([]Optimizer, error) {
	out := make([]Optimizer, 0, len(names))
	for _, n := range names {
		o, ok := r[n]
		if !ok {
			return nil, fmtError("optimize: unknown algorithm " + n)
		}
		out = append(out, o)
	}
	return out, nil
}
