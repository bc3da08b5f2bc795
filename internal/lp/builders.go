package lp

// Disjunction constrains the binary v to equal OR(xs). With no xs, v is
// fixed to 0.
func Disjunction(m *Model, name string, v Var, xs []Var) {
	n := float64(len(xs))
	if len(xs) == 0 {
		m.AddConstraint(name, 0, 0, Term{Var: v, Coef: 1})
		return
	}
	terms := make([]Term, 0, len(xs)+1)
	terms = append(terms, Term{Var: v, Coef: n})
	for _, x := range xs {
		terms = append(terms, Term{Var: x, Coef: -1})
	}
	// 0 <= n*v - sum(xs) <= n-1
	m.AddConstraint(name, 0, n-1, terms...)
}

// Conjunction constrains the binary v to equal AND(xs). With no xs, v is
// fixed to 1.
func Conjunction(m *Model, name string, v Var, xs []Var) {
	n := float64(len(xs))
	if len(xs) == 0 {
		m.AddConstraint(name, 1, 1, Term{Var: v, Coef: 1})
		return
	}
	terms := Sum(xs...)
	terms = append(terms, Term{Var: v, Coef: -n})
	// 0 <= sum(xs) - n*v <= n-1
	m.AddConstraint(name, 0, n-1, terms...)
}

// Forbid rules out every xs being 1 at the same time.
func Forbid(m *Model, name string, xs []Var) {
	if len(xs) == 0 {
		return
	}
	m.AddConstraint(name, -Inf, float64(len(xs)-1), Sum(xs...)...)
}

// ExactlyOne requires exactly one of xs to be 1.
func ExactlyOne(m *Model, name string, xs []Var) {
	m.AddConstraint(name, 1, 1, Sum(xs...)...)
}

// AbsBound adds d >= |sum(terms)| as two linear rows.
func AbsBound(m *Model, name string, d Var, terms []Term) {
	up := append([]Term{{Var: d, Coef: 1}}, negate(terms)...)
	m.AddConstraint(name+"+", 0, Inf, up...)
	down := append([]Term{{Var: d, Coef: 1}}, terms...)
	m.AddConstraint(name+"-", 0, Inf, down...)
}

func negate(terms []Term) []Term {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Var: t.Var, Coef: -t.Coef}
	}
	return out
}
