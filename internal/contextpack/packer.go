package contextpack

import "strings"

// Accumulator is the growing text of one assembly run. It is owned by a
// single run and never shared.
type Accumulator struct {
	buf      strings.Builder
	sections []string
}

// Append commits s without a budget check.
func (a *Accumulator) Append(s string) {
	a.buf.WriteString(s)
	a.sections = append(a.sections, s)
}

// TryAppend commits s only if the estimate of the whole accumulated text
// plus s stays within budget.
func (a *Accumulator) TryAppend(s string, budget int) bool {
	if EstimateTokens(a.buf.String()+s) > budget {
		return false
	}
	a.Append(s)
	return true
}

// Pack commits candidates in order until the first one that does not fit.
// It returns how many were committed.
func (a *Accumulator) Pack(candidates []string, budget int) int {
	for i, c := range candidates {
		if !a.TryAppend(c, budget) {
			return i
		}
	}
	return len(candidates)
}

// String returns the accumulated text.
func (a *Accumulator) String() string { return a.buf.String() }

// Tokens estimates the accumulated text.
func (a *Accumulator) Tokens() int { return EstimateTokens(a.buf.String()) }

// Sections returns a copy of the committed sections in order.
func (a *Accumulator) Sections() []string {
	out := make([]string, len(a.sections))
	copy(out, a.sections)
	return out
}
