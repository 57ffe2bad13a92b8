package secctx

// ResultAccumulator collects the outcomes of the evaluator invocations made
// during one request, in invocation order. Three parallel sequences of equal
// length: raw match data, diagnostic info, blocked flag.
type ResultAccumulator struct {
	matchData   []interface{}
	diagnostics []interface{}
	blocked     []bool
}

// NewResultAccumulator creates an empty ResultAccumulator.
func NewResultAccumulator() *ResultAccumulator {
	return &ResultAccumulator{}
}

// Record appends one invocation outcome.
func (a *ResultAccumulator) Record(matchData interface{}, diagnostics interface{}, blocked bool) {
	a.matchData = append(a.matchData, matchData)
	a.diagnostics = append(a.diagnostics, diagnostics)
	a.blocked = append(a.blocked, blocked)
}

// Snapshot returns copies of the three sequences, insertion order preserved.
func (a *ResultAccumulator) Snapshot() (matchData []interface{}, diagnostics []interface{}, blocked []bool) {
	matchData = make([]interface{}, len(a.matchData))
	copy(matchData, a.matchData)
	diagnostics = make([]interface{}, len(a.diagnostics))
	copy(diagnostics, a.diagnostics)
	blocked = make([]bool, len(a.blocked))
	copy(blocked, a.blocked)
	return
}

// Len returns the number of recorded outcomes.
func (a *ResultAccumulator) Len() int {
	return len(a.blocked)
}

// AnyBlocked reports whether any recorded outcome carried a block decision.
func (a *ResultAccumulator) AnyBlocked() bool {
	for _, b := range a.blocked {
		if b {
			return true
		}
	}
	return false
}

// Clear resets all three sequences to empty.
func (a *ResultAccumulator) Clear() {
	a.matchData = nil
	a.diagnostics = nil
	a.blocked = nil
}
