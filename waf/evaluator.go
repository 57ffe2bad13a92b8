package waf

// Subject is the per-request handle passed to the evaluator alongside the
// payload data, for example a trace span. The coordination layer carries it
// without looking inside.
type Subject interface{}

// Evaluator is the rule-matching engine invoked with available address data.
// Implementations are opaque to the coordination layer; the only contract is
// that Evaluate is a single best-effort attempt returning a well-formed
// Result or an error.
type Evaluator interface {
	Evaluate(payload map[string]interface{}, subject Subject) (Result, error)
}

// Result is the outcome of a single evaluator invocation.
type Result struct {
	// MatchData is the raw match data the evaluator produced.
	MatchData interface{}

	// Diagnostics is evaluator-specific diagnostic info about the invocation.
	Diagnostics interface{}

	// Blocked reports whether the evaluator decided the request should be blocked.
	Blocked bool
}

// AddressResolver supplies address values kept by a broader request
// processing context, such as data attached to the subject's trace span.
// The coordinator consults it for addresses that were declared needed but
// not yet contributed by any pipeline stage.
type AddressResolver interface {
	ResolveAddress(subject Subject, name string) (value interface{}, ok bool)
}
