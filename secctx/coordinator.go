package secctx

import (
	"github.com/rs/zerolog"

	"webshield/waf"
)

// EvaluationCoordinator binds one evaluator and one evaluation subject
// together with the addresses the evaluator declared as needed, and mediates
// delivery: new data is handed over exactly once, invocations with nothing
// new are skipped, and every outcome lands in the result accumulator.
type EvaluationCoordinator struct {
	logger    zerolog.Logger
	store     *AddressStore
	results   *ResultAccumulator
	evaluator waf.Evaluator
	subject   waf.Subject
	resolver  waf.AddressResolver
}

// NewEvaluationCoordinator creates a coordinator over the given store and accumulator.
func NewEvaluationCoordinator(logger zerolog.Logger, store *AddressStore, results *ResultAccumulator) *EvaluationCoordinator {
	return &EvaluationCoordinator{
		logger:  logger,
		store:   store,
		results: results,
	}
}

// Bind stores the evaluator/subject pair. A non-nil needed slice declares
// the evaluator's required addresses; nil leaves prior declarations
// untouched, which allows re-binding without changing requirements.
func (c *EvaluationCoordinator) Bind(evaluator waf.Evaluator, subject waf.Subject, needed []string) {
	c.evaluator = evaluator
	c.subject = subject
	if needed != nil {
		c.store.DeclareNeeded(needed)
	}
}

// SetResolver installs the collaborator consulted for still-needed addresses
// before each invocation.
func (c *EvaluationCoordinator) SetResolver(resolver waf.AddressResolver) {
	c.resolver = resolver
}

// Invoke delivers newly available address data to the bound evaluator.
//
// When extra is nil the payload is every available entry, drained from the
// store. When extra is supplied, nil-valued keys backfill from the store's
// available values, keys with no value anywhere are dropped, and non-nil
// values pass through unchanged; keys that made it into the payload are then
// consumed from the store so the evaluator never sees the same concrete
// value twice. An empty payload skips the call entirely.
func (c *EvaluationCoordinator) Invoke(extra map[string]interface{}) (result waf.Result, invoked bool, err error) {
	if c.evaluator == nil {
		c.logger.Warn().Msg("Evaluation requested but no evaluator is bound")
		return
	}

	if c.resolver != nil {
		for _, name := range c.store.NeededNames() {
			if v, ok := c.resolver.ResolveAddress(c.subject, name); ok && v != nil {
				c.store.SetValue(name, v)
			}
		}
	}

	var payload map[string]interface{}
	if extra == nil {
		payload = c.store.TakeAvailable()
	} else {
		payload = make(map[string]interface{}, len(extra))
		for name, v := range extra {
			if v == nil {
				v = c.store.GetValue(name)
				if v == nil {
					continue
				}
			}
			payload[name] = v
		}
		for name := range payload {
			c.store.Drop(name)
		}
	}

	if len(payload) == 0 {
		c.logger.Debug().Msg("Skipping evaluation, no new address data")
		return
	}

	result, err = c.evaluator.Evaluate(payload, c.subject)
	if err != nil {
		c.logger.Error().Err(err).Msg("Evaluator returned an error")
		return
	}

	c.results.Record(result.MatchData, result.Diagnostics, result.Blocked)
	invoked = true
	return
}

// Reset drops the evaluator binding, the subject and the resolver.
func (c *EvaluationCoordinator) Reset() {
	c.evaluator = nil
	c.subject = nil
	c.resolver = nil
}
