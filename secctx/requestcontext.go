package secctx

import (
	"github.com/rs/zerolog"

	"webshield/clientip"
	"webshield/waf"
)

// BlockFunc aborts or short-circuits request processing in a
// framework-specific way. Curry any parameters it needs before binding it.
type BlockFunc func()

// RequestContext is the request-scoped container binding one evaluation
// coordinator, the raw client IP, the raw header set and an optional block
// hook. It is exclusively owned by the execution unit processing one
// request; construction happens at request entry and Reset must run on
// every exit path.
type RequestContext struct {
	logger      zerolog.Logger
	store       *AddressStore
	results     *ResultAccumulator
	coordinator *EvaluationCoordinator
	blockFn     BlockFunc
}

// NewRequestContext creates an inactive RequestContext.
func NewRequestContext(logger zerolog.Logger) *RequestContext {
	store := NewAddressStore()
	results := NewResultAccumulator()
	return &RequestContext{
		logger:      logger,
		store:       store,
		results:     results,
		coordinator: NewEvaluationCoordinator(logger, store, results),
	}
}

// Activate transitions the context into its active state for a new request.
// Headers and the case-sensitivity flag are stored as addresses, the client
// IP is resolved against trusted proxy headers when both IP and headers are
// given, and the block hook is bound (nil unbinds a prior hook). Any state
// from a prior activation is cleared first: the store, the accumulated
// results, the coordinator binding and the block hook.
func (rc *RequestContext) Activate(remoteIP string, headers interface{}, headersCaseSensitive bool, blockFn BlockFunc) {
	rc.store.Reset()
	rc.results.Clear()
	rc.coordinator.Reset()
	rc.blockFn = blockFn

	if headers != nil {
		rc.store.SetValue(waf.AddrHeadersNoCookies, headers)
	}
	rc.store.SetValue(waf.AddrHeadersNoCookiesCase, headersCaseSensitive)

	if headers != nil && remoteIP != "" {
		remoteIP = clientip.Resolve(remoteIP, HeaderPairs(headers), headersCaseSensitive)
	}
	if remoteIP != "" {
		rc.store.SetValue(waf.AddrHTTPClientIP, remoteIP)
	}
}

// SetAddress contributes data for an address.
func (rc *RequestContext) SetAddress(name string, value interface{}) {
	rc.store.SetValue(name, value)
}

// GetAddress returns the available value for an address, or nil.
func (rc *RequestContext) GetAddress(name string) interface{} {
	return rc.store.GetValue(name)
}

// IsAddressNeeded lets an adapter decide whether extracting an address is
// worth the cost before contributing it.
func (rc *RequestContext) IsAddressNeeded(name string) bool {
	return rc.store.IsNeeded(name)
}

// IsAddressAvailable reports whether an address already carries data.
func (rc *RequestContext) IsAddressAvailable(name string) bool {
	return rc.store.IsAvailable(name)
}

// Coordinator returns the bound evaluation coordinator.
func (rc *RequestContext) Coordinator() *EvaluationCoordinator {
	return rc.coordinator
}

// SetBlockFunc binds the block hook.
func (rc *RequestContext) SetBlockFunc(blockFn BlockFunc) {
	if blockFn != nil {
		rc.blockFn = blockFn
	}
}

// BlockRequest invokes the bound block hook. With none bound this is a
// logged no-op; the pipeline must keep functioning when the security layer
// is disabled or mis-wired.
func (rc *RequestContext) BlockRequest() {
	if rc.blockFn != nil {
		rc.blockFn()
		return
	}

	rc.logger.Debug().Msg("Block request called but no block hook is bound")
}

// ResponseContentType returns the blocked-response content type hint.
func (rc *RequestContext) ResponseContentType() waf.ResponseContentType {
	return rc.store.ResponseContentType()
}

// AccumulatedResults returns a snapshot of the evaluation outcomes recorded
// so far, in invocation order.
func (rc *RequestContext) AccumulatedResults() (matchData []interface{}, diagnostics []interface{}, blocked []bool) {
	return rc.results.Snapshot()
}

// Blocked reports whether any recorded evaluation outcome decided to block.
func (rc *RequestContext) Blocked() bool {
	return rc.results.AnyBlocked()
}

// Reset tears the context down. Every field is cleared independently so a
// failure around one of them cannot leave the rest populated, and the
// context may be activated again afterwards.
func (rc *RequestContext) Reset() {
	rc.store.Reset()
	rc.results.Clear()
	rc.coordinator.Reset()
	rc.blockFn = nil
}
