package secctx

import "github.com/rs/zerolog"

// Pool reuses RequestContexts between requests, while not letting concurrent
// requests share the same instance. Buffered channel used for the reuse so a
// Get under pressure just allocates a fresh context.
type Pool struct {
	logger zerolog.Logger
	next   chan *RequestContext
}

// NewPool creates a Pool keeping at most size idle contexts.
func NewPool(logger zerolog.Logger, size int) *Pool {
	return &Pool{
		logger: logger,
		next:   make(chan *RequestContext, size),
	}
}

// Get takes an idle context or creates a new one.
func (p *Pool) Get() *RequestContext {
	select {
	case rc := <-p.next:
		return rc
	default:
		return NewRequestContext(p.logger)
	}
}

// Put tears the context down and returns it for reuse. The reset runs even
// when the pool is full, so a dropped context never holds request state.
func (p *Pool) Put(rc *RequestContext) {
	rc.Reset()
	select {
	case p.next <- rc:
	default:
	}
}
