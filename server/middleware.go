// Package server integrates the security coordination layer into a net/http
// pipeline. It is a thin adapter: it populates and consumes the request
// context through its public interfaces and owns nothing else.
package server

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"webshield/secctx"
	"webshield/waf"
)

// Middleware wires one evaluator into every request passing through it.
type Middleware struct {
	logger               zerolog.Logger
	pool                 *secctx.Pool
	evaluator            waf.Evaluator
	neededAddresses      []string
	resolver             waf.AddressResolver
	bodyParser           waf.RequestBodyParser
	resultsLogger        waf.ResultsLogger
	headersCaseSensitive bool
}

// NewMiddleware creates a Middleware. The needed slice is the evaluator's
// declared address requirement set; resolver may be nil.
func NewMiddleware(logger zerolog.Logger, pool *secctx.Pool, evaluator waf.Evaluator, needed []string, resolver waf.AddressResolver, bodyParser waf.RequestBodyParser, resultsLogger waf.ResultsLogger, headersCaseSensitive bool) *Middleware {
	return &Middleware{
		logger:               logger,
		pool:                 pool,
		evaluator:            evaluator,
		neededAddresses:      needed,
		resolver:             resolver,
		bodyParser:           bodyParser,
		resultsLogger:        resultsLogger,
		headersCaseSensitive: headersCaseSensitive,
	}
}

// Wrap returns a handler that runs the security pipeline around next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txID := uuid.New().String()
		logger := m.logger.With().Str("txid", txID).Logger()

		if logger.Info() != nil {
			logger.Info().Str("uri", r.RequestURI).Msg("Security pipeline got request")
			startTime := time.Now()
			defer func() {
				logger.Info().Dur("timeTaken", time.Since(startTime)).Str("uri", r.RequestURI).Msg("Security pipeline completed request")
			}()
		}

		rc := m.pool.Get()
		// Teardown must run on every exit path, including panics in the
		// handler; Put resets the context before offering it for reuse.
		defer m.pool.Put(rc)

		blockedWritten := false
		rc.Activate(r.RemoteAddr, map[string][]string(r.Header), m.headersCaseSensitive, func() {
			blockedWritten = true
			writeBlockedResponse(w, rc.ResponseContentType())
		})

		logReq := &httpRequest{inner: r, txID: txID}
		if ip, ok := rc.GetAddress(waf.AddrHTTPClientIP).(string); ok {
			logReq.clientIP = ip
		}

		coordinator := rc.Coordinator()
		coordinator.Bind(m.evaluator, waf.Subject(txID), m.neededAddresses)
		if m.resolver != nil {
			coordinator.SetResolver(m.resolver)
		}

		m.contributeAddresses(rc, r, logReq, logger)

		if m.evaluateAndMaybeBlock(rc, coordinator, logReq, logger, &blockedWritten) {
			return
		}

		next.ServeHTTP(w, r.WithContext(secctx.NewContext(r.Context(), rc)))

		// Handler stages may have contributed late data; give the evaluator
		// one last chance to see it. Too late to block, but the outcome is
		// still recorded and logged.
		if result, invoked, err := coordinator.Invoke(nil); err != nil {
			logger.Error().Err(err).Msg("Late evaluation failed")
		} else if invoked {
			m.resultsLogger.EvaluationRecorded(logReq, result)
		}
	})
}

// contributeAddresses feeds the cheap addresses unconditionally and gates
// the expensive ones on the evaluator's declared needs.
func (m *Middleware) contributeAddresses(rc *secctx.RequestContext, r *http.Request, logReq *httpRequest, logger zerolog.Logger) {
	rc.SetAddress(waf.AddrMethod, r.Method)
	rc.SetAddress(waf.AddrURIRaw, r.RequestURI)

	if rc.IsAddressNeeded(waf.AddrQuery) {
		query := make(map[string]interface{})
		for k, vs := range r.URL.Query() {
			if len(vs) == 1 {
				query[k] = vs[0]
			} else {
				query[k] = vs
			}
		}
		rc.SetAddress(waf.AddrQuery, query)
	}

	if rc.IsAddressNeeded(waf.AddrCookies) {
		cookies := make(map[string]interface{})
		for _, c := range r.Cookies() {
			cookies[c.Name] = c.Value
		}
		rc.SetAddress(waf.AddrCookies, cookies)
	}

	// Parsing a body is only worth it when the evaluator asked for one.
	if m.bodyParser != nil && rc.IsAddressNeeded(waf.AddrBody) && r.Body != nil {
		m.contributeBody(rc, r, logReq, logger)
	}
}

func (m *Middleware) contributeBody(rc *secctx.RequestContext, r *http.Request, logReq *httpRequest, logger zerolog.Logger) {
	limit := int64(m.bodyParser.LengthLimits().MaxLengthTotal)
	buffered, err := ioutil.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to read request body")
		return
	}

	// The handler downstream still gets the full body.
	r.Body = ioutil.NopCloser(io.MultiReader(bytes.NewReader(buffered), r.Body))

	logReq.body = bytes.NewReader(buffered)
	value, err := m.bodyParser.Parse(logger, logReq)
	if err != nil {
		// Malformed or oversized bodies never fail the request here; the
		// address just stays unavailable.
		m.resultsLogger.BodyParseError(logReq, err)
		return
	}
	if value != nil {
		rc.SetAddress(waf.AddrBody, value)
	}
}

func (m *Middleware) evaluateAndMaybeBlock(rc *secctx.RequestContext, coordinator *secctx.EvaluationCoordinator, logReq *httpRequest, logger zerolog.Logger, blockedWritten *bool) bool {
	result, invoked, err := coordinator.Invoke(nil)
	if err != nil {
		logger.Error().Err(err).Msg("Evaluation failed")
		return false
	}
	if !invoked {
		return false
	}

	m.resultsLogger.EvaluationRecorded(logReq, result)

	if result.Blocked {
		rc.BlockRequest()
		m.resultsLogger.RequestBlocked(logReq)
		return *blockedWritten
	}

	return false
}
