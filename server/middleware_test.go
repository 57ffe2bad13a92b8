package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"webshield/bodyparsing"
	"webshield/secctx"
	"webshield/testutils"
	"webshield/waf"
)

type mockEvaluator struct {
	evaluateCalled int
	lastPayload    map[string]interface{}
	result         waf.Result
	err            error
}

func (m *mockEvaluator) Evaluate(payload map[string]interface{}, subject waf.Subject) (waf.Result, error) {
	m.evaluateCalled++
	m.lastPayload = payload
	return m.result, m.err
}

type mockResultsLogger struct {
	recorded    int
	blocked     int
	parseErrors int
}

func (m *mockResultsLogger) EvaluationRecorded(request waf.ResultsLoggerHTTPRequest, result waf.Result) {
	m.recorded++
}
func (m *mockResultsLogger) RequestBlocked(request waf.ResultsLoggerHTTPRequest) { m.blocked++ }
func (m *mockResultsLogger) BodyParseError(request waf.ResultsLoggerHTTPRequest, err error) {
	m.parseErrors++
}

func newTestMiddleware(t *testing.T, e waf.Evaluator, needed []string) (*Middleware, *mockResultsLogger) {
	logger := testutils.NewTestLogger(t)
	pool := secctx.NewPool(logger, 4)
	rbp := bodyparsing.NewRequestBodyParser(waf.LengthLimits{
		MaxLengthField:    1024,
		MaxLengthPausable: 4096,
		MaxLengthTotal:    8192,
	})
	rl := &mockResultsLogger{}
	return NewMiddleware(logger, pool, e, needed, nil, rbp, rl, false), rl
}

func TestMiddlewarePassesCleanRequest(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, rl := newTestMiddleware(t, e, []string{waf.AddrURIRaw})
	handlerCalled := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled++
		w.Write([]byte("hello"))
	}))

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/ok", nil))

	// Assert
	assert.Equal(1, handlerCalled)
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("hello", rec.Body.String())
	assert.Equal(1, e.evaluateCalled)
	assert.Equal(1, rl.recorded)
	assert.Equal(0, rl.blocked)
}

func TestMiddlewareBlocksWithJSONBody(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	e := &mockEvaluator{result: waf.Result{Blocked: true}}
	mw, rl := newTestMiddleware(t, e, []string{waf.AddrURIRaw})
	handlerCalled := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled++
	}))

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/attack?q=1", nil))

	// Assert
	assert.Equal(0, handlerCalled)
	assert.Equal(http.StatusForbidden, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))
	assert.Contains(rec.Body.String(), "blocked")
	assert.Equal(1, rl.blocked)
}

func TestMiddlewareBlocksWithHTMLBodyWhenAcceptPrefersIt(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	e := &mockEvaluator{result: waf.Result{Blocked: true}}
	mw, _ := newTestMiddleware(t, e, []string{waf.AddrURIRaw})
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/attack", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Assert
	assert.Equal(http.StatusForbidden, rec.Code)
	assert.Equal("text/html", rec.Header().Get("Content-Type"))
	assert.Contains(rec.Body.String(), "<html")
}

func TestMiddlewareContributesOnlyNeededExpensiveAddresses(t *testing.T) {
	// Arrange: evaluator needs the URI but not the body.
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, _ := newTestMiddleware(t, e, []string{waf.AddrURIRaw, waf.AddrQuery})
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/p?a=1", nil)

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Assert
	assert.Equal(1, e.evaluateCalled)
	assert.Contains(e.lastPayload, waf.AddrURIRaw)
	assert.Contains(e.lastPayload, waf.AddrQuery)
	assert.NotContains(e.lastPayload, waf.AddrBody)
}

func TestMiddlewareContributesBodyWhenNeeded(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, _ := newTestMiddleware(t, e, []string{waf.AddrBody})
	var handlerBody string
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sb strings.Builder
		buf := make([]byte, 64)
		for {
			n, err := r.Body.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}
		handlerBody = sb.String()
	}))

	req := httptest.NewRequest("POST", "/submit", strings.NewReader("user=admin&pass=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Assert
	assert.Equal(1, e.evaluateCalled)
	body, ok := e.lastPayload[waf.AddrBody].(map[string]interface{})
	assert.True(ok)
	assert.Equal("admin", body["user"])
	// The downstream handler still sees the whole body.
	assert.Equal("user=admin&pass=x", handlerBody)
}

func TestMiddlewareReportsBodyParseErrors(t *testing.T) {
	// Arrange
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, rl := newTestMiddleware(t, e, []string{waf.AddrBody})
	handlerCalled := 0
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { handlerCalled++ }))

	req := httptest.NewRequest("POST", "/submit", strings.NewReader(`{"broken`))
	req.Header.Set("Content-Type", "application/json")

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Assert: a malformed body never fails the request.
	assert.Equal(1, rl.parseErrors)
	assert.Equal(1, handlerCalled)
	assert.Equal(http.StatusOK, rec.Code)
}

func TestMiddlewareLateDataGetsLateEvaluation(t *testing.T) {
	// Arrange: the handler contributes path params after routing.
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, rl := newTestMiddleware(t, e, []string{waf.AddrPathParams})
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := secctx.FromContext(r.Context())
		assert.NotNil(rc)
		rc.SetAddress(waf.AddrPathParams, map[string]interface{}{"id": "42"})
	}))

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/users/42", nil))

	// Assert: the pre-handler evaluation saw the cheap addresses, the
	// post-handler one delivered the path params.
	assert.Equal(2, e.evaluateCalled)
	assert.Contains(e.lastPayload, waf.AddrPathParams)
	assert.Equal(2, rl.recorded)
}

func TestMiddlewareTearsDownAfterHandlerPanic(t *testing.T) {
	// Arrange: the handler contributes late data and the hint flips to HTML,
	// then the handler panics before the post-handler evaluation.
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, _ := newTestMiddleware(t, e, []string{waf.AddrQuery, waf.AddrPathParams})
	panicking := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := secctx.FromContext(r.Context())
		rc.SetAddress(waf.AddrPathParams, map[string]interface{}{"id": "13"})
		panic("handler exploded")
	}))

	req1 := httptest.NewRequest("GET", "/boom?a=first", nil)
	req1.Header.Set("Accept", "text/html")

	// Act
	func() {
		defer func() {
			assert.Equal("handler exploded", recover())
		}()
		panicking.ServeHTTP(httptest.NewRecorder(), req1)
	}()

	// Assert: the pooled context handed to the next request is clean.
	clean := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := secctx.FromContext(r.Context())
		assert.False(rc.IsAddressAvailable(waf.AddrPathParams))
		assert.Equal(waf.ResponseContentTypeJSON, rc.ResponseContentType())
		assert.False(rc.Blocked())
	}))
	clean.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/next?b=second", nil))
	assert.NotContains(e.lastPayload, waf.AddrPathParams)
	assert.Equal(map[string]interface{}{"b": "second"}, e.lastPayload[waf.AddrQuery])
}

func TestMiddlewareLateEvaluationErrorIsNotRecorded(t *testing.T) {
	// Arrange: the evaluator starts failing after the pre-handler pass.
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, rl := newTestMiddleware(t, e, []string{waf.AddrPathParams})
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := secctx.FromContext(r.Context())
		rc.SetAddress(waf.AddrPathParams, map[string]interface{}{"id": "42"})
		e.err = errors.New("engine exploded")
	}))

	// Act
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/users/42", nil))

	// Assert: only the pre-handler outcome was recorded, and the failing
	// late pass never disturbs the response.
	assert.Equal(2, e.evaluateCalled)
	assert.Equal(1, rl.recorded)
	assert.Equal(http.StatusOK, rec.Code)
}

func TestMiddlewareRequestsAreIsolated(t *testing.T) {
	// Arrange: two sequential requests reusing the pooled context must not
	// see each other's data.
	assert := assert.New(t)
	e := &mockEvaluator{}
	mw, _ := newTestMiddleware(t, e, []string{waf.AddrQuery})
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// Act
	rec1 := httptest.NewRecorder()
	h.ServeHTTP(rec1, httptest.NewRequest("GET", "/one?a=first", nil))
	firstPayload := e.lastPayload

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest("GET", "/two?b=second", nil))

	// Assert
	assert.Equal(map[string]interface{}{"a": "first"}, firstPayload[waf.AddrQuery])
	assert.Equal(map[string]interface{}{"b": "second"}, e.lastPayload[waf.AddrQuery])
	assert.NotContains(e.lastPayload[waf.AddrQuery], "a")
}
