package secctx

import (
	"webshield/waf"
)

type mockEvaluator struct {
	evaluateCalled int
	lastPayload    map[string]interface{}
	lastSubject    waf.Subject
	result         waf.Result
	err            error
}

func (m *mockEvaluator) Evaluate(payload map[string]interface{}, subject waf.Subject) (waf.Result, error) {
	m.evaluateCalled++
	m.lastPayload = payload
	m.lastSubject = subject
	return m.result, m.err
}

type mockResolver struct {
	values          map[string]interface{}
	resolveCalled   int
	lastSubjectSeen waf.Subject
}

func (m *mockResolver) ResolveAddress(subject waf.Subject, name string) (interface{}, bool) {
	m.resolveCalled++
	m.lastSubjectSeen = subject
	v, ok := m.values[name]
	return v, ok
}
