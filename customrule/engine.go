package customrule

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"webshield/waf"
)

// Engine evaluates custom rules against address payloads.
type Engine interface {
	waf.Evaluator

	// RequiredAddresses is the union of all addresses the rules inspect,
	// suitable as the needed set when binding the engine.
	RequiredAddresses() []string
}

// RuleMatch describes how a rule got matched.
type RuleMatch struct {
	RuleName     string `json:"ruleName"`
	Address      string `json:"address"`
	Operator     string `json:"operator"`
	MatchedValue string `json:"matchedValue"`
}

// Diagnostics summarizes one engine invocation.
type Diagnostics struct {
	RulesEvaluated    int `json:"rulesEvaluated"`
	AddressesReceived int `json:"addressesReceived"`
}

// NewEngine creates an Engine from rules, precompiling regex operators.
// Rules run in priority order; an Allow action stops evaluation without
// blocking, a Block action marks the outcome blocked.
func NewEngine(logger zerolog.Logger, rules []Rule) (engine Engine, err error) {
	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	regexes := make(map[string]*regexp.Regexp)
	for _, rule := range sorted {
		for _, cond := range rule.MatchConditions {
			if cond.Operator != "Regex" {
				continue
			}
			for _, mv := range cond.MatchValues {
				if _, ok := regexes[mv]; ok {
					continue
				}
				var rx *regexp.Regexp
				rx, err = regexp.Compile(mv)
				if err != nil {
					err = fmt.Errorf("rule %v has invalid regex %q: %v", rule.Name, mv, err)
					return
				}
				regexes[mv] = rx
			}
		}
	}

	engine = &engineImpl{
		logger:  logger,
		rules:   sorted,
		regexes: regexes,
	}
	return
}

type engineImpl struct {
	logger  zerolog.Logger
	rules   []Rule
	regexes map[string]*regexp.Regexp
}

func (e *engineImpl) RequiredAddresses() (addresses []string) {
	seen := make(map[string]bool)
	for _, rule := range e.rules {
		for _, cond := range rule.MatchConditions {
			for _, addr := range cond.Addresses {
				if !seen[addr] {
					seen[addr] = true
					addresses = append(addresses, addr)
				}
			}
		}
	}
	return
}

// Evaluate runs the rules against the payload. All of a rule's conditions
// must match for the rule to trigger.
func (e *engineImpl) Evaluate(payload map[string]interface{}, subject waf.Subject) (result waf.Result, err error) {
	decision, matches, evaluated := e.evalRules(payload)

	result.Blocked = decision == waf.Block
	result.MatchData = matches
	result.Diagnostics = Diagnostics{RulesEvaluated: evaluated, AddressesReceived: len(payload)}
	return
}

func (e *engineImpl) evalRules(payload map[string]interface{}) (decision waf.Decision, matches []RuleMatch, evaluated int) {
	decision = waf.Pass

	for _, rule := range e.rules {
		evaluated++

		ruleMatches, triggered := e.evalRule(rule, payload)
		if !triggered {
			continue
		}

		e.logger.Debug().Str("rule", rule.Name).Str("action", rule.Action).Msg("Custom rule triggered")
		matches = append(matches, ruleMatches...)

		switch rule.Action {
		case ActionAllow:
			return waf.Allow, matches, evaluated
		case ActionBlock:
			return waf.Block, matches, evaluated
		}
	}

	return
}

func (e *engineImpl) evalRule(rule Rule, payload map[string]interface{}) (matches []RuleMatch, triggered bool) {
	for _, cond := range rule.MatchConditions {
		match, ok := e.evalCondition(cond, payload)
		if !ok {
			return nil, false
		}
		match.RuleName = rule.Name
		matches = append(matches, match)
	}
	return matches, len(rule.MatchConditions) > 0
}

func (e *engineImpl) evalCondition(cond MatchCondition, payload map[string]interface{}) (match RuleMatch, ok bool) {
	for _, addr := range cond.Addresses {
		value, present := payload[addr]
		if !present {
			continue
		}
		for _, s := range flattenValue(value) {
			matched := e.evalOperator(cond.Operator, s, cond.MatchValues)
			if matched != cond.Negate {
				return RuleMatch{Address: addr, Operator: cond.Operator, MatchedValue: s}, true
			}
		}
	}
	return
}

func (e *engineImpl) evalOperator(operator string, s string, matchValues []string) bool {
	for _, mv := range matchValues {
		switch operator {
		case "Contains":
			if strings.Contains(s, mv) {
				return true
			}
		case "Equals":
			if s == mv {
				return true
			}
		case "BeginsWith":
			if strings.HasPrefix(s, mv) {
				return true
			}
		case "EndsWith":
			if strings.HasSuffix(s, mv) {
				return true
			}
		case "Regex":
			if rx := e.regexes[mv]; rx != nil && rx.MatchString(s) {
				return true
			}
		}
	}
	return false
}

// flattenValue turns an address payload value into the strings the
// operators run against. Map values contribute both keys and values.
func flattenValue(value interface{}) (out []string) {
	switch value := value.(type) {
	case string:
		out = append(out, value)
	case []string:
		out = append(out, value...)
	case bool:
		out = append(out, fmt.Sprint(value))
	case []interface{}:
		for _, v := range value {
			out = append(out, flattenValue(v)...)
		}
	case map[string]interface{}:
		for k, v := range value {
			out = append(out, k)
			out = append(out, flattenValue(v)...)
		}
	case map[string]string:
		for k, v := range value {
			out = append(out, k, v)
		}
	default:
		if value != nil {
			out = append(out, fmt.Sprint(value))
		}
	}
	return
}
