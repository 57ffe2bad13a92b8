// Package customrule is a small rule-driven evaluator that implements the
// waf.Evaluator contract. It exists so the coordination layer has a concrete
// collaborator to run against; production deployments bind their own engine.
package customrule

import (
	"io"
	"io/ioutil"
	"os"

	"gopkg.in/yaml.v2"
)

// MatchCondition specifies the condition that if satisfied causes the rule's action to run.
type MatchCondition struct {
	Addresses   []string `yaml:"addresses"`
	Operator    string   `yaml:"operator"`
	Negate      bool     `yaml:"negate"`
	MatchValues []string `yaml:"matchValues"`
}

// Rule is one customer specified rule evaluated against address payloads.
type Rule struct {
	Name            string           `yaml:"name"`
	Priority        int              `yaml:"priority"`
	Action          string           `yaml:"action"`
	MatchConditions []MatchCondition `yaml:"matchConditions"`
}

// Rule actions.
const (
	ActionBlock = "Block"
	ActionAllow = "Allow"
)

// LoadRules reads a YAML rule list.
func LoadRules(r io.Reader) (rules []Rule, err error) {
	bb, err := ioutil.ReadAll(r)
	if err != nil {
		return
	}
	err = yaml.Unmarshal(bb, &rules)
	return
}

// LoadRulesFile reads a YAML rule list from a file.
func LoadRulesFile(path string) (rules []Rule, err error) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	return LoadRules(f)
}
