// Package review classifies a logged play call against the defense that was
// observed, using ordered expression rules. The first matching rule wins.
package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/okian/rugbysim/internal/domain/catalog"
	"github.com/okian/rugbysim/internal/domain/model"
)

// Classifications.
const (
	TacticalMismatch = "tactical_mismatch"
	Inefficient      = "inefficient"
	AttritionRisk    = "attrition_risk"
	Aligned          = "aligned"
)

// LoggedCall is a play call as recorded after the fact.
type LoggedCall struct {
	Phase   int    `json:"phase"`
	Call    string `json:"call"`
	Defense string `json:"defense"`
	Outcome string `json:"outcome"`
}

// Verdict is the reviewer's classification of a call.
type Verdict struct {
	Rule           string `json:"rule"`
	Classification string `json:"classification"`
	Rationale      string `json:"rationale"`
	Defense        string `json:"defense"`
}

// Env is what rule conditions are evaluated against. Defense holds the
// catalog key of the observed system.
type Env struct {
	Phase   int
	Call    string
	Defense string
	Outcome string
	Markers catalog.Markers
}

// Wide reports whether the call is a wide shape.
func (e Env) Wide() bool { return e.Markers.IsWide(e.Call) }

// Pod reports whether the call is a forward pod shape.
func (e Env) Pod() bool { return e.Markers.IsPod(e.Call) }

// Turnover reports whether the logged outcome lost the ball.
func (e Env) Turnover() bool {
	return strings.Contains(strings.ToLower(e.Outcome), "turnover")
}

// Rule is a condition and the verdict it produces.
type Rule struct {
	Name           string
	Priority       int // higher is evaluated first
	ConditionSrc   string
	Classification string
	Rationale      string
	program        *vm.Program
}

// DefaultRules is the standard rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:           "blitz-wide",
			Priority:       300,
			ConditionSrc:   `Defense == "blitz" && Wide()`,
			Classification: TacticalMismatch,
			Rationale:      "Blitz line speed closes the space before a wide shape reaches the edge.",
		},
		{
			Name:           "drift-pod",
			Priority:       200,
			ConditionSrc:   `Defense == "drift" && Pod()`,
			Classification: Inefficient,
			Rationale:      "A drift defense concedes the inside; a pod carry gains little against it.",
		},
		{
			Name:           "late-phase-turnover",
			Priority:       150,
			ConditionSrc:   `Phase >= 4 && Turnover()`,
			Classification: AttritionRisk,
			Rationale:      "Ball lost deep into the sequence; fatigue is eroding execution.",
		},
		{
			Name:           "default",
			Priority:       0,
			ConditionSrc:   `true`,
			Classification: Aligned,
			Rationale:      "The call fits the defensive picture.",
		},
	}
}

// Option configures a Reviewer.
type Option func(*Reviewer)

// WithRules replaces the default rule set.
func WithRules(rules ...Rule) Option {
	return func(r *Reviewer) { r.rules = append([]Rule(nil), rules...) }
}

// Reviewer evaluates calls against compiled rules.
type Reviewer struct {
	reg   *catalog.Registry
	rules []Rule
}

// New compiles the rules and orders them by priority.
func New(reg *catalog.Registry, opts ...Option) (*Reviewer, error) {
	r := &Reviewer{reg: reg, rules: DefaultRules()}
	for _, opt := range opts {
		opt(r)
	}
	for i := range r.rules {
		prog, err := expr.Compile(r.rules[i].ConditionSrc, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRule, r.rules[i].Name, err)
		}
		r.rules[i].program = prog
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority > r.rules[j].Priority
	})
	return r, nil
}

// Rules returns the rule names in evaluation order.
func (r *Reviewer) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Review classifies call. The defense must be in the catalog.
func (r *Reviewer) Review(call LoggedCall) (Verdict, error) {
	def, err := r.reg.Defense(call.Defense)
	if err != nil {
		return Verdict{}, err
	}
	if call.Phase < 1 {
		return Verdict{}, fmt.Errorf("%w: %d", model.ErrInvalidPhase, call.Phase)
	}
	env := Env{
		Phase:   call.Phase,
		Call:    call.Call,
		Defense: def.Key,
		Outcome: call.Outcome,
		Markers: r.reg.Markers(),
	}
	for _, rule := range r.rules {
		out, err := vm.Run(rule.program, env)
		if err != nil {
			return Verdict{}, fmt.Errorf("evaluate rule %q: %w", rule.Name, err)
		}
		if matched, _ := out.(bool); matched {
			return Verdict{
				Rule:           rule.Name,
				Classification: rule.Classification,
				Rationale:      rule.Rationale,
				Defense:        def.Key,
			}, nil
		}
	}
	return Verdict{}, ErrNoMatchingRule
}
