package pattern

import (
	"fmt"
	"time"

	"github.com/getsigsim/sigsim/pkg/simerr"
)

// RuleType identifies a validation rule applied to an error context before
// formatting.
type RuleType string

const (
	// RuleRequiredField demands the named field be present in the context.
	RuleRequiredField RuleType = "required_field"
	// RuleStringFormat demands the named field, when present, be a string.
	// Length constraints are deliberately left to message-level checks.
	RuleStringFormat RuleType = "string_format"
)

// Rule is one validation-rule entry on a Pattern.
type Rule struct {
	Type  RuleType `json:"type" yaml:"type"`
	Field string   `json:"field" yaml:"field"`
}

// Validate checks the rule is well formed.
func (r Rule) Validate() error {
	switch r.Type {
	case RuleRequiredField, RuleStringFormat:
	default:
		return simerr.Newf(simerr.InvalidRule, "unknown validation rule type %q", r.Type)
	}
	if r.Field == "" {
		return simerr.Newf(simerr.InvalidRule, "validation rule %q requires a field name", r.Type)
	}
	return nil
}

// Pattern is a registered error message template plus the contract a context
// must satisfy to format it.
type Pattern struct {
	ErrorType       simerr.ErrorType `json:"errorType" yaml:"errorType"`
	MessageTemplate string           `json:"messageTemplate" yaml:"messageTemplate"`
	RequiredFields  []string         `json:"requiredFields" yaml:"requiredFields"`
	ValidationRules []Rule           `json:"validationRules" yaml:"validationRules"`
}

// Validate checks the pattern can be registered.
func (p Pattern) Validate() error {
	if p.ErrorType == "" {
		return simerr.New(simerr.InvalidPattern, "error pattern requires an errorType")
	}
	if p.MessageTemplate == "" {
		return simerr.New(simerr.InvalidPattern, "error pattern requires a non-empty messageTemplate")
	}
	for i, f := range p.RequiredFields {
		if f == "" {
			return simerr.Newf(simerr.InvalidPattern, "requiredFields[%d] is blank", i)
		}
	}
	for i, rule := range p.ValidationRules {
		if err := rule.Validate(); err != nil {
			return simerr.Newf(simerr.InvalidPattern, "validationRules[%d]: %v", i, err)
		}
	}
	return nil
}

// clone returns a copy whose slices are independent of the original.
func (p Pattern) clone() Pattern {
	out := p
	if p.RequiredFields != nil {
		out.RequiredFields = append([]string(nil), p.RequiredFields...)
	}
	if p.ValidationRules != nil {
		out.ValidationRules = append([]Rule(nil), p.ValidationRules...)
	}
	return out
}

// FormattedError is the result of formatting a registered pattern against a
// context. Context is the exact map the caller passed in, not an augmented
// copy.
type FormattedError struct {
	ErrorType simerr.ErrorType `json:"errorType"`
	Message   string           `json:"message"`
	Context   map[string]any   `json:"context"`
	Timestamp time.Time        `json:"timestamp"`
}

// ErrorScenario forces operations matching Trigger to fail with the given
// error content. Trigger may be an operation name, the literal "all", or a
// specific input value. Path optionally narrows value comparison to a
// JSONPath selection of the input, and When optionally gates the match on an
// expr predicate over the input fields.
type ErrorScenario struct {
	Trigger   string           `json:"trigger" yaml:"trigger"`
	ErrorType simerr.ErrorType `json:"errorType" yaml:"errorType"`
	Message   string           `json:"message" yaml:"message"`
	Context   map[string]any   `json:"context,omitempty" yaml:"context,omitempty"`
	When      string           `json:"when,omitempty" yaml:"when,omitempty"`
	Path      string           `json:"path,omitempty" yaml:"path,omitempty"`
}

// Validate checks the scenario can be applied to a mock configuration.
// Generated scenarios may carry an empty trigger until a caller assigns one;
// configured scenarios must name a trigger.
func (s ErrorScenario) Validate() error {
	if s.Trigger == "" {
		return simerr.New(simerr.MockConfigurationError, "error scenario requires a trigger")
	}
	if s.ErrorType == "" {
		return simerr.New(simerr.MockConfigurationError, "error scenario requires an errorType")
	}
	if s.Message == "" {
		return simerr.New(simerr.MockConfigurationError, "error scenario requires a message")
	}
	return nil
}

// Err converts the scenario into the domain error a matching operation
// returns. Message and context pass through untouched.
func (s ErrorScenario) Err() *simerr.DomainError {
	return simerr.New(s.ErrorType, s.Message).WithContext(s.Context)
}

// ProductionPattern is one alternate template for synthesizing realistic
// failures of a given error type.
type ProductionPattern struct {
	ErrorType       simerr.ErrorType `json:"errorType" yaml:"errorType"`
	CodePattern     string           `json:"codePattern" yaml:"codePattern"`
	MessageTemplate string           `json:"messageTemplate" yaml:"messageTemplate"`
	ContextFields   []string         `json:"contextFields" yaml:"contextFields"`
	Severity        simerr.Severity  `json:"severity" yaml:"severity"`
}

// Validate checks the production pattern is registrable.
func (p ProductionPattern) Validate() error {
	if p.ErrorType == "" {
		return simerr.New(simerr.InvalidPattern, "production pattern requires an errorType")
	}
	if p.CodePattern == "" {
		return simerr.New(simerr.InvalidPattern, "production pattern requires a codePattern")
	}
	if p.MessageTemplate == "" {
		return simerr.New(simerr.InvalidPattern, "production pattern requires a messageTemplate")
	}
	if !placeholderIn(p.MessageTemplate, "errorCode") {
		return simerr.New(simerr.InvalidPattern, "production pattern message must embed {errorCode}")
	}
	if !simerr.ValidSeverity(p.Severity) {
		return simerr.Newf(simerr.InvalidPattern, "production pattern severity %q is not one of low/medium/high/critical", p.Severity)
	}
	return nil
}

func placeholderIn(template, name string) bool {
	return placeholderRegex.MatchString(template) && containsPlaceholder(template, name)
}

func containsPlaceholder(template, name string) bool {
	for _, m := range placeholderRegex.FindAllStringSubmatch(template, -1) {
		if len(m) > 1 && m[1] == name {
			return true
		}
	}
	return false
}

func (p ProductionPattern) String() string {
	return fmt.Sprintf("%s/%s", p.ErrorType, p.Severity)
}
