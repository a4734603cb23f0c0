package config

import (
	"encoding/json"
	"fmt"

	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Complexity grades how demanding a generated configuration is.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ValidComplexity reports whether c is a known complexity level.
func ValidComplexity(c Complexity) bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}

// Rank returns the ordinal position of a complexity, low first. Unknown
// levels rank 0.
func (c Complexity) Rank() int {
	switch c {
	case ComplexityLow:
		return 1
	case ComplexityMedium:
		return 2
	case ComplexityHigh:
		return 3
	}
	return 0
}

// Range is an inclusive integer interval.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Validate checks the range is non-negative and ordered.
func (r Range) Validate() error {
	if r.Min < 0 {
		return simerr.Newf(simerr.MockConfigurationError, "range min %d must not be negative", r.Min)
	}
	if r.Max < r.Min {
		return simerr.Newf(simerr.MockConfigurationError, "range max %d is below min %d", r.Max, r.Min)
	}
	return nil
}

// Contains reports whether n falls inside the range.
func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Width returns the number of integers the range covers.
func (r Range) Width() int {
	if r.Max < r.Min {
		return 0
	}
	return r.Max - r.Min + 1
}

// Rect is a field rectangle in PDF user-space points.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// FieldDefinition describes one signature field a mock should expose.
type FieldDefinition struct {
	Name     string `json:"name" yaml:"name"`
	Page     int    `json:"page" yaml:"page"`
	Bounds   Rect   `json:"bounds" yaml:"bounds"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Validate checks the definition is usable.
func (f FieldDefinition) Validate() error {
	if f.Name == "" {
		return simerr.New(simerr.MockConfigurationError, "field definition requires a name")
	}
	if f.Page < 1 {
		return simerr.Newf(simerr.MockConfigurationError, "field %q page %d must be >= 1", f.Name, f.Page)
	}
	if f.Bounds.Width < 0 || f.Bounds.Height < 0 {
		return simerr.Newf(simerr.MockConfigurationError, "field %q bounds must not be negative", f.Name)
	}
	return nil
}

// DocumentState shapes the documents the document mock synthesizes.
type DocumentState struct {
	Version   string            `json:"version,omitempty" yaml:"version,omitempty"`
	PageCount int               `json:"pageCount,omitempty" yaml:"pageCount,omitempty"`
	Encrypted bool              `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Validate checks the state is usable.
func (d DocumentState) Validate() error {
	if d.PageCount < 0 {
		return simerr.Newf(simerr.MockConfigurationError, "document pageCount %d must not be negative", d.PageCount)
	}
	return nil
}

func (d DocumentState) clone() DocumentState {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// ValidationBehavior tunes how validating operations decide results when no
// scenario and no outcome rotation applies.
type ValidationBehavior struct {
	// ShouldSucceed forces the heuristic verdict when set. Nil lets the
	// built-in heuristics decide per input.
	ShouldSucceed *bool `json:"shouldSucceed,omitempty" yaml:"shouldSucceed,omitempty"`
	// Complexity records the validation depth the configuration was
	// generated for.
	Complexity Complexity `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	// IgnoreExpiry disables the expired-timestamp failure heuristic.
	IgnoreExpiry bool `json:"ignoreExpiry,omitempty" yaml:"ignoreExpiry,omitempty"`
	// StrictTypes makes field validation reject non-string values.
	StrictTypes bool `json:"strictTypes,omitempty" yaml:"strictTypes,omitempty"`
}

// Validate checks the behavior is usable.
func (v ValidationBehavior) Validate() error {
	if v.Complexity != "" && !ValidComplexity(v.Complexity) {
		return simerr.Newf(simerr.MockConfigurationError, "unknown validation complexity %q", v.Complexity)
	}
	return nil
}

func (v ValidationBehavior) clone() ValidationBehavior {
	out := v
	if v.ShouldSucceed != nil {
		b := *v.ShouldSucceed
		out.ShouldSucceed = &b
	}
	return out
}

// Outcome is one entry of a deterministic result rotation. Operations pick
// the entry indexed by the content hash of their input modulo the rotation
// length.
type Outcome struct {
	IsValid   bool             `json:"isValid" yaml:"isValid"`
	ErrorType simerr.ErrorType `json:"errorType,omitempty" yaml:"errorType,omitempty"`
	Message   string           `json:"message,omitempty" yaml:"message,omitempty"`
}

// Validate checks the outcome entry is coherent.
func (o Outcome) Validate() error {
	if o.IsValid && o.ErrorType != "" {
		return simerr.Newf(simerr.MockConfigurationError, "valid outcome must not carry errorType %q", o.ErrorType)
	}
	if !o.IsValid && o.ErrorType == "" {
		return simerr.New(simerr.MockConfigurationError, "invalid outcome requires an errorType")
	}
	return nil
}

// AlignmentFlags gate the cross-checks between mock configurations and
// generated data.
type AlignmentFlags struct {
	EnforceFieldRanges   bool `json:"enforceFieldRanges" yaml:"enforceFieldRanges"`
	EnforceScenarioLimit bool `json:"enforceScenarioLimit" yaml:"enforceScenarioLimit"`
}

// MockConfiguration is everything one mock reads at operation time. The zero
// value is the empty baseline every mock reverts to on reset.
type MockConfiguration struct {
	Fields             []FieldDefinition          `json:"fields,omitempty" yaml:"fields,omitempty"`
	DocumentState      *DocumentState             `json:"documentState,omitempty" yaml:"documentState,omitempty"`
	ValidationBehavior *ValidationBehavior        `json:"validationBehavior,omitempty" yaml:"validationBehavior,omitempty"`
	Outcomes           []Outcome                  `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	ErrorScenarios     []pattern.ErrorScenario    `json:"errorScenarios,omitempty" yaml:"errorScenarios,omitempty"`
	ErrorPatterns      map[string]pattern.Pattern `json:"errorPatterns,omitempty" yaml:"errorPatterns,omitempty"`
	Alignment          *AlignmentFlags            `json:"alignment,omitempty" yaml:"alignment,omitempty"`
}

// Validate checks every section of the configuration.
func (c MockConfiguration) Validate() error {
	names := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("fields[%d]: %w", i, err)
		}
		if names[f.Name] {
			return simerr.Newf(simerr.MockConfigurationError, "fields[%d]: duplicate field name %q", i, f.Name)
		}
		names[f.Name] = true
	}
	if c.DocumentState != nil {
		if err := c.DocumentState.Validate(); err != nil {
			return fmt.Errorf("documentState: %w", err)
		}
	}
	if c.ValidationBehavior != nil {
		if err := c.ValidationBehavior.Validate(); err != nil {
			return fmt.Errorf("validationBehavior: %w", err)
		}
	}
	for i, o := range c.Outcomes {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("outcomes[%d]: %w", i, err)
		}
	}
	for i, s := range c.ErrorScenarios {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("errorScenarios[%d]: %w", i, err)
		}
	}
	for key, p := range c.ErrorPatterns {
		if key == "" {
			return simerr.New(simerr.MockConfigurationError, "errorPatterns key must not be empty")
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("errorPatterns[%s]: %w", key, err)
		}
	}
	return nil
}

// Merge returns a copy of c with every populated top-level key of patch
// replacing the corresponding key wholesale. Absent patch keys keep the base
// value. Merging is shallow on purpose: a patch that wants to keep two of
// three fields resends all three.
func (c MockConfiguration) Merge(patch MockConfiguration) MockConfiguration {
	out := c.Clone()
	if patch.Fields != nil {
		out.Fields = cloneFields(patch.Fields)
	}
	if patch.DocumentState != nil {
		ds := patch.DocumentState.clone()
		out.DocumentState = &ds
	}
	if patch.ValidationBehavior != nil {
		vb := patch.ValidationBehavior.clone()
		out.ValidationBehavior = &vb
	}
	if patch.Outcomes != nil {
		out.Outcomes = append([]Outcome(nil), patch.Outcomes...)
	}
	if patch.ErrorScenarios != nil {
		out.ErrorScenarios = cloneScenarios(patch.ErrorScenarios)
	}
	if patch.ErrorPatterns != nil {
		out.ErrorPatterns = clonePatterns(patch.ErrorPatterns)
	}
	if patch.Alignment != nil {
		a := *patch.Alignment
		out.Alignment = &a
	}
	return out
}

// Clone returns a deep copy sharing no mutable state with c.
func (c MockConfiguration) Clone() MockConfiguration {
	out := MockConfiguration{}
	if c.Fields != nil {
		out.Fields = cloneFields(c.Fields)
	}
	if c.DocumentState != nil {
		ds := c.DocumentState.clone()
		out.DocumentState = &ds
	}
	if c.ValidationBehavior != nil {
		vb := c.ValidationBehavior.clone()
		out.ValidationBehavior = &vb
	}
	if c.Outcomes != nil {
		out.Outcomes = append([]Outcome(nil), c.Outcomes...)
	}
	if c.ErrorScenarios != nil {
		out.ErrorScenarios = cloneScenarios(c.ErrorScenarios)
	}
	if c.ErrorPatterns != nil {
		out.ErrorPatterns = clonePatterns(c.ErrorPatterns)
	}
	if c.Alignment != nil {
		a := *c.Alignment
		out.Alignment = &a
	}
	return out
}

// IsZero reports whether the configuration is the empty baseline.
func (c MockConfiguration) IsZero() bool {
	return c.Fields == nil && c.DocumentState == nil && c.ValidationBehavior == nil &&
		c.Outcomes == nil && c.ErrorScenarios == nil && c.ErrorPatterns == nil && c.Alignment == nil
}

// CombinedConfiguration groups per-mock sections for coordinator fan-out.
// Nil sections leave the corresponding mock untouched.
type CombinedConfiguration struct {
	Document *MockConfiguration `json:"document,omitempty" yaml:"document,omitempty"`
	Field    *MockConfiguration `json:"field,omitempty" yaml:"field,omitempty"`
	Crypto   *MockConfiguration `json:"crypto,omitempty" yaml:"crypto,omitempty"`
}

// Validate checks every present section.
func (c CombinedConfiguration) Validate() error {
	if c.Document != nil {
		if err := c.Document.Validate(); err != nil {
			return fmt.Errorf("document: %w", err)
		}
	}
	if c.Field != nil {
		if err := c.Field.Validate(); err != nil {
			return fmt.Errorf("field: %w", err)
		}
	}
	if c.Crypto != nil {
		if err := c.Crypto.Validate(); err != nil {
			return fmt.Errorf("crypto: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy sharing no mutable state with c.
func (c CombinedConfiguration) Clone() CombinedConfiguration {
	out := CombinedConfiguration{}
	if c.Document != nil {
		d := c.Document.Clone()
		out.Document = &d
	}
	if c.Field != nil {
		f := c.Field.Clone()
		out.Field = &f
	}
	if c.Crypto != nil {
		cr := c.Crypto.Clone()
		out.Crypto = &cr
	}
	return out
}

func cloneFields(fields []FieldDefinition) []FieldDefinition {
	return append([]FieldDefinition(nil), fields...)
}

func cloneScenarios(scenarios []pattern.ErrorScenario) []pattern.ErrorScenario {
	out := append([]pattern.ErrorScenario(nil), scenarios...)
	for i := range out {
		out[i].Context = CopyContext(out[i].Context)
	}
	return out
}

func clonePatterns(patterns map[string]pattern.Pattern) map[string]pattern.Pattern {
	out := make(map[string]pattern.Pattern, len(patterns))
	for k, p := range patterns {
		cp := p
		if p.RequiredFields != nil {
			cp.RequiredFields = append([]string(nil), p.RequiredFields...)
		}
		if p.ValidationRules != nil {
			cp.ValidationRules = append([]pattern.Rule(nil), p.ValidationRules...)
		}
		out[k] = cp
	}
	return out
}

// CopyContext deep-copies a context bag through a JSON round-trip, falling
// back to a shallow copy for values JSON cannot carry.
func CopyContext(ctx map[string]any) map[string]any {
	if ctx == nil {
		return nil
	}
	raw, err := json.Marshal(ctx)
	if err == nil {
		var out map[string]any
		if err := json.Unmarshal(raw, &out); err == nil {
			return out
		}
	}
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
