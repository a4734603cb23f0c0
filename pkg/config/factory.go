package config

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getsigsim/sigsim/internal/canon"
	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/logging"
	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Built-in configuration scenarios.
const (
	ScenarioUnitTesting        = "unit-testing"
	ScenarioIntegrationTesting = "integration-testing"
	ScenarioPropertyTesting    = "property-testing"
	ScenarioErrorTesting       = "error-testing"
	ScenarioPerformanceTesting = "performance-testing"
)

// Preset describes one built-in scenario.
type Preset struct {
	Name          string     `json:"name" yaml:"name"`
	Description   string     `json:"description" yaml:"description"`
	Complexity    Complexity `json:"complexity" yaml:"complexity"`
	FieldCount    Range      `json:"fieldCount" yaml:"fieldCount"`
	ScenarioCount Range      `json:"scenarioCount" yaml:"scenarioCount"`
}

var presetTable = map[string]Preset{
	ScenarioUnitTesting: {
		Name:          ScenarioUnitTesting,
		Description:   "Minimal fixtures for isolated unit tests",
		Complexity:    ComplexityLow,
		FieldCount:    Range{Min: 1, Max: 3},
		ScenarioCount: Range{Min: 0, Max: 1},
	},
	ScenarioIntegrationTesting: {
		Name:          ScenarioIntegrationTesting,
		Description:   "Cross-mock workflows with moderate field counts",
		Complexity:    ComplexityMedium,
		FieldCount:    Range{Min: 3, Max: 10},
		ScenarioCount: Range{Min: 1, Max: 3},
	},
	ScenarioPropertyTesting: {
		Name:          ScenarioPropertyTesting,
		Description:   "Outcome rotations for input-space exploration",
		Complexity:    ComplexityMedium,
		FieldCount:    Range{Min: 5, Max: 15},
		ScenarioCount: Range{Min: 2, Max: 4},
	},
	ScenarioErrorTesting: {
		Name:          ScenarioErrorTesting,
		Description:   "Dense error scenarios and failure-heavy rotations",
		Complexity:    ComplexityHigh,
		FieldCount:    Range{Min: 3, Max: 8},
		ScenarioCount: Range{Min: 4, Max: 8},
	},
	ScenarioPerformanceTesting: {
		Name:          ScenarioPerformanceTesting,
		Description:   "Large documents with many fields and deep validation",
		Complexity:    ComplexityHigh,
		FieldCount:    Range{Min: 50, Max: 200},
		ScenarioCount: Range{Min: 2, Max: 4},
	},
}

// performanceFieldFloor is the smallest field count a performance
// configuration may request.
const performanceFieldFloor = 50

// Constraints are the bounds a generated configuration was built for. Data
// compatibility checks compare actual configurations against them.
type Constraints struct {
	FieldCount           Range      `json:"fieldCount" yaml:"fieldCount"`
	ErrorScenarioCount   Range      `json:"errorScenarioCount" yaml:"errorScenarioCount"`
	ValidationComplexity Complexity `json:"validationComplexity" yaml:"validationComplexity"`
}

// GeneratedConfig is a fully built configuration set for one scenario.
type GeneratedConfig struct {
	Scenario    string                `json:"scenario" yaml:"scenario"`
	Complexity  Complexity            `json:"complexity" yaml:"complexity"`
	Constraints Constraints           `json:"constraints" yaml:"constraints"`
	Mocks       CombinedConfiguration `json:"mocks" yaml:"mocks"`
	CreatedAt   time.Time             `json:"createdAt" yaml:"createdAt"`
}

// Clone returns a deep copy sharing no mutable state with g.
func (g *GeneratedConfig) Clone() *GeneratedConfig {
	if g == nil {
		return nil
	}
	out := *g
	out.Mocks = g.Mocks.Clone()
	return &out
}

// Option adjusts one generation request.
type Option func(*genOptions)

type genOptions struct {
	FieldCount    *Range      `json:"fieldCount,omitempty"`
	ScenarioCount *Range      `json:"scenarioCount,omitempty"`
	Complexity    *Complexity `json:"validationComplexity,omitempty"`
}

// WithFieldCount overrides the preset's field-count range.
func WithFieldCount(min, max int) Option {
	return func(o *genOptions) {
		o.FieldCount = &Range{Min: min, Max: max}
	}
}

// WithScenarioCount overrides the preset's error-scenario range.
func WithScenarioCount(min, max int) Option {
	return func(o *genOptions) {
		o.ScenarioCount = &Range{Min: min, Max: max}
	}
}

// WithValidationComplexity overrides the preset's validation complexity.
func WithValidationComplexity(c Complexity) Option {
	return func(o *genOptions) {
		o.Complexity = &c
	}
}

// Factory generates scenario-appropriate configurations and caches them
// under deterministic keys.
type Factory struct {
	mu    sync.RWMutex
	cache map[string]*GeneratedConfig
	gen   *pattern.Generator
	clk   clock.Clock
	log   *slog.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithGenerator supplies the error generator used for scenario synthesis.
func WithGenerator(g *pattern.Generator) FactoryOption {
	return func(f *Factory) {
		if g != nil {
			f.gen = g
		}
	}
}

// WithClock pins the factory's time source.
func WithClock(c clock.Clock) FactoryOption {
	return func(f *Factory) {
		if c != nil {
			f.clk = c
		}
	}
}

// NewFactory creates a configuration factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		cache: make(map[string]*GeneratedConfig),
		clk:   clock.Real{},
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.gen == nil {
		f.gen = pattern.NewGenerator(pattern.WithClock(f.clk))
	}
	return f
}

// SetLogger sets the operational logger for the factory.
func (f *Factory) SetLogger(log *slog.Logger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if log != nil {
		f.log = log
	} else {
		f.log = logging.Nop()
	}
}

// Presets lists the built-in scenarios, lowest complexity first.
func (f *Factory) Presets() []Preset {
	out := make([]Preset, 0, len(presetTable))
	for _, p := range presetTable {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Complexity.Rank() != out[j].Complexity.Rank() {
			return out[i].Complexity.Rank() < out[j].Complexity.Rank()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CreateConfiguration builds (or returns the cached) configuration for a
// named scenario. The same scenario and options always produce structurally
// identical output.
func (f *Factory) CreateConfiguration(scenario string, opts ...Option) (*GeneratedConfig, error) {
	preset, ok := presetTable[scenario]
	if !ok {
		return nil, simerr.Newf(simerr.UnknownPreset,
			"unknown configuration scenario %q, expected one of %v", scenario, knownScenarios())
	}

	var o genOptions
	for _, opt := range opts {
		opt(&o)
	}

	cons := Constraints{
		FieldCount:           preset.FieldCount,
		ErrorScenarioCount:   preset.ScenarioCount,
		ValidationComplexity: preset.Complexity,
	}
	if o.FieldCount != nil {
		cons.FieldCount = *o.FieldCount
	}
	if o.ScenarioCount != nil {
		cons.ErrorScenarioCount = *o.ScenarioCount
	}
	if o.Complexity != nil {
		if !ValidComplexity(*o.Complexity) {
			return nil, simerr.Newf(simerr.MockConfigurationError, "unknown validation complexity %q", *o.Complexity)
		}
		cons.ValidationComplexity = *o.Complexity
	}
	if err := cons.FieldCount.Validate(); err != nil {
		return nil, fmt.Errorf("fieldCount: %w", err)
	}
	if err := cons.ErrorScenarioCount.Validate(); err != nil {
		return nil, fmt.Errorf("scenarioCount: %w", err)
	}
	if scenario == ScenarioPerformanceTesting {
		if cons.FieldCount.Min < performanceFieldFloor {
			return nil, simerr.Newf(simerr.MockConfigurationError,
				"performance-testing requires at least %d fields, got min %d", performanceFieldFloor, cons.FieldCount.Min)
		}
		cons.ValidationComplexity = ComplexityHigh
	}

	key := canon.Key("factory:"+scenario, o)

	f.mu.RLock()
	cached, hit := f.cache[key]
	f.mu.RUnlock()
	if hit {
		return cached.Clone(), nil
	}

	built := f.build(scenario, preset, cons)

	f.mu.Lock()
	if raced, ok := f.cache[key]; ok {
		built = raced
	} else {
		f.cache[key] = built
	}
	log := f.log
	f.mu.Unlock()

	log.Info("configuration generated",
		"scenario", scenario,
		"complexity", built.Complexity,
		"fields", len(built.Mocks.Field.Fields),
		"errorScenarios", totalScenarios(built.Mocks))

	return built.Clone(), nil
}

// CreateForComplexity builds the representative configuration for a bare
// complexity level.
func (f *Factory) CreateForComplexity(level Complexity, opts ...Option) (*GeneratedConfig, error) {
	switch level {
	case ComplexityLow:
		return f.CreateConfiguration(ScenarioUnitTesting, opts...)
	case ComplexityMedium:
		return f.CreateConfiguration(ScenarioIntegrationTesting, opts...)
	case ComplexityHigh:
		return f.CreateConfiguration(ScenarioErrorTesting, opts...)
	}
	return nil, simerr.Newf(simerr.UnknownPreset, "unknown complexity level %q, expected low, medium, or high", level)
}

// CacheSize reports how many generated configurations are cached.
func (f *Factory) CacheSize() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

// ClearCache drops all cached configurations.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]*GeneratedConfig)
}

func (f *Factory) build(scenario string, preset Preset, cons Constraints) *GeneratedConfig {
	seed := canon.Hash32(map[string]any{"scenario": scenario, "constraints": cons})

	fieldCount := cons.FieldCount.Min
	if w := cons.FieldCount.Width(); w > 1 {
		fieldCount += int(seed % uint32(w))
	}
	scenarioCount := cons.ErrorScenarioCount.Min
	if w := cons.ErrorScenarioCount.Width(); w > 1 {
		scenarioCount += int((seed >> 7) % uint32(w))
	}

	fields := buildFields(fieldCount)
	pageCount := 1
	if n := len(fields); n > 0 {
		pageCount = fields[n-1].Page
	}

	docState := &DocumentState{
		Version:   "1.7",
		PageCount: pageCount,
		Metadata: map[string]string{
			"producer": "sigsim",
			"scenario": scenario,
		},
	}
	behavior := &ValidationBehavior{
		Complexity:  cons.ValidationComplexity,
		StrictTypes: cons.ValidationComplexity == ComplexityHigh,
	}
	alignment := &AlignmentFlags{EnforceFieldRanges: true, EnforceScenarioLimit: true}

	docScenarios, fieldScenarios, cryptoScenarios := f.buildScenarios(scenarioCount)

	docCfg := &MockConfiguration{
		Fields:         fields,
		DocumentState:  docState,
		ErrorScenarios: docScenarios,
		ErrorPatterns:  enrichment(preset.Complexity, simerr.CategoryPDFProcessing),
		Alignment:      alignment,
	}
	fieldCfg := &MockConfiguration{
		Fields:             fields,
		ValidationBehavior: behavior,
		ErrorScenarios:     fieldScenarios,
		ErrorPatterns:      enrichment(preset.Complexity, simerr.CategoryInputValidation),
		Alignment:          alignment,
	}
	cryptoCfg := &MockConfiguration{
		ValidationBehavior: behavior,
		ErrorScenarios:     cryptoScenarios,
		ErrorPatterns:      enrichment(preset.Complexity, simerr.CategoryCryptographic),
		Alignment:          alignment,
	}

	switch scenario {
	case ScenarioPropertyTesting:
		fieldCfg.Outcomes = []Outcome{
			{IsValid: true},
			{IsValid: false, ErrorType: simerr.FieldValidationFailed},
			{IsValid: true},
		}
		cryptoCfg.Outcomes = []Outcome{
			{IsValid: true},
			{IsValid: false, ErrorType: simerr.CryptoValidationError},
			{IsValid: true},
			{IsValid: false, ErrorType: simerr.PKCS7Invalid},
		}
	case ScenarioErrorTesting:
		fieldCfg.Outcomes = []Outcome{
			{IsValid: false, ErrorType: simerr.FieldValidationFailed},
			{IsValid: true},
		}
		cryptoCfg.Outcomes = []Outcome{
			{IsValid: false, ErrorType: simerr.CryptoValidationError},
			{IsValid: false, ErrorType: simerr.PKCS7Invalid},
			{IsValid: false, ErrorType: simerr.SignatureInvalid},
			{IsValid: true},
		}
	}

	return &GeneratedConfig{
		Scenario:    scenario,
		Complexity:  preset.Complexity,
		Constraints: cons,
		Mocks: CombinedConfiguration{
			Document: docCfg,
			Field:    fieldCfg,
			Crypto:   cryptoCfg,
		},
		CreatedAt: f.clk.Now(),
	}
}

// buildFields lays signature fields out four to a page, two columns by two
// rows, top to bottom.
func buildFields(count int) []FieldDefinition {
	fields := make([]FieldDefinition, 0, count)
	for i := 0; i < count; i++ {
		col := i % 2
		row := (i / 2) % 2
		fields = append(fields, FieldDefinition{
			Name: fmt.Sprintf("signature_field_%d", i+1),
			Page: i/4 + 1,
			Bounds: Rect{
				X:      72 + float64(col)*288,
				Y:      680 - float64(row)*120,
				Width:  180,
				Height: 40,
			},
			Required: i%3 != 2,
		})
	}
	return fields
}

// scenarioRotation is the error-type cycle used for generated scenarios.
var scenarioRotation = []simerr.ErrorType{
	simerr.DocumentLoadError,
	simerr.FieldNotFound,
	simerr.CryptoValidationError,
	simerr.PKCS7Invalid,
	simerr.CertificateExpired,
	simerr.TimestampInvalid,
	simerr.FieldValidationFailed,
	simerr.TamperDetected,
}

func (f *Factory) buildScenarios(count int) (doc, field, crypto []pattern.ErrorScenario) {
	for i := 0; i < count; i++ {
		t := scenarioRotation[i%len(scenarioRotation)]
		sc := f.gen.GenerateRealisticError(t, map[string]any{
			"scenarioIndex": i,
			"documentId":    fmt.Sprintf("test_document_%d", i),
			"fieldName":     fmt.Sprintf("test_field_%d", i),
			"signerName":    fmt.Sprintf("test_signer_%d", i),
		})
		sc.Trigger = triggerForType(t)
		sc.When = scenarioGate(t, i)
		switch t.Category() {
		case simerr.CategoryPDFProcessing:
			doc = append(doc, *sc)
		case simerr.CategoryInputValidation:
			field = append(field, *sc)
		default:
			crypto = append(crypto, *sc)
		}
	}
	return doc, field, crypto
}

// scenarioGate pins a generated scenario to its designated trigger input.
// Configured error paths fire only when a test addresses the scenario's
// document, field, or signer on purpose; every other call passes through.
func scenarioGate(t simerr.ErrorType, i int) string {
	switch t.Category() {
	case simerr.CategoryPDFProcessing:
		return fmt.Sprintf(`documentId == "test_document_%d"`, i)
	case simerr.CategoryInputValidation:
		return fmt.Sprintf(`fieldName == "test_field_%d"`, i)
	default:
		return fmt.Sprintf(`signerName == "test_signer_%d"`, i)
	}
}

// triggerForType maps an error type onto the mock operation that naturally
// raises it.
func triggerForType(t simerr.ErrorType) string {
	switch t {
	case simerr.DocumentLoadError:
		return "loadDocument"
	case simerr.DocumentNotLoaded:
		return "discoverFields"
	case simerr.FieldNotFound:
		return "lookupField"
	case simerr.FieldValidationFailed:
		return "validateField"
	case simerr.PKCS7Invalid:
		return "validatePKCS7"
	case simerr.CryptoValidationError, simerr.SignatureInvalid,
		simerr.CertificateExpired, simerr.CertificateRevoked, simerr.TimestampInvalid:
		return "verifySignature"
	case simerr.TamperDetected:
		return "detectTampering"
	}
	return "all"
}

// enrichmentPatterns are the extra error patterns richer configurations
// register on top of the built-in catalog.
var enrichmentPatterns = map[string]struct {
	category simerr.Category
	pattern  pattern.Pattern
}{
	"document-quota-exceeded": {
		category: simerr.CategoryPDFProcessing,
		pattern: pattern.Pattern{
			ErrorType:       simerr.DocumentLoadError,
			MessageTemplate: "Document quota exceeded for {tenantId}: limit {limit}",
			RequiredFields:  []string{"tenantId"},
		},
	},
	"hsm-session-failure": {
		category: simerr.CategoryCryptographic,
		pattern: pattern.Pattern{
			ErrorType:       simerr.CryptoValidationError,
			MessageTemplate: "HSM session {sessionId} terminated unexpectedly: {reason}",
			RequiredFields:  []string{"sessionId", "reason"},
		},
	},
	"field-collision": {
		category: simerr.CategoryInputValidation,
		pattern: pattern.Pattern{
			ErrorType:       simerr.FieldValidationFailed,
			MessageTemplate: `Field "{fieldName}" overlaps existing field "{otherField}" on page {page}`,
			RequiredFields:  []string{"fieldName", "otherField"},
		},
	},
}

// enrichment selects extra patterns for one mock's category. Low complexity
// adds none, medium adds the category's own pattern, high adds all patterns
// regardless of category.
func enrichment(level Complexity, cat simerr.Category) map[string]pattern.Pattern {
	keys := make([]string, 0, len(enrichmentPatterns))
	for k := range enrichmentPatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]pattern.Pattern)
	for _, k := range keys {
		e := enrichmentPatterns[k]
		switch level {
		case ComplexityMedium:
			if e.category == cat {
				out[k] = e.pattern
			}
		case ComplexityHigh:
			out[k] = e.pattern
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func knownScenarios() []string {
	out := make([]string, 0, len(presetTable))
	for name := range presetTable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func totalScenarios(c CombinedConfiguration) int {
	n := 0
	if c.Document != nil {
		n += len(c.Document.ErrorScenarios)
	}
	if c.Field != nil {
		n += len(c.Field.ErrorScenarios)
	}
	if c.Crypto != nil {
		n += len(c.Crypto.ErrorScenarios)
	}
	return n
}
