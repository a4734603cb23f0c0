package sim

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/getsigsim/sigsim/internal/canon"
	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/internal/id"
	"github.com/getsigsim/sigsim/internal/matching"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/logging"
	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// TriggerAll is the error-scenario trigger that matches every operation.
const TriggerAll = "all"

// Operation names recorded in history and matched by scenario triggers.
const (
	opLoadDocument            = "loadDocument"
	opDiscoverFields          = "discoverFields"
	opGetField                = "getField"
	opSetFieldValue           = "setFieldValue"
	opUpdateDocumentState     = "updateDocumentState"
	opAddIncrementalSignature = "addIncrementalSignature"
	opExtractSignatures       = "extractSignatures"
	opRegisterField           = "registerField"
	opLookupField             = "lookupField"
	opValidateField           = "validateField"
	opValidatePKCS7           = "validatePKCS7"
	opVerifySignature         = "verifySignature"
	opDetectTampering         = "detectTampering"
	opSignDocument            = "signDocument"
)

// Failure is the uniform internal form of a simulated failure before each
// mock maps it onto its own return style.
type Failure struct {
	ErrorType simerr.ErrorType
	Message   string
	Code      string
	Severity  simerr.Severity
	Context   map[string]any
}

// Err renders the failure as a domain error, for the error-returning mocks.
func (f *Failure) Err() *simerr.DomainError {
	sev := f.Severity
	if sev == "" {
		sev = f.ErrorType.DefaultSeverity()
	}
	return &simerr.DomainError{
		Type:     f.ErrorType,
		Code:     f.Code,
		Message:  f.Message,
		Severity: sev,
		Context:  config.CopyContext(f.Context),
	}
}

// Result renders the failure as an invalid validation result, for the
// value-returning mocks.
func (f *Failure) Result() *ValidationResult {
	return &ValidationResult{
		IsValid:   false,
		ErrorType: f.ErrorType,
		Message:   f.Message,
		Context:   config.CopyContext(f.Context),
	}
}

// outcome is the cached product of one operation: a payload or a failure.
type outcome struct {
	value   any
	failure *Failure
}

// operation describes one mock call to the engine. precheck enforces
// stateful preconditions and always runs on a cache miss; check holds the
// built-in heuristics and runs only when no scenario or configured outcome
// decided the call; payload builds the success value and may mutate mock
// state. All three run with the engine lock held.
type operation struct {
	name     string
	input    map[string]any
	precheck func() *Failure
	check    func() *Failure
	payload  func() any
}

// Option configures a mock at construction time.
type Option func(*engine)

// WithConfiguration seeds the mock with an initial configuration. The value
// is cloned; later mutations of the caller's copy do not leak in.
func WithConfiguration(cfg config.MockConfiguration) Option {
	return func(e *engine) {
		e.cfg = cfg.Clone()
	}
}

// WithGenerator supplies the generator used for built-in failure messages.
func WithGenerator(g *pattern.Generator) Option {
	return func(e *engine) {
		e.gen = g
	}
}

// WithClock supplies the time source for record timestamps and expiry
// heuristics.
func WithClock(c clock.Clock) Option {
	return func(e *engine) {
		e.clk = c
	}
}

// engine is the deterministic core shared by the three mocks. The mutex
// guards configuration, cache, history, and the owning mock's entity state,
// which the operation closures touch while the lock is held.
type engine struct {
	name string

	mu      sync.RWMutex
	cfg     config.MockConfiguration
	cache   map[string]outcome
	history []OperationRecord

	gen  *pattern.Generator
	eval *matching.Evaluator
	clk  clock.Clock
	log  *slog.Logger
}

func newEngine(name string, opts ...Option) *engine {
	e := &engine{
		name:  name,
		cache: make(map[string]outcome),
		eval:  matching.NewEvaluator(),
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clk == nil {
		e.clk = clock.Real{}
	}
	if e.gen == nil {
		e.gen = pattern.NewGenerator(pattern.WithClock(e.clk))
	}
	return e
}

func (e *engine) setLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = log
}

// execute runs the shared pipeline: open a record, consult the cache, match
// scenarios, pick a configured outcome or fall back to heuristics, then
// cache and append. Cache hits still append a record.
func (e *engine) execute(op operation) outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec := OperationRecord{
		ID:        id.ULID(),
		Type:      op.name,
		Input:     config.CopyContext(op.input),
		Timestamp: e.clk.Now(),
	}

	key := canon.Key(op.name, op.input)
	out, hit := e.cache[key]
	if !hit {
		out = e.evaluate(op)
		e.cache[key] = out
	}

	rec.Result = outcomeSummary(out)
	e.history = append(e.history, rec)

	if out.failure != nil {
		e.log.Debug("simulated failure",
			"mock", e.name,
			"operation", op.name,
			"errorType", string(out.failure.ErrorType),
			"cached", hit,
		)
	}
	return out
}

func (e *engine) evaluate(op operation) outcome {
	if f := e.matchScenario(op.name, op.input); f != nil {
		return outcome{failure: f}
	}
	if op.precheck != nil {
		if f := op.precheck(); f != nil {
			return outcome{failure: f}
		}
	}
	if len(e.cfg.Outcomes) > 0 {
		picked := e.cfg.Outcomes[canon.Pick(op.input, len(e.cfg.Outcomes))]
		if !picked.IsValid {
			return outcome{failure: e.configuredFailure(picked, op.input)}
		}
		return outcome{value: runPayload(op)}
	}
	if op.check != nil {
		if f := op.check(); f != nil {
			return outcome{failure: f}
		}
	}
	return outcome{value: runPayload(op)}
}

func runPayload(op operation) any {
	if op.payload == nil {
		return nil
	}
	return op.payload()
}

// matchScenario returns the failure for the first configured scenario whose
// trigger matches the operation, or nil. Scenario content is returned
// byte-for-byte; it never passes through the generator.
func (e *engine) matchScenario(op string, input map[string]any) *Failure {
	for i := range e.cfg.ErrorScenarios {
		sc := &e.cfg.ErrorScenarios[i]
		if !e.scenarioTriggers(sc, op, input) {
			continue
		}
		if sc.When != "" {
			env := config.CopyContext(input)
			if env == nil {
				env = make(map[string]any, 1)
			}
			env["operation"] = op
			ok, err := e.eval.EvalBool(sc.When, env)
			if err != nil {
				e.log.Warn("error scenario predicate failed",
					"mock", e.name, "trigger", sc.Trigger, "error", err)
				continue
			}
			if !ok {
				continue
			}
		}
		return &Failure{
			ErrorType: sc.ErrorType,
			Message:   sc.Message,
			Severity:  sc.ErrorType.DefaultSeverity(),
			Context:   config.CopyContext(sc.Context),
		}
	}
	return nil
}

// scenarioTriggers implements trigger matching: the literal "all", the
// operation name or an operation-family prefix of it ("validate" matches
// validatePKCS7), or an input value, drawn from the scenario's JSONPath when
// one is configured and from every input leaf otherwise.
func (e *engine) scenarioTriggers(sc *pattern.ErrorScenario, op string, input map[string]any) bool {
	if sc.Trigger == TriggerAll || sc.Trigger == op || strings.HasPrefix(op, sc.Trigger) {
		return true
	}
	if sc.Path != "" {
		vals, err := matching.ExtractPath(input, sc.Path)
		if err != nil {
			return false
		}
		for _, v := range vals {
			if matching.ValuesEqual(v, sc.Trigger) {
				return true
			}
		}
		return false
	}
	return matching.HasValue(input, sc.Trigger)
}

// configuredFailure turns a picked invalid outcome into a failure. An
// outcome without a message borrows one from the generator so the result
// still looks production-like.
func (e *engine) configuredFailure(o config.Outcome, input map[string]any) *Failure {
	if o.Message != "" {
		return &Failure{
			ErrorType: o.ErrorType,
			Message:   o.Message,
			Severity:  o.ErrorType.DefaultSeverity(),
		}
	}
	return e.generated(o.ErrorType, input)
}

// generated builds a failure with a production-shaped message. Used for all
// built-in failures, so precondition and heuristic errors read like the real
// subsystem wrote them.
func (e *engine) generated(t simerr.ErrorType, ctx map[string]any) *Failure {
	gerr := e.gen.GenerateRealisticError(t, ctx)
	f := &Failure{
		ErrorType: t,
		Message:   gerr.Message,
		Context:   gerr.Context,
	}
	if code, ok := gerr.Context["errorCode"].(string); ok {
		f.Code = code
	}
	if sev, ok := gerr.Context["severity"].(string); ok {
		f.Severity = simerr.Severity(sev)
	}
	return f
}

// behaviorFailure applies the ShouldSucceed override: a configured false
// forces a generated failure of the given type.
func (e *engine) behaviorFailure(t simerr.ErrorType, ctx map[string]any) *Failure {
	b := e.cfg.ValidationBehavior
	if b == nil || b.ShouldSucceed == nil || *b.ShouldSucceed {
		return nil
	}
	return e.generated(t, ctx)
}

func (e *engine) ignoreExpiry() bool {
	return e.cfg.ValidationBehavior != nil && e.cfg.ValidationBehavior.IgnoreExpiry
}

func (e *engine) strictTypes() bool {
	return e.cfg.ValidationBehavior != nil && e.cfg.ValidationBehavior.StrictTypes
}

// updateConfiguration merges a validated patch into the current
// configuration. When-predicates compile up front so broken expressions are
// rejected here instead of silently skipping scenarios later.
func (e *engine) updateConfiguration(patch config.MockConfiguration) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	for i := range patch.ErrorScenarios {
		if w := patch.ErrorScenarios[i].When; w != "" {
			if err := e.eval.Validate(w); err != nil {
				return simerr.Newf(simerr.MockConfigurationError,
					"errorScenarios[%d].when: %v", i, err)
			}
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = e.cfg.Merge(patch)
	e.log.Info("configuration updated",
		"mock", e.name,
		"scenarios", len(e.cfg.ErrorScenarios),
		"outcomes", len(e.cfg.Outcomes),
	)
	return nil
}

func (e *engine) configuration() config.MockConfiguration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Clone()
}

// reset restores the empty baseline configuration and drops history and
// cache, then runs clear so the owning mock can wipe its entity state under
// the same lock. It deliberately does not restore the construction-time
// configuration; the coordinator owns that.
func (e *engine) reset(clear func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = config.MockConfiguration{}
	e.cache = make(map[string]outcome)
	e.history = nil
	if clear != nil {
		clear()
	}
	e.log.Debug("mock reset", "mock", e.name)
}

func (e *engine) operationHistory() []OperationRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]OperationRecord, len(e.history))
	for i := range e.history {
		out[i] = e.history[i].clone()
	}
	return out
}

func (e *engine) historyLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.history)
}

func (e *engine) cacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

func (e *engine) clearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]outcome)
}

func outcomeSummary(out outcome) map[string]any {
	if out.failure != nil {
		return map[string]any{
			"isValid":   false,
			"errorType": string(out.failure.ErrorType),
			"message":   out.failure.Message,
		}
	}
	return map[string]any{"isValid": true}
}
