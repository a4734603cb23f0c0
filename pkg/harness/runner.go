package harness

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/coordinator"
	"github.com/getsigsim/sigsim/pkg/logging"
	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Options configures runner construction. Every collaborator left nil is
// built by the runner itself; there is no package-level default instance.
type Options struct {
	// Configuration is the coordinator's construction baseline. Ignored
	// when Coordinator is supplied.
	Configuration config.CombinedConfiguration

	// Coordinator, Factory, Registry, and Generator replace the runner's
	// own instances when supplied.
	Coordinator *coordinator.Coordinator
	Factory     *config.Factory
	Registry    *pattern.Registry
	Generator   *pattern.Generator

	// Clock is used for context and result timestamps. Defaults to the
	// system clock.
	Clock clock.Clock

	// Logger receives lifecycle events. Defaults to a no-op logger.
	Logger *slog.Logger
}

// ContextOptions tunes test-context creation.
type ContextOptions struct {
	// Scenario names the factory scenario backing the context. Defaults to
	// unit-testing. Ignored when Complexity is set.
	Scenario string

	// Complexity builds the context from a bare complexity level instead
	// of a named scenario.
	Complexity config.Complexity

	// SkipReset leaves existing mock state in place instead of sweeping
	// the coordinator before the configuration is applied.
	SkipReset bool

	// ConfigOptions tune the factory build backing the context.
	ConfigOptions []config.Option
}

// TestContext bundles the collaborators for one test execution. The body
// receives it and drives the mocks through the coordinator accessors.
type TestContext struct {
	TestID    string
	Scenario  string
	StartedAt time.Time
	Config    *config.GeneratedConfig

	Coordinator *coordinator.Coordinator
	Registry    *pattern.Registry
	Generator   *pattern.Generator

	baseline map[string]int
	findings []Finding
}

// Runner owns the mock coordinator, configuration factory, pattern
// registry, and error generator for a test run.
type Runner struct {
	mu       sync.RWMutex
	coord    *coordinator.Coordinator
	factory  *config.Factory
	registry *pattern.Registry
	gen      *pattern.Generator
	clk      clock.Clock
	log      *slog.Logger
	active   *TestContext
	results  []ExecutionResult
}

// NewRunner builds a runner and any collaborator the options leave nil.
func NewRunner(opts Options) *Runner {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	gen := opts.Generator
	if gen == nil {
		gen = pattern.NewGenerator(pattern.WithClock(clk))
	}
	coord := opts.Coordinator
	if coord == nil {
		coord = coordinator.New(coordinator.Options{
			Configuration: opts.Configuration,
			Clock:         clk,
			Generator:     gen,
			Logger:        log,
		})
	}
	factory := opts.Factory
	if factory == nil {
		factory = config.NewFactory(config.WithClock(clk), config.WithGenerator(gen))
	}
	registry := opts.Registry
	if registry == nil {
		registry = pattern.NewRegistry()
	}
	return &Runner{
		coord:    coord,
		factory:  factory,
		registry: registry,
		gen:      gen,
		clk:      clk,
		log:      log,
	}
}

// SetLogger replaces the runner's logger and fans it out to the owned
// collaborators. A nil logger silences them.
func (r *Runner) SetLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	r.mu.Lock()
	r.log = log
	r.mu.Unlock()
	r.coord.SetLogger(log)
	r.factory.SetLogger(log.With("component", "factory"))
	r.registry.SetLogger(log.With("component", "registry"))
	r.gen.SetLogger(log.With("component", "generator"))
}

// Coordinator returns the runner's mock coordinator.
func (r *Runner) Coordinator() *coordinator.Coordinator { return r.coord }

// Factory returns the runner's configuration factory.
func (r *Runner) Factory() *config.Factory { return r.factory }

// Registry returns the runner's pattern registry.
func (r *Runner) Registry() *pattern.Registry { return r.registry }

// Generator returns the runner's error generator.
func (r *Runner) Generator() *pattern.Generator { return r.gen }

// HasActiveContext reports whether a test context is currently open.
func (r *Runner) HasActiveContext() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active != nil
}

// CreateTestContext opens a context for testID: unless opts.SkipReset is
// set the coordinator is swept first, then a scenario configuration is
// built, fanned out to the mocks, and its error patterns are registered.
// Only one context may be open at a time.
func (r *Runner) CreateTestContext(testID string, opts ContextOptions) (*TestContext, error) {
	if testID == "" {
		return nil, simerr.New(simerr.MockConfigurationError, "test id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return nil, simerr.Newf(simerr.IntegrationError,
			"test context %q is still active: contexts are sequential, close it first", r.active.TestID)
	}

	var (
		genCfg *config.GeneratedConfig
		err    error
	)
	if opts.Complexity != "" {
		genCfg, err = r.factory.CreateForComplexity(opts.Complexity, opts.ConfigOptions...)
	} else {
		scenario := opts.Scenario
		if scenario == "" {
			scenario = config.ScenarioUnitTesting
		}
		genCfg, err = r.factory.CreateConfiguration(scenario, opts.ConfigOptions...)
	}
	if err != nil {
		return nil, err
	}

	if !opts.SkipReset {
		r.coord.ResetAll("test context " + testID)
	}
	if err := r.coord.UpdateAllConfigurations(genCfg.Mocks); err != nil {
		return nil, err
	}
	if err := r.registerPatterns(genCfg); err != nil {
		return nil, err
	}

	ctx := &TestContext{
		TestID:      testID,
		Scenario:    genCfg.Scenario,
		StartedAt:   r.clk.Now(),
		Config:      genCfg,
		Coordinator: r.coord,
		Registry:    r.registry,
		Generator:   r.gen,
		baseline:    r.usageCounts(),
	}
	r.active = ctx
	r.log.Info("test context created", "testId", testID, "scenario", genCfg.Scenario)
	return ctx, nil
}

// registerPatterns loads the generated configuration's error patterns into
// the registry, section by section in a stable order.
func (r *Runner) registerPatterns(genCfg *config.GeneratedConfig) error {
	sections := []*config.MockConfiguration{
		genCfg.Mocks.Document,
		genCfg.Mocks.Field,
		genCfg.Mocks.Crypto,
	}
	for _, section := range sections {
		if section == nil {
			continue
		}
		keys := make([]string, 0, len(section.ErrorPatterns))
		for key := range section.ErrorPatterns {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if err := r.registry.RegisterPattern(key, section.ErrorPatterns[key]); err != nil {
				return fmt.Errorf("register pattern %q: %w", key, err)
			}
		}
	}
	return nil
}

// CloseContext ends the active context without recording an execution
// result: the coordinator is swept and the runner is ready for the next
// context. ExecuteTest closes its own context.
func (r *Runner) CloseContext() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return simerr.New(simerr.NoActiveContext, "no test context is active")
	}
	r.coord.ResetAll("test context " + r.active.TestID + " closed")
	r.active = nil
	return nil
}

// ExecuteTest opens a context, runs body inside it, and always sweeps mock
// state afterward: on success, on failure, and on panic. Body panics are
// recovered and recorded as errored executions. The body's error, or an
// error describing the panic, is returned alongside the result so failures
// propagate to the caller.
func (r *Runner) ExecuteTest(testID string, body func(*TestContext) error, opts ContextOptions) (*ExecutionResult, error) {
	if body == nil {
		return nil, simerr.New(simerr.MockConfigurationError, "test body must not be nil")
	}
	ctx, err := r.CreateTestContext(testID, opts)
	if err != nil {
		return nil, err
	}

	var (
		bodyErr    error
		panicked   bool
		panicValue any
	)
	func() {
		defer func() {
			if v := recover(); v != nil {
				panicked = true
				panicValue = v
				r.log.Error("test body panicked",
					"testId", testID, "panic", fmt.Sprint(v), "stack", string(debug.Stack()))
			}
		}()
		bodyErr = body(ctx)
	}()

	result := r.closeAndRecord(ctx, bodyErr, panicked, panicValue)
	if panicked {
		return result, fmt.Errorf("test %s panicked: %v", testID, panicValue)
	}
	return result, bodyErr
}

// closeAndRecord gathers diagnostics from the finished body, then sweeps
// the coordinator. The sweep is deferred so it runs even if gathering
// fails.
func (r *Runner) closeAndRecord(ctx *TestContext, bodyErr error, panicked bool, panicValue any) *ExecutionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		r.coord.ResetAll("test " + ctx.TestID + " finished")
		r.active = nil
	}()

	end := r.clk.Now()
	result := &ExecutionResult{
		ExecutionID: uuid.NewString(),
		TestID:      ctx.TestID,
		Outcome:     OutcomePassed,
		StartTime:   ctx.StartedAt,
		EndTime:     end,
		Duration:    end.Sub(ctx.StartedAt),
		MockUsage:   r.usageDelta(ctx.baseline),
		Findings:    append(append([]Finding(nil), ctx.findings...), r.configFindings(ctx.Config)...),
	}
	switch {
	case panicked:
		result.Outcome = OutcomeErrored
		result.Failure = fmt.Sprintf("panic: %v", panicValue)
	case bodyErr != nil:
		result.Outcome = OutcomeFailed
		result.Failure = bodyErr.Error()
	}

	r.results = append(r.results, result.clone())
	r.log.Info("test executed",
		"testId", ctx.TestID,
		"outcome", string(result.Outcome),
		"duration", result.Duration,
		"findings", len(result.Findings),
	)
	return result
}

func (r *Runner) usageCounts() map[string]int {
	st := r.coord.Status()
	return map[string]int{
		string(coordinator.KindDocument): st.Document.Operations,
		string(coordinator.KindField):    st.Field.Operations,
		string(coordinator.KindCrypto):   st.Crypto.Operations,
	}
}

func (r *Runner) usageDelta(baseline map[string]int) map[string]int {
	current := r.usageCounts()
	for kind, before := range baseline {
		current[kind] -= before
	}
	return current
}

// configFindings compares the document and field mock configurations at
// teardown against the constraints the context was built for. The crypto
// mock carries no fields, so the field-range aspect does not apply to it.
func (r *Runner) configFindings(genCfg *config.GeneratedConfig) []Finding {
	var findings []Finding
	checks := []struct {
		kind coordinator.MockKind
		cfg  config.MockConfiguration
	}{
		{coordinator.KindDocument, r.coord.Document().Configuration()},
		{coordinator.KindField, r.coord.Field().Configuration()},
	}
	for _, check := range checks {
		report := config.ValidateCompatibility(check.cfg, genCfg)
		for _, issue := range report.Issues {
			findings = append(findings, Finding{
				Source:   string(check.kind) + " configuration",
				Severity: simerr.SeverityLow,
				Message:  issue.String(),
			})
		}
	}
	return findings
}

// Results returns a copy of every execution result recorded so far, in run
// order.
func (r *Runner) Results() []ExecutionResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ExecutionResult, len(r.results))
	for i, res := range r.results {
		out[i] = res.clone()
	}
	return out
}
