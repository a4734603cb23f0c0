package pattern

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getsigsim/sigsim/internal/canon"
	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/logging"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Generator synthesizes production-realistic error scenarios from a catalog
// of per-type alternates.
type Generator struct {
	mu       sync.RWMutex
	patterns map[simerr.ErrorType][]ProductionPattern
	fallback ProductionPattern
	clk      clock.Clock
	seq      atomic.Uint64
	stampCtx bool
	log      *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock pins the generator's time source; error codes embed the clock's
// unix seconds.
func WithClock(c clock.Clock) GeneratorOption {
	return func(g *Generator) {
		if c != nil {
			g.clk = c
		}
	}
}

// WithContextTimestamps controls whether generated contexts carry an RFC 3339
// timestamp field. Enabled by default.
func WithContextTimestamps(enabled bool) GeneratorOption {
	return func(g *Generator) {
		g.stampCtx = enabled
	}
}

// NewGenerator creates a generator seeded with the built-in production
// pattern catalog.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		patterns: make(map[simerr.ErrorType][]ProductionPattern, len(builtinProductionPatterns)),
		fallback: fallbackProductionPattern,
		clk:      clock.Real{},
		stampCtx: true,
		log:      logging.Nop(),
	}
	for t, alts := range builtinProductionPatterns {
		g.patterns[t] = append([]ProductionPattern(nil), alts...)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SetLogger sets the operational logger for the generator.
func (g *Generator) SetLogger(log *slog.Logger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if log != nil {
		g.log = log
	} else {
		g.log = logging.Nop()
	}
}

// RegisterProductionPattern adds an alternate for its error type.
func (g *Generator) RegisterProductionPattern(p ProductionPattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	g.patterns[p.ErrorType] = append(g.patterns[p.ErrorType], p)
	g.mu.Unlock()
	return nil
}

// PatternsFor returns the registered alternates for an error type.
func (g *Generator) PatternsFor(t simerr.ErrorType) []ProductionPattern {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]ProductionPattern(nil), g.patterns[t]...)
}

// GenerateRealisticError builds an error scenario for the given type.
//
// Alternate choice is a pure function of ctx: an explicit severity in the
// context selects the first alternate with that severity, otherwise a content
// hash of the canonicalized context picks one. The error code is time-derived,
// so repeated calls agree on everything except the code digits.
func (g *Generator) GenerateRealisticError(t simerr.ErrorType, ctx map[string]any) *ErrorScenario {
	alt := g.chooseAlternate(t, ctx)
	code := g.nextCode(alt, t)
	seed := int(canon.Hash32(ctx) % 1000)

	values := flatten(ctx)
	values["errorCode"] = code
	values["errorType"] = string(t)

	// Remaining placeholders get deterministic field-specific defaults so no
	// raw {placeholder} survives into the message.
	for _, name := range placeholders(alt.MessageTemplate) {
		if _, ok := values[name]; !ok {
			values[name] = defaultFieldValue(name, seed, g.clk)
		}
	}

	msg := substitute(alt.MessageTemplate, values)

	outCtx := make(map[string]any, len(ctx)+3)
	for k, v := range ctx {
		outCtx[k] = v
	}
	for _, field := range alt.ContextFields {
		if _, ok := outCtx[field]; !ok {
			val, covered := values[field]
			if !covered {
				val = defaultFieldValue(field, seed, g.clk)
			}
			outCtx[field] = val
		}
	}
	outCtx["errorCode"] = code
	if _, ok := outCtx["severity"]; !ok {
		outCtx["severity"] = string(alt.Severity)
	}
	if g.stampCtx {
		if _, ok := outCtx["timestamp"]; !ok {
			outCtx["timestamp"] = g.clk.Now().UTC().Format(time.RFC3339)
		}
	}

	g.logGenerated(t, alt, code)

	return &ErrorScenario{
		ErrorType: t,
		Message:   msg,
		Context:   outCtx,
	}
}

// GenerateErrorScenarios builds a deterministic sequence of count scenarios,
// cycling through the registered alternates with index-seeded contexts.
// Triggers are left empty for the caller to assign.
func (g *Generator) GenerateErrorScenarios(t simerr.ErrorType, count int) []*ErrorScenario {
	if count <= 0 {
		return nil
	}

	alts := g.alternates(t)
	out := make([]*ErrorScenario, 0, count)
	for i := 0; i < count; i++ {
		ctx := map[string]any{
			"scenarioIndex": i,
			"documentId":    fmt.Sprintf("test_document_%d", i),
			"fieldName":     fmt.Sprintf("signature_field_%d", i),
			"severity":      string(alts[i%len(alts)].Severity),
		}
		out = append(out, g.GenerateRealisticError(t, ctx))
	}
	return out
}

func (g *Generator) alternates(t simerr.ErrorType) []ProductionPattern {
	g.mu.RLock()
	defer g.mu.RUnlock()
	alts := g.patterns[t]
	if len(alts) == 0 {
		fb := g.fallback
		fb.ErrorType = t
		return []ProductionPattern{fb}
	}
	return alts
}

func (g *Generator) chooseAlternate(t simerr.ErrorType, ctx map[string]any) ProductionPattern {
	alts := g.alternates(t)
	if len(alts) == 1 {
		return alts[0]
	}

	if sev, ok := contextSeverity(ctx); ok {
		for _, alt := range alts {
			if alt.Severity == sev {
				return alt
			}
		}
	}
	return alts[canon.Pick(ctx, len(alts))]
}

// nextCode renders the alternate's code pattern with the current unix time
// and a process-wide sequence number.
func (g *Generator) nextCode(alt ProductionPattern, t simerr.ErrorType) string {
	return substitute(alt.CodePattern, map[string]any{
		"domain":    t.Domain(),
		"timestamp": g.clk.Now().Unix(),
		"seq":       g.seq.Add(1),
	})
}

func (g *Generator) logGenerated(t simerr.ErrorType, alt ProductionPattern, code string) {
	g.mu.RLock()
	log := g.log
	g.mu.RUnlock()
	log.Debug("realistic error generated", "errorType", t, "severity", alt.Severity, "errorCode", code)
}

func contextSeverity(ctx map[string]any) (simerr.Severity, bool) {
	raw, ok := ctx["severity"]
	if !ok {
		return "", false
	}
	switch v := raw.(type) {
	case simerr.Severity:
		if simerr.ValidSeverity(v) {
			return v, true
		}
	case string:
		if simerr.ValidSeverity(simerr.Severity(v)) {
			return simerr.Severity(v), true
		}
	}
	return "", false
}

// defaultFieldValue supplies the deterministic default for a placeholder the
// caller's context did not cover.
func defaultFieldValue(name string, seed int, clk clock.Clock) any {
	switch name {
	case "fieldName":
		return fmt.Sprintf("signature_field_%d", seed)
	case "documentId":
		return fmt.Sprintf("test_document_%d", seed)
	case "signerName":
		return fmt.Sprintf("Test Signer %d", seed%100)
	case "signature":
		return fmt.Sprintf("sig_%08x", uint32(seed)*2654435761)
	case "serialNumber":
		return fmt.Sprintf("TEST-SERIAL-%06d", seed)
	case "reason", "detail", "details":
		return fmt.Sprintf("simulated condition %d", seed)
	case "region":
		return fmt.Sprintf("byte range %d-%d", seed*512, seed*512+511)
	case "page", "pageCount":
		return seed%20 + 1
	case "algorithm":
		algorithms := []string{"RSA", "ECDSA_P256", "ECDSA_P384", "ECDSA_P521"}
		return algorithms[seed%len(algorithms)]
	case "timestamp", "signingTime", "notBefore", "notAfter":
		return clk.Now().UTC().Format(time.RFC3339)
	case "sourceComponent":
		return "document-mock"
	case "targetComponent":
		return "crypto-mock"
	default:
		return fmt.Sprintf("%s_%d", name, seed)
	}
}
