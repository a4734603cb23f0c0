package coordinator

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/logging"
	"github.com/getsigsim/sigsim/pkg/pattern"
	"github.com/getsigsim/sigsim/pkg/sim"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// MockKind names one of the coordinated mocks.
type MockKind string

const (
	KindDocument MockKind = "document"
	KindField    MockKind = "field"
	KindCrypto   MockKind = "crypto"
)

// TargetAll is the reset-record target covering every mock.
const TargetAll = "all"

// MockKinds lists the coordinated mock kinds in a stable order.
func MockKinds() []MockKind {
	return []MockKind{KindDocument, KindField, KindCrypto}
}

// ResetRecord is one entry in the coordinator's audit trail. Sequence starts
// at 1 and grows by one per reset, whatever the target.
type ResetRecord struct {
	Sequence  int       `json:"sequence"`
	Target    string    `json:"target"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// MockStatus reports one mock's observable footprint.
type MockStatus struct {
	Entities      int `json:"entities"`
	Operations    int `json:"operations"`
	CachedResults int `json:"cachedResults"`
}

// OverallStatus aggregates across the three mocks.
type OverallStatus struct {
	IsClean    bool `json:"isClean"`
	ResetCount int  `json:"resetCount"`
}

// StatusReport is a point-in-time snapshot of the coordinated mocks.
type StatusReport struct {
	Document MockStatus    `json:"document"`
	Field    MockStatus    `json:"field"`
	Crypto   MockStatus    `json:"crypto"`
	Overall  OverallStatus `json:"overall"`
}

// Options configures coordinator construction.
type Options struct {
	// Configuration seeds each mock's section at construction time and is
	// the baseline RestoreToInitialState returns to. Nil sections leave the
	// corresponding mock on its empty default.
	Configuration config.CombinedConfiguration

	// Clock stamps reset records and feeds the mocks. Defaults to the
	// system clock.
	Clock clock.Clock

	// Generator is shared by all three mocks for built-in failure messages.
	// Defaults to a fresh generator on the coordinator's clock.
	Generator *pattern.Generator

	// Logger receives lifecycle events. Defaults to a no-op logger.
	Logger *slog.Logger
}

// Coordinator owns the three mocks and their shared lifecycle.
type Coordinator struct {
	mu      sync.RWMutex
	doc     *sim.DocumentMock
	field   *sim.FieldMock
	crypto  *sim.CryptoMock
	initial config.CombinedConfiguration
	resets  []ResetRecord
	clk     clock.Clock
	log     *slog.Logger
}

// New constructs the three mocks from opts and captures the construction
// configuration for RestoreToInitialState.
func New(opts Options) *Coordinator {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	gen := opts.Generator
	if gen == nil {
		gen = pattern.NewGenerator(pattern.WithClock(clk))
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	initial := opts.Configuration.Clone()
	return &Coordinator{
		doc:     sim.NewDocumentMock(mockOptions(initial.Document, gen, clk)...),
		field:   sim.NewFieldMock(mockOptions(initial.Field, gen, clk)...),
		crypto:  sim.NewCryptoMock(mockOptions(initial.Crypto, gen, clk)...),
		initial: initial,
		clk:     clk,
		log:     log,
	}
}

func mockOptions(section *config.MockConfiguration, gen *pattern.Generator, clk clock.Clock) []sim.Option {
	opts := []sim.Option{sim.WithGenerator(gen), sim.WithClock(clk)}
	if section != nil {
		opts = append(opts, sim.WithConfiguration(*section))
	}
	return opts
}

// SetLogger replaces the coordinator's logger and fans it out to the mocks.
// A nil logger silences all of them.
func (c *Coordinator) SetLogger(log *slog.Logger) {
	if log == nil {
		log = logging.Nop()
	}
	c.mu.Lock()
	c.log = log
	c.mu.Unlock()
	c.doc.SetLogger(log.With("mock", string(KindDocument)))
	c.field.SetLogger(log.With("mock", string(KindField)))
	c.crypto.SetLogger(log.With("mock", string(KindCrypto)))
}

// Document returns the coordinated document mock.
func (c *Coordinator) Document() *sim.DocumentMock { return c.doc }

// Field returns the coordinated field mock.
func (c *Coordinator) Field() *sim.FieldMock { return c.field }

// Crypto returns the coordinated crypto mock.
func (c *Coordinator) Crypto() *sim.CryptoMock { return c.crypto }

// ResetAll resets every mock to its empty baseline and appends one reset
// record for the whole sweep.
func (c *Coordinator) ResetAll(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAllLocked(reason)
}

func (c *Coordinator) resetAllLocked(reason string) {
	c.doc.Reset()
	c.field.Reset()
	c.crypto.Reset()
	c.appendResetLocked(TargetAll, reason)
}

// ResetMock resets a single mock. The reset record is appended whatever the
// target; an unknown kind is an error and leaves the trail untouched.
func (c *Coordinator) ResetMock(kind MockKind, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch kind {
	case KindDocument:
		c.doc.Reset()
	case KindField:
		c.field.Reset()
	case KindCrypto:
		c.crypto.Reset()
	default:
		return simerr.Newf(simerr.UnknownMock,
			"unknown mock kind %q: valid kinds are document, field, crypto", kind)
	}
	c.appendResetLocked(string(kind), reason)
	return nil
}

func (c *Coordinator) appendResetLocked(target, reason string) {
	rec := ResetRecord{
		Sequence:  len(c.resets) + 1,
		Target:    target,
		Reason:    reason,
		Timestamp: c.clk.Now(),
	}
	c.resets = append(c.resets, rec)
	c.log.Info("mocks reset", "target", target, "reason", reason, "sequence", rec.Sequence)
}

// VerifyCleanState reports whether every mock holds zero entities and zero
// history entries.
func (c *Coordinator) VerifyCleanState() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cleanLocked()
}

func (c *Coordinator) cleanLocked() bool {
	return c.doc.LoadedCount() == 0 && c.doc.HistoryLen() == 0 &&
		c.field.RegisteredCount() == 0 && c.field.HistoryLen() == 0 &&
		c.crypto.HistoryLen() == 0
}

// Status snapshots per-mock counts plus the overall aggregate.
func (c *Coordinator) Status() StatusReport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return StatusReport{
		Document: MockStatus{
			Entities:      c.doc.LoadedCount(),
			Operations:    c.doc.HistoryLen(),
			CachedResults: c.doc.CacheSize(),
		},
		Field: MockStatus{
			Entities:      c.field.RegisteredCount(),
			Operations:    c.field.HistoryLen(),
			CachedResults: c.field.CacheSize(),
		},
		Crypto: MockStatus{
			Operations:    c.crypto.HistoryLen(),
			CachedResults: c.crypto.CacheSize(),
		},
		Overall: OverallStatus{
			IsClean:    c.cleanLocked(),
			ResetCount: len(c.resets),
		},
	}
}

// UpdateAllConfigurations fans a combined configuration out to the mocks.
// Nil sections are skipped. The first failing section stops the fan-out.
func (c *Coordinator) UpdateAllConfigurations(combined config.CombinedConfiguration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(combined)
}

func (c *Coordinator) applyLocked(combined config.CombinedConfiguration) error {
	if combined.Document != nil {
		if err := c.doc.UpdateConfiguration(*combined.Document); err != nil {
			return fmt.Errorf("document mock: %w", err)
		}
	}
	if combined.Field != nil {
		if err := c.field.UpdateConfiguration(*combined.Field); err != nil {
			return fmt.Errorf("field mock: %w", err)
		}
	}
	if combined.Crypto != nil {
		if err := c.crypto.UpdateConfiguration(*combined.Crypto); err != nil {
			return fmt.Errorf("crypto mock: %w", err)
		}
	}
	return nil
}

// RestoreToInitialState resets every mock and re-applies the configuration
// captured at construction time, not the configuration active at the moment
// of the call.
func (c *Coordinator) RestoreToInitialState() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAllLocked("restore to initial state")
	return c.applyLocked(c.initial)
}

// ResetHistory returns a copy of the audit trail in append order.
func (c *Coordinator) ResetHistory() []ResetRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]ResetRecord(nil), c.resets...)
}

// ResetCount returns the number of recorded resets.
func (c *Coordinator) ResetCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resets)
}
