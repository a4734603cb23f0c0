package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsigsim/sigsim/internal/clock"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/sim"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

func testClock() *clock.Manual {
	return clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
}

func initialConfiguration() config.CombinedConfiguration {
	return config.CombinedConfiguration{
		Document: &config.MockConfiguration{
			DocumentState: &config.DocumentState{Version: "2.0", PageCount: 3},
		},
		Crypto: &config.MockConfiguration{
			ValidationBehavior: &config.ValidationBehavior{IgnoreExpiry: true},
		},
	}
}

// dirty loads a document, registers a field, and runs one crypto validation
// so every mock has entities or history to sweep.
func dirty(t *testing.T, c *Coordinator) {
	t.Helper()
	_, err := c.Document().LoadDocument("contract_1")
	require.NoError(t, err)
	require.NoError(t, c.Field().RegisterField(sim.SignatureField{
		Name:   "approver_signature",
		Page:   1,
		Bounds: sim.Rect{X: 72, Y: 680, Width: 180, Height: 40},
	}))
	_, err = c.Crypto().ValidatePKCS7(sim.Envelope{Signature: "pkcs7:rsa:1"})
	require.NoError(t, err)
}

func TestNewAppliesConstructionConfiguration(t *testing.T) {
	c := New(Options{Configuration: initialConfiguration(), Clock: testClock()})

	doc, err := c.Document().LoadDocument("contract_1")
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, 3, doc.PageCount)

	assert.True(t, c.Crypto().Configuration().ValidationBehavior.IgnoreExpiry)
	assert.True(t, c.Field().Configuration().IsZero())
}

func TestResetAllLeavesCleanState(t *testing.T) {
	c := New(Options{Clock: testClock()})
	dirty(t, c)

	require.False(t, c.VerifyCleanState())
	before := c.Status()
	assert.Equal(t, 1, before.Document.Entities)
	assert.Positive(t, before.Document.Operations)
	assert.Equal(t, 1, before.Field.Entities)
	assert.Positive(t, before.Crypto.Operations)
	assert.False(t, before.Overall.IsClean)

	c.ResetAll("test")

	assert.True(t, c.VerifyCleanState())
	after := c.Status()
	assert.Zero(t, after.Document.Entities)
	assert.Zero(t, after.Document.Operations)
	assert.Zero(t, after.Document.CachedResults)
	assert.Zero(t, after.Field.Entities)
	assert.Zero(t, after.Crypto.Operations)
	assert.True(t, after.Overall.IsClean)
	assert.Equal(t, 1, after.Overall.ResetCount)
	assert.Empty(t, c.Document().LoadedDocuments())
}

func TestResetAllAfterFailedOperations(t *testing.T) {
	c := New(Options{Clock: testClock()})

	_, err := c.Document().GetField("never_loaded", "missing")
	require.Error(t, err)
	res, err := c.Crypto().ValidatePKCS7(sim.Envelope{})
	require.NoError(t, err)
	require.False(t, res.IsValid)
	require.False(t, c.VerifyCleanState())

	c.ResetAll("after failures")
	assert.True(t, c.VerifyCleanState())
}

func TestResetMockScopesToOneTarget(t *testing.T) {
	c := New(Options{Clock: testClock()})
	dirty(t, c)

	require.NoError(t, c.ResetMock(KindDocument, "document sweep"))

	st := c.Status()
	assert.Zero(t, st.Document.Entities)
	assert.Zero(t, st.Document.Operations)
	assert.Equal(t, 1, st.Field.Entities)
	assert.Positive(t, st.Crypto.Operations)
	assert.False(t, c.VerifyCleanState())

	recs := c.ResetHistory()
	require.Len(t, recs, 1)
	assert.Equal(t, "document", recs[0].Target)
	assert.Equal(t, "document sweep", recs[0].Reason)
}

func TestResetMockUnknownKind(t *testing.T) {
	c := New(Options{Clock: testClock()})

	err := c.ResetMock(MockKind("pdf"), "typo")
	require.Error(t, err)
	assert.True(t, simerr.IsType(err, simerr.UnknownMock))
	assert.Empty(t, c.ResetHistory())
	assert.Zero(t, c.ResetCount())
}

func TestResetHistorySequencing(t *testing.T) {
	clk := testClock()
	c := New(Options{Clock: clk})

	c.ResetAll("first")
	clk.Advance(time.Minute)
	require.NoError(t, c.ResetMock(KindField, "second"))
	clk.Advance(time.Minute)
	require.NoError(t, c.ResetMock(KindCrypto, ""))

	recs := c.ResetHistory()
	require.Len(t, recs, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].Sequence, recs[1].Sequence, recs[2].Sequence})
	assert.Equal(t, TargetAll, recs[0].Target)
	assert.Equal(t, "field", recs[1].Target)
	assert.Equal(t, "crypto", recs[2].Target)
	assert.Empty(t, recs[2].Reason)
	assert.True(t, recs[1].Timestamp.After(recs[0].Timestamp))

	recs[0].Reason = "tampered"
	assert.Equal(t, "first", c.ResetHistory()[0].Reason)
	assert.Equal(t, 3, c.Status().Overall.ResetCount)
}

func TestUpdateAllConfigurations(t *testing.T) {
	c := New(Options{Clock: testClock()})

	err := c.UpdateAllConfigurations(config.CombinedConfiguration{
		Document: &config.MockConfiguration{
			DocumentState: &config.DocumentState{Version: "1.4"},
		},
		Crypto: &config.MockConfiguration{
			ValidationBehavior: &config.ValidationBehavior{IgnoreExpiry: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "1.4", c.Document().Configuration().DocumentState.Version)
	assert.True(t, c.Crypto().Configuration().ValidationBehavior.IgnoreExpiry)
	assert.True(t, c.Field().Configuration().IsZero())
}

func TestUpdateAllConfigurationsNamesFailingSection(t *testing.T) {
	c := New(Options{Clock: testClock()})

	err := c.UpdateAllConfigurations(config.CombinedConfiguration{
		Document: &config.MockConfiguration{
			DocumentState: &config.DocumentState{Version: "1.4"},
		},
		Crypto: &config.MockConfiguration{
			Outcomes: []config.Outcome{{IsValid: false}},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crypto mock")
	assert.True(t, simerr.IsType(err, simerr.MockConfigurationError))

	// Fan-out stops at the failing section; earlier sections are applied.
	assert.Equal(t, "1.4", c.Document().Configuration().DocumentState.Version)
	assert.True(t, c.Crypto().Configuration().IsZero())
}

func TestRestoreToInitialState(t *testing.T) {
	c := New(Options{Configuration: initialConfiguration(), Clock: testClock()})
	dirty(t, c)

	require.NoError(t, c.UpdateAllConfigurations(config.CombinedConfiguration{
		Document: &config.MockConfiguration{
			DocumentState: &config.DocumentState{Version: "9.9"},
		},
	}))
	require.Equal(t, "9.9", c.Document().Configuration().DocumentState.Version)

	require.NoError(t, c.RestoreToInitialState())

	assert.True(t, c.VerifyCleanState())
	assert.Equal(t, "2.0", c.Document().Configuration().DocumentState.Version)
	assert.True(t, c.Crypto().Configuration().ValidationBehavior.IgnoreExpiry)

	recs := c.ResetHistory()
	require.Len(t, recs, 1)
	assert.Equal(t, TargetAll, recs[0].Target)
	assert.Equal(t, "restore to initial state", recs[0].Reason)
}

func TestMockKindsOrder(t *testing.T) {
	assert.Equal(t, []MockKind{KindDocument, KindField, KindCrypto}, MockKinds())
}
