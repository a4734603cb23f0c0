package sim

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsigsim/sigsim/internal/canon"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// CryptoMock simulates the cryptographic subsystem: envelope validation,
// signature verification, tamper detection, and synthetic signing.
// Validation failures are ValidationResult values with IsValid false; Go
// errors are reserved for signing failures and misuse.
type CryptoMock struct {
	eng *engine
}

// NewCryptoMock builds a crypto mock.
func NewCryptoMock(opts ...Option) *CryptoMock {
	return &CryptoMock{eng: newEngine("crypto-mock", opts...)}
}

// SetLogger replaces the mock's logger. A nil logger silences it.
func (m *CryptoMock) SetLogger(log *slog.Logger) {
	m.eng.setLogger(log)
}

// ValidatePKCS7 checks a PKCS#7 envelope. Empty and "invalid"-marked
// signatures fail with PKCS7_INVALID; expiry failures carry their own types.
func (m *CryptoMock) ValidatePKCS7(env Envelope) (*ValidationResult, error) {
	return m.validate(opValidatePKCS7, env, simerr.PKCS7Invalid)
}

// VerifySignature checks a detached signature. Empty and "invalid"-marked
// signatures fail with SIGNATURE_INVALID.
func (m *CryptoMock) VerifySignature(env Envelope) (*ValidationResult, error) {
	return m.validate(opVerifySignature, env, simerr.SignatureInvalid)
}

// ValidateSignatures verifies a batch of envelopes, one result per entry in
// order.
func (m *CryptoMock) ValidateSignatures(envs []Envelope) ([]*ValidationResult, error) {
	results := make([]*ValidationResult, 0, len(envs))
	for i, env := range envs {
		res, err := m.VerifySignature(env)
		if err != nil {
			return nil, fmt.Errorf("envelope %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// DetectTampering compares the envelope digest against the content digest
// and looks for tamper markers in the signature blob.
func (m *CryptoMock) DetectTampering(env Envelope) (*ValidationResult, error) {
	input := env.asInput()
	out := m.eng.execute(operation{
		name:  opDetectTampering,
		input: input,
		check: func() *Failure {
			if env.Digest != "" && env.Content != "" && env.Digest != ContentDigest(env.Content) {
				return m.eng.generated(simerr.TamperDetected, map[string]any{
					"digest":     env.Digest,
					"signerName": env.SignerName,
				})
			}
			if strings.Contains(strings.ToLower(env.Signature), "tampered") {
				return m.eng.generated(simerr.TamperDetected, map[string]any{
					"signerName": env.SignerName,
				})
			}
			return m.eng.behaviorFailure(simerr.TamperDetected, input)
		},
		payload: func() any { return &ValidationResult{IsValid: true} },
	})
	if out.failure != nil {
		return out.failure.Result(), nil
	}
	return out.value.(*ValidationResult).clone(), nil
}

// SignDocument produces a deterministic synthetic signature, certificate,
// and digest for the request.
func (m *CryptoMock) SignDocument(req SignRequest) (*SignResult, error) {
	if req.DocumentID == "" {
		return nil, simerr.New(simerr.MockConfigurationError, "sign request requires a documentId")
	}
	if req.SignerName == "" {
		return nil, simerr.New(simerr.MockConfigurationError, "sign request requires a signerName")
	}
	if req.Algorithm != "" && !req.Algorithm.Valid() {
		return nil, simerr.Newf(simerr.MockConfigurationError, "unsupported key algorithm %q", req.Algorithm)
	}

	input := req.asInput()
	out := m.eng.execute(operation{
		name:  opSignDocument,
		input: input,
		check: func() *Failure {
			if strings.Contains(strings.ToLower(req.SignerName), "invalid") {
				return m.eng.generated(simerr.SignatureInvalid, map[string]any{
					"documentId": req.DocumentID,
					"signerName": req.SignerName,
				})
			}
			return m.eng.behaviorFailure(simerr.CryptoValidationError, input)
		},
		payload: func() any {
			seed := canon.Hash32(input)
			now := m.eng.clk.Now()
			sig := synthesizeSignature(req, seed, now)
			alg := sig.Algorithm
			return &SignResult{
				DocumentID:    req.DocumentID,
				FieldName:     req.FieldName,
				SignatureData: fmt.Sprintf("pkcs7:%s:%08x", strings.ToLower(string(alg)), seed),
				Signature:     sig,
				SignedAt:      now,
			}
		},
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	return out.value.(*SignResult).clone(), nil
}

// SignMultipleDocuments signs a batch, stopping at the first failure.
func (m *CryptoMock) SignMultipleDocuments(reqs []SignRequest) ([]*SignResult, error) {
	results := make([]*SignResult, 0, len(reqs))
	for i, req := range reqs {
		res, err := m.SignDocument(req)
		if err != nil {
			return nil, fmt.Errorf("sign request %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// UpdateConfiguration merges a partial configuration into the mock.
func (m *CryptoMock) UpdateConfiguration(patch config.MockConfiguration) error {
	return m.eng.updateConfiguration(patch)
}

// Configuration returns a deep copy of the active configuration.
func (m *CryptoMock) Configuration() config.MockConfiguration {
	return m.eng.configuration()
}

// Reset clears history and cache and restores the empty baseline
// configuration.
func (m *CryptoMock) Reset() {
	m.eng.reset(nil)
}

// OperationHistory returns a copy of the append-only call history.
func (m *CryptoMock) OperationHistory() []OperationRecord {
	return m.eng.operationHistory()
}

// HistoryLen returns the number of recorded operations.
func (m *CryptoMock) HistoryLen() int {
	return m.eng.historyLen()
}

// CacheSize returns the number of cached operation results.
func (m *CryptoMock) CacheSize() int {
	return m.eng.cacheSize()
}

// ClearCache drops cached results without touching history.
func (m *CryptoMock) ClearCache() {
	m.eng.clearCache()
}

// validate runs the shared envelope heuristics for ValidatePKCS7 and
// VerifySignature, with invalidType naming the failure for empty or marked
// signatures.
func (m *CryptoMock) validate(op string, env Envelope, invalidType simerr.ErrorType) (*ValidationResult, error) {
	input := env.asInput()
	out := m.eng.execute(operation{
		name:  op,
		input: input,
		check: func() *Failure {
			sig := strings.TrimSpace(env.Signature)
			if sig == "" || strings.Contains(strings.ToLower(sig), "invalid") {
				return m.eng.generated(invalidType, map[string]any{
					"signerName": env.SignerName,
				})
			}
			if f := m.checkExpiry(env); f != nil {
				return f
			}
			return m.eng.behaviorFailure(simerr.CryptoValidationError, input)
		},
		payload: func() any { return &ValidationResult{IsValid: true} },
	})
	if out.failure != nil {
		return out.failure.Result(), nil
	}
	return out.value.(*ValidationResult).clone(), nil
}

// checkExpiry flags certificates past their validity window and signing
// times outside it. IgnoreExpiry in the validation behavior disables both.
func (m *CryptoMock) checkExpiry(env Envelope) *Failure {
	if env.Certificate == nil || m.eng.ignoreExpiry() {
		return nil
	}
	cert := env.Certificate
	now := m.eng.clk.Now()
	if !cert.NotAfter.IsZero() && cert.NotAfter.Before(now) {
		return m.eng.generated(simerr.CertificateExpired, map[string]any{
			"signerName": env.SignerName,
			"notAfter":   cert.NotAfter.UTC().Format("2006-01-02"),
		})
	}
	if !env.SigningTime.IsZero() {
		if (!cert.NotAfter.IsZero() && env.SigningTime.After(cert.NotAfter)) ||
			(!cert.NotBefore.IsZero() && env.SigningTime.Before(cert.NotBefore)) {
			return m.eng.generated(simerr.TimestampInvalid, map[string]any{
				"signerName": env.SignerName,
			})
		}
	}
	return nil
}
