package sim

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

func TestValidatePKCS7Heuristics(t *testing.T) {
	clk := testClock()
	expired := &Certificate{
		Subject:   "CN=Old Signer",
		NotBefore: clk.Now().Add(-2 * 365 * 24 * time.Hour),
		NotAfter:  clk.Now().Add(-24 * time.Hour),
	}
	current := &Certificate{
		Subject:   "CN=Dana Signer",
		NotBefore: clk.Now().Add(-24 * time.Hour),
		NotAfter:  clk.Now().Add(365 * 24 * time.Hour),
	}

	tests := []struct {
		name      string
		env       Envelope
		wantValid bool
		wantType  simerr.ErrorType
	}{
		{"well-formed envelope", Envelope{Signature: "pkcs7:rsa:deadbeef"}, true, ""},
		{"empty signature", Envelope{Signature: ""}, false, simerr.PKCS7Invalid},
		{"whitespace signature", Envelope{Signature: "   "}, false, simerr.PKCS7Invalid},
		{"invalid marker", Envelope{Signature: "INVALID_SIGNATURE_DATA"}, false, simerr.PKCS7Invalid},
		{"expired certificate", Envelope{Signature: "pkcs7:rsa:1", Certificate: expired}, false, simerr.CertificateExpired},
		{
			"signing time outside validity",
			Envelope{Signature: "pkcs7:rsa:2", Certificate: current, SigningTime: clk.Now().Add(-48 * time.Hour)},
			false, simerr.TimestampInvalid,
		},
		{
			"signing time inside validity",
			Envelope{Signature: "pkcs7:rsa:3", Certificate: current, SigningTime: clk.Now()},
			true, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewCryptoMock(WithClock(testClock()))
			res, err := m.ValidatePKCS7(tt.env)
			if err != nil {
				t.Fatalf("ValidatePKCS7: %v", err)
			}
			if res.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (%+v)", res.IsValid, tt.wantValid, res)
			}
			if !tt.wantValid {
				if res.ErrorType != tt.wantType {
					t.Fatalf("ErrorType = %q, want %q", res.ErrorType, tt.wantType)
				}
				if !productionShape.MatchString(res.Message) {
					t.Fatalf("message %q does not match the production shape", res.Message)
				}
			}
		})
	}
}

func TestIgnoreExpiryBehavior(t *testing.T) {
	clk := testClock()
	env := Envelope{
		Signature: "pkcs7:rsa:1",
		Certificate: &Certificate{
			Subject:  "CN=Old Signer",
			NotAfter: clk.Now().Add(-24 * time.Hour),
		},
	}

	m := NewCryptoMock(WithClock(testClock()), WithConfiguration(config.MockConfiguration{
		ValidationBehavior: &config.ValidationBehavior{IgnoreExpiry: true},
	}))

	res, err := m.ValidatePKCS7(env)
	if err != nil {
		t.Fatalf("ValidatePKCS7: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("ignoreExpiry should skip the expiry heuristic: %+v", res)
	}
}

func TestVerifySignatureUsesItsOwnErrorType(t *testing.T) {
	m := NewCryptoMock(WithClock(testClock()))

	res, err := m.VerifySignature(Envelope{Signature: ""})
	if err != nil {
		t.Fatalf("VerifySignature: %v", err)
	}
	if res.IsValid || res.ErrorType != simerr.SignatureInvalid {
		t.Fatalf("result = %+v, want SIGNATURE_INVALID", res)
	}
}

func TestSignDocumentDeterministic(t *testing.T) {
	req := SignRequest{
		DocumentID: "contract_1",
		FieldName:  "signature_field_1",
		SignerName: "Dana Signer",
		Algorithm:  AlgorithmECDSAP384,
		Reason:     "approval",
	}

	a := NewCryptoMock(WithClock(testClock()))
	b := NewCryptoMock(WithClock(testClock()))

	resA, err := a.SignDocument(req)
	if err != nil {
		t.Fatalf("SignDocument: %v", err)
	}
	resB, err := b.SignDocument(req)
	if err != nil {
		t.Fatalf("SignDocument on second mock: %v", err)
	}
	if !reflect.DeepEqual(resA, resB) {
		t.Fatalf("two instances disagree:\na %+v\nb %+v", resA, resB)
	}

	if resA.DocumentID != "contract_1" || resA.FieldName != "signature_field_1" {
		t.Fatalf("result ids = %+v", resA)
	}
	if !strings.HasPrefix(resA.SignatureData, "pkcs7:ecdsa_p384:") {
		t.Fatalf("SignatureData = %q", resA.SignatureData)
	}

	sig := resA.Signature
	if sig.Algorithm != AlgorithmECDSAP384 {
		t.Fatalf("algorithm = %q", sig.Algorithm)
	}
	if sig.Certificate.Subject != "CN=Dana Signer" {
		t.Fatalf("certificate subject = %q", sig.Certificate.Subject)
	}
	if want := ContentDigest("contract_1/signature_field_1/Dana Signer"); sig.Digest != want {
		t.Fatalf("digest = %q, want %q", sig.Digest, want)
	}
	if !sig.Certificate.NotAfter.After(sig.Certificate.NotBefore) {
		t.Fatalf("certificate validity window inverted: %+v", sig.Certificate)
	}
}

func TestSignDocumentMisuse(t *testing.T) {
	m := NewCryptoMock(WithClock(testClock()))

	tests := []struct {
		name string
		req  SignRequest
	}{
		{"missing documentId", SignRequest{SignerName: "Dana Signer"}},
		{"missing signerName", SignRequest{DocumentID: "contract_1"}},
		{"unsupported algorithm", SignRequest{DocumentID: "contract_1", SignerName: "Dana Signer", Algorithm: "DSA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.SignDocument(tt.req)
			if !simerr.IsType(err, simerr.MockConfigurationError) {
				t.Fatalf("error = %v, want MOCK_CONFIGURATION_ERROR", err)
			}
		})
	}
	if m.HistoryLen() != 0 {
		t.Fatal("misuse must not reach the pipeline")
	}
}

func TestSignDocumentShouldSucceedOverride(t *testing.T) {
	m := NewCryptoMock(WithClock(testClock()), WithConfiguration(config.MockConfiguration{
		ValidationBehavior: &config.ValidationBehavior{ShouldSucceed: boolPtr(false)},
	}))

	_, err := m.SignDocument(SignRequest{DocumentID: "contract_1", SignerName: "Dana Signer"})
	if !simerr.IsType(err, simerr.CryptoValidationError) {
		t.Fatalf("error = %v, want CRYPTO_VALIDATION_FAILED", err)
	}
}

func TestSignedEnvelopeValidatesCleanly(t *testing.T) {
	m := NewCryptoMock(WithClock(testClock()))

	res, err := m.SignDocument(SignRequest{
		DocumentID: "contract_roundtrip",
		FieldName:  "signature_field_1",
		SignerName: "Dana Signer",
	})
	if err != nil {
		t.Fatalf("SignDocument: %v", err)
	}

	verdict, err := m.ValidatePKCS7(res.Envelope())
	if err != nil {
		t.Fatalf("ValidatePKCS7: %v", err)
	}
	if !verdict.IsValid {
		t.Fatalf("signed envelope failed validation: %+v", verdict)
	}

	verdict, err = m.DetectTampering(res.Envelope())
	if err != nil {
		t.Fatalf("DetectTampering: %v", err)
	}
	if !verdict.IsValid {
		t.Fatalf("signed envelope flagged as tampered: %+v", verdict)
	}
}

func TestDetectTampering(t *testing.T) {
	content := "agreement body v1"

	tests := []struct {
		name      string
		env       Envelope
		wantValid bool
	}{
		{
			"digest matches content",
			Envelope{Signature: "pkcs7:rsa:1", Content: content, Digest: ContentDigest(content)},
			true,
		},
		{
			"digest mismatch",
			Envelope{Signature: "pkcs7:rsa:1", Content: content, Digest: ContentDigest("agreement body v2")},
			false,
		},
		{
			"tampered marker in signature",
			Envelope{Signature: "pkcs7:rsa:tampered_blob"},
			false,
		},
		{
			"no digest to compare",
			Envelope{Signature: "pkcs7:rsa:1", Content: content},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewCryptoMock(WithClock(testClock()))
			res, err := m.DetectTampering(tt.env)
			if err != nil {
				t.Fatalf("DetectTampering: %v", err)
			}
			if res.IsValid != tt.wantValid {
				t.Fatalf("IsValid = %v, want %v (%+v)", res.IsValid, tt.wantValid, res)
			}
			if !tt.wantValid && res.ErrorType != simerr.TamperDetected {
				t.Fatalf("ErrorType = %q, want TAMPER_DETECTED", res.ErrorType)
			}
		})
	}
}

func TestValidateSignaturesBatch(t *testing.T) {
	m := NewCryptoMock(WithClock(testClock()))

	results, err := m.ValidateSignatures([]Envelope{
		{Signature: "pkcs7:rsa:good"},
		{Signature: ""},
		{Signature: "pkcs7:rsa:also_good"},
	})
	if err != nil {
		t.Fatalf("ValidateSignatures: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if !results[0].IsValid || results[1].IsValid || !results[2].IsValid {
		t.Fatalf("verdicts = %v %v %v", results[0].IsValid, results[1].IsValid, results[2].IsValid)
	}
	if m.HistoryLen() != 3 {
		t.Fatalf("HistoryLen = %d, want one record per envelope", m.HistoryLen())
	}
}

func TestSignMultipleDocumentsStopsAtFailure(t *testing.T) {
	m := NewCryptoMock(WithClock(testClock()))

	results, err := m.SignMultipleDocuments([]SignRequest{
		{DocumentID: "contract_1", SignerName: "Dana Signer"},
		{DocumentID: "contract_2", SignerName: "Dana Signer"},
	})
	if err != nil {
		t.Fatalf("SignMultipleDocuments: %v", err)
	}
	if len(results) != 2 || results[0].DocumentID != "contract_1" {
		t.Fatalf("results = %+v", results)
	}

	_, err = m.SignMultipleDocuments([]SignRequest{
		{DocumentID: "contract_1", SignerName: "Dana Signer"},
		{SignerName: "Dana Signer"},
	})
	if err == nil {
		t.Fatal("expected the batch to fail")
	}
	if !strings.Contains(err.Error(), "sign request 1") {
		t.Fatalf("error %q should name the failing index", err)
	}
}
