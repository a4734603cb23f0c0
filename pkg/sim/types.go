package sim

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// KeyAlgorithm identifies the signing key algorithm of a simulated
// certificate.
type KeyAlgorithm string

// Supported key algorithms.
const (
	AlgorithmRSA       KeyAlgorithm = "RSA"
	AlgorithmECDSAP256 KeyAlgorithm = "ECDSA_P256"
	AlgorithmECDSAP384 KeyAlgorithm = "ECDSA_P384"
	AlgorithmECDSAP521 KeyAlgorithm = "ECDSA_P521"
)

// KeyAlgorithms returns every supported algorithm in declaration order.
func KeyAlgorithms() []KeyAlgorithm {
	return []KeyAlgorithm{AlgorithmRSA, AlgorithmECDSAP256, AlgorithmECDSAP384, AlgorithmECDSAP521}
}

// Valid reports whether the algorithm is one of the supported values.
func (a KeyAlgorithm) Valid() bool {
	switch a {
	case AlgorithmRSA, AlgorithmECDSAP256, AlgorithmECDSAP384, AlgorithmECDSAP521:
		return true
	}
	return false
}

// Rect is a widget rectangle in PDF user-space points.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SignatureField is a signature widget on a simulated document.
type SignatureField struct {
	Name     string `json:"name"`
	Page     int    `json:"page"`
	Bounds   Rect   `json:"bounds"`
	Required bool   `json:"required"`
	Signed   bool   `json:"signed"`
	Value    string `json:"value,omitempty"`
}

// Validate checks the field can be registered with a mock.
func (f SignatureField) Validate() error {
	if f.Name == "" {
		return simerr.New(simerr.MockConfigurationError, "signature field requires a name")
	}
	if f.Page < 1 {
		return simerr.Newf(simerr.MockConfigurationError, "field %q: page must be >= 1, got %d", f.Name, f.Page)
	}
	if f.Bounds.Width < 0 || f.Bounds.Height < 0 {
		return simerr.Newf(simerr.MockConfigurationError, "field %q: bounds must not be negative", f.Name)
	}
	return nil
}

func (f SignatureField) asInput() map[string]any {
	in := map[string]any{
		"name": f.Name,
		"page": f.Page,
		"bounds": map[string]any{
			"x": f.Bounds.X, "y": f.Bounds.Y,
			"width": f.Bounds.Width, "height": f.Bounds.Height,
		},
		"required": f.Required,
	}
	if f.Value != "" {
		in["value"] = f.Value
	}
	return in
}

// Certificate is a synthesized signer certificate. No key material exists
// behind it; validity windows and serials are derived deterministically.
type Certificate struct {
	Subject      string       `json:"subject"`
	Issuer       string       `json:"issuer"`
	SerialNumber string       `json:"serialNumber"`
	NotBefore    time.Time    `json:"notBefore"`
	NotAfter     time.Time    `json:"notAfter"`
	KeyAlgorithm KeyAlgorithm `json:"keyAlgorithm"`
}

// Signature is one applied signature on a simulated document.
type Signature struct {
	FieldName   string       `json:"fieldName"`
	SignerName  string       `json:"signerName"`
	SigningTime time.Time    `json:"signingTime"`
	Algorithm   KeyAlgorithm `json:"algorithm"`
	Certificate Certificate  `json:"certificate"`
	Digest      string       `json:"digest"`
}

// Document is a simulated loaded document.
type Document struct {
	ID         string            `json:"id"`
	Version    string            `json:"version"`
	PageCount  int               `json:"pageCount"`
	Revision   int               `json:"revision"`
	Encrypted  bool              `json:"encrypted"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Fields     []SignatureField  `json:"fields,omitempty"`
	Signatures []Signature       `json:"signatures,omitempty"`
}

func (d *Document) clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	if d.Fields != nil {
		out.Fields = append([]SignatureField(nil), d.Fields...)
	}
	if d.Signatures != nil {
		out.Signatures = append([]Signature(nil), d.Signatures...)
	}
	return &out
}

func (d *Document) field(name string) *SignatureField {
	for i := range d.Fields {
		if d.Fields[i].Name == name {
			return &d.Fields[i]
		}
	}
	return nil
}

// ValidationResult is the verdict of a validating operation. Results are
// returned by copy so callers cannot mutate cached instances.
type ValidationResult struct {
	IsValid   bool             `json:"isValid"`
	ErrorType simerr.ErrorType `json:"errorType,omitempty"`
	Message   string           `json:"message,omitempty"`
	Context   map[string]any   `json:"context,omitempty"`
}

func (r *ValidationResult) clone() *ValidationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Context = config.CopyContext(r.Context)
	return &out
}

// OperationRecord is the audit entry for one mock call. Records are appended
// in call order, never mutated, and cleared only by reset.
type OperationRecord struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Input     map[string]any `json:"input"`
	Result    map[string]any `json:"result,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (r OperationRecord) clone() OperationRecord {
	out := r
	out.Input = config.CopyContext(r.Input)
	out.Result = config.CopyContext(r.Result)
	return out
}

// Envelope is the input to the crypto validation operations: a signature
// blob plus whatever surrounding material the caller wants checked.
type Envelope struct {
	Signature   string       `json:"signature"`
	Content     string       `json:"content,omitempty"`
	Digest      string       `json:"digest,omitempty"`
	SignerName  string       `json:"signerName,omitempty"`
	SigningTime time.Time    `json:"signingTime,omitempty"`
	Certificate *Certificate `json:"certificate,omitempty"`
}

func (e Envelope) asInput() map[string]any {
	in := map[string]any{"signature": e.Signature}
	if e.Content != "" {
		in["content"] = e.Content
	}
	if e.Digest != "" {
		in["digest"] = e.Digest
	}
	if e.SignerName != "" {
		in["signerName"] = e.SignerName
	}
	if !e.SigningTime.IsZero() {
		in["signingTime"] = e.SigningTime.UTC().Format(time.RFC3339)
	}
	if e.Certificate != nil {
		in["certificate"] = map[string]any{
			"subject":      e.Certificate.Subject,
			"serialNumber": e.Certificate.SerialNumber,
			"notAfter":     e.Certificate.NotAfter.UTC().Format(time.RFC3339),
		}
	}
	return in
}

// SignRequest asks the crypto mock for a synthetic signature.
type SignRequest struct {
	DocumentID string       `json:"documentId"`
	FieldName  string       `json:"fieldName,omitempty"`
	SignerName string       `json:"signerName"`
	Algorithm  KeyAlgorithm `json:"algorithm,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Location   string       `json:"location,omitempty"`
}

func (r SignRequest) asInput() map[string]any {
	in := map[string]any{
		"documentId": r.DocumentID,
		"signerName": r.SignerName,
	}
	if r.FieldName != "" {
		in["fieldName"] = r.FieldName
	}
	if r.Algorithm != "" {
		in["algorithm"] = string(r.Algorithm)
	}
	if r.Reason != "" {
		in["reason"] = r.Reason
	}
	if r.Location != "" {
		in["location"] = r.Location
	}
	return in
}

// SignResult is the product of a successful signing operation.
type SignResult struct {
	DocumentID    string    `json:"documentId"`
	FieldName     string    `json:"fieldName,omitempty"`
	SignatureData string    `json:"signatureData"`
	Signature     Signature `json:"signature"`
	SignedAt      time.Time `json:"signedAt"`
}

func (r *SignResult) clone() *SignResult {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

// Envelope packages the result for the validation operations, so signed
// output can be fed straight back into ValidatePKCS7 or VerifySignature.
func (r SignResult) Envelope() Envelope {
	cert := r.Signature.Certificate
	return Envelope{
		Signature:   r.SignatureData,
		Digest:      r.Signature.Digest,
		SignerName:  r.Signature.SignerName,
		SigningTime: r.SignedAt,
		Certificate: &cert,
	}
}

// ContentDigest returns the digest the mocks expect for the given content.
// DetectTampering flags envelopes whose Digest disagrees with this value.
func ContentDigest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func rectFromConfig(r config.Rect) Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// fieldFromDefinition converts a configured field definition into a live
// signature field.
func fieldFromDefinition(def config.FieldDefinition) SignatureField {
	return SignatureField{
		Name:     def.Name,
		Page:     def.Page,
		Bounds:   rectFromConfig(def.Bounds),
		Required: def.Required,
		Value:    def.Value,
		Signed:   def.Value != "",
	}
}

// synthesizeSignature builds the deterministic signature product for a sign
// request: digest from the request identity, serial from the seed, validity
// anchored at the signing time.
func synthesizeSignature(req SignRequest, seed uint32, now time.Time) Signature {
	alg := req.Algorithm
	if alg == "" {
		alg = AlgorithmRSA
	}
	digest := ContentDigest(fmt.Sprintf("%s/%s/%s", req.DocumentID, req.FieldName, req.SignerName))
	cert := Certificate{
		Subject:      "CN=" + req.SignerName,
		Issuer:       "CN=SigSim Test CA,O=SigSim",
		SerialNumber: fmt.Sprintf("%08X", seed),
		NotBefore:    now.Add(-24 * time.Hour),
		NotAfter:     now.AddDate(1, 0, 0),
		KeyAlgorithm: alg,
	}
	return Signature{
		FieldName:   req.FieldName,
		SignerName:  req.SignerName,
		SigningTime: now,
		Algorithm:   alg,
		Certificate: cert,
		Digest:      digest,
	}
}
