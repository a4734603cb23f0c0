package pattern

import "github.com/getsigsim/sigsim/pkg/simerr"

// Built-in pattern keys.
const (
	KeyDocumentLoadFailure = "document-load-failure"
	KeyDocumentNotLoaded   = "document-not-loaded"
	KeyFieldNotFound       = "field-not-found"
	KeyFieldValidation     = "field-validation-failure"
	KeyCryptoValidation    = "crypto-validation-failure"
	KeyPKCS7Invalid        = "pkcs7-invalid"
	KeyCertificateExpired  = "certificate-expired"
	KeyTimestampInvalid    = "timestamp-invalid"
	KeyMockConfiguration   = "mock-configuration-failure"
	KeyDataAlignment       = "data-alignment-failure"
	KeyIntegrationFailure  = "integration-failure"
	KeyTamperDetected      = "tamper-detected"
)

// builtinPatterns seed every fresh Registry. Keys stay stable because tests
// in downstream suites format against them directly.
var builtinPatterns = map[string]Pattern{
	KeyDocumentLoadFailure: {
		ErrorType:       simerr.DocumentLoadError,
		MessageTemplate: "Failed to load PDF document {documentId}: {reason}",
		RequiredFields:  []string{"documentId"},
		ValidationRules: []Rule{
			{Type: RuleRequiredField, Field: "documentId"},
			{Type: RuleStringFormat, Field: "documentId"},
		},
	},
	KeyDocumentNotLoaded: {
		ErrorType:       simerr.DocumentNotLoaded,
		MessageTemplate: "Document {documentId} is not loaded",
		RequiredFields:  []string{"documentId"},
		ValidationRules: []Rule{
			{Type: RuleStringFormat, Field: "documentId"},
		},
	},
	KeyFieldNotFound: {
		ErrorType:       simerr.FieldNotFound,
		MessageTemplate: `Field "{fieldName}" not found`,
		RequiredFields:  []string{"fieldName"},
		ValidationRules: []Rule{
			{Type: RuleRequiredField, Field: "fieldName"},
			{Type: RuleStringFormat, Field: "fieldName"},
		},
	},
	KeyFieldValidation: {
		ErrorType:       simerr.FieldValidationFailed,
		MessageTemplate: `Field "{fieldName}" failed validation: {reason}`,
		RequiredFields:  []string{"fieldName", "reason"},
		ValidationRules: []Rule{
			{Type: RuleStringFormat, Field: "fieldName"},
			{Type: RuleStringFormat, Field: "reason"},
		},
	},
	KeyCryptoValidation: {
		ErrorType:       simerr.CryptoValidationError,
		MessageTemplate: "Signature validation failed for {signerName}: {reason}",
		RequiredFields:  []string{"reason"},
		ValidationRules: []Rule{
			{Type: RuleStringFormat, Field: "reason"},
		},
	},
	KeyPKCS7Invalid: {
		ErrorType:       simerr.PKCS7Invalid,
		MessageTemplate: "Invalid PKCS#7 envelope: {reason}",
		RequiredFields:  []string{"reason"},
		ValidationRules: []Rule{
			{Type: RuleRequiredField, Field: "reason"},
		},
	},
	KeyCertificateExpired: {
		ErrorType:       simerr.CertificateExpired,
		MessageTemplate: "Signing certificate for {signerName} expired on {notAfter}",
		RequiredFields:  []string{"notAfter"},
	},
	KeyTimestampInvalid: {
		ErrorType:       simerr.TimestampInvalid,
		MessageTemplate: "Signature timestamp {timestamp} is outside the certificate validity window",
		RequiredFields:  []string{"timestamp"},
	},
	KeyMockConfiguration: {
		ErrorType:       simerr.MockConfigurationError,
		MessageTemplate: "Invalid mock configuration: {reason}",
		RequiredFields:  []string{"reason"},
		ValidationRules: []Rule{
			{Type: RuleStringFormat, Field: "reason"},
		},
	},
	KeyDataAlignment: {
		ErrorType:       simerr.DataAlignmentError,
		MessageTemplate: "Generated data does not align with configuration: {detail}",
		RequiredFields:  []string{"detail"},
	},
	KeyIntegrationFailure: {
		ErrorType:       simerr.IntegrationError,
		MessageTemplate: "Integration check failed between {sourceComponent} and {targetComponent}",
		RequiredFields:  []string{"sourceComponent", "targetComponent"},
		ValidationRules: []Rule{
			{Type: RuleStringFormat, Field: "sourceComponent"},
			{Type: RuleStringFormat, Field: "targetComponent"},
		},
	},
	KeyTamperDetected: {
		ErrorType:       simerr.TamperDetected,
		MessageTemplate: "Document content was modified after signing: digest mismatch in {region}",
		RequiredFields:  []string{"region"},
	},
}

// BuiltinKeys lists the seeded pattern keys.
func BuiltinKeys() []string {
	keys := make([]string, 0, len(builtinPatterns))
	for k := range builtinPatterns {
		keys = append(keys, k)
	}
	return keys
}
