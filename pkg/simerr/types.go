package simerr

// ErrorType identifies a class of simulated or infrastructure failure.
type ErrorType string

// Simulated domain failures.
const (
	DocumentLoadError     ErrorType = "DOCUMENT_LOAD_ERROR"
	DocumentNotLoaded     ErrorType = "DOCUMENT_NOT_LOADED"
	FieldNotFound         ErrorType = "FIELD_NOT_FOUND"
	FieldValidationFailed ErrorType = "FIELD_VALIDATION_FAILED"
	CryptoValidationError ErrorType = "CRYPTO_VALIDATION_FAILED"
	PKCS7Invalid          ErrorType = "PKCS7_INVALID"
	SignatureInvalid      ErrorType = "SIGNATURE_INVALID"
	CertificateExpired    ErrorType = "CERTIFICATE_EXPIRED"
	CertificateRevoked    ErrorType = "CERTIFICATE_REVOKED"
	TimestampInvalid      ErrorType = "TIMESTAMP_INVALID"
	TamperDetected        ErrorType = "TAMPER_DETECTED"
)

// Infrastructure failures raised by the engine itself.
const (
	MockConfigurationError ErrorType = "MOCK_CONFIGURATION_ERROR"
	DataAlignmentError     ErrorType = "DATA_ALIGNMENT_ERROR"
	IntegrationError       ErrorType = "INTEGRATION_ERROR"
	InvalidPattern         ErrorType = "INVALID_PATTERN"
	PatternNotFound        ErrorType = "PATTERN_NOT_FOUND"
	MissingRequiredField   ErrorType = "MISSING_REQUIRED_FIELD"
	InvalidRule            ErrorType = "INVALID_RULE"
	NoActiveContext        ErrorType = "NO_ACTIVE_CONTEXT"
	UnknownPreset          ErrorType = "UNKNOWN_PRESET"
	UnknownMock            ErrorType = "UNKNOWN_MOCK"
)

// Severity ranks how serious a failure is. The set is closed; generated
// contexts always carry one of these four values.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists all valid severities in ascending order.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// ValidSeverity reports whether s is one of the four known severities.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank returns the ordinal position of a severity, low first. Unknown
// severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Category is the numeric error band used by the production signing
// pipeline. Bands group related failures: every code in a band shares the
// thousands digit.
type Category int

const (
	CategoryInputValidation Category = 1000
	CategoryCryptographic   Category = 2000
	CategoryPDFProcessing   Category = 3000
	CategorySystem          Category = 4000
	CategoryCertificate     Category = 5000
	CategoryCompliance      Category = 6000
	CategoryTimestamp       Category = 7000
	CategoryProcessing      Category = 8000
)

// String returns the human-readable band name.
func (c Category) String() string {
	switch c {
	case CategoryInputValidation:
		return "input_validation"
	case CategoryCryptographic:
		return "cryptographic"
	case CategoryPDFProcessing:
		return "pdf_processing"
	case CategorySystem:
		return "system"
	case CategoryCertificate:
		return "certificate_validation"
	case CategoryCompliance:
		return "standards_compliance"
	case CategoryTimestamp:
		return "timestamp"
	case CategoryProcessing:
		return "processing"
	}
	return "unknown"
}

// Category maps an error type onto its numeric band.
func (t ErrorType) Category() Category {
	switch t {
	case FieldValidationFailed, MissingRequiredField, InvalidRule, InvalidPattern:
		return CategoryInputValidation
	case CryptoValidationError, PKCS7Invalid, SignatureInvalid, TamperDetected:
		return CategoryCryptographic
	case DocumentLoadError, DocumentNotLoaded, FieldNotFound:
		return CategoryPDFProcessing
	case MockConfigurationError, NoActiveContext, UnknownPreset, UnknownMock, PatternNotFound:
		return CategorySystem
	case CertificateExpired, CertificateRevoked:
		return CategoryCertificate
	case DataAlignmentError:
		return CategoryCompliance
	case TimestampInvalid:
		return CategoryTimestamp
	case IntegrationError:
		return CategoryProcessing
	}
	return CategoryProcessing
}

// Domain returns the short token embedded in generated error codes, for
// example TST_PDF_1712345678_42 for a PDF-processing failure.
func (t ErrorType) Domain() string {
	switch t.Category() {
	case CategoryInputValidation:
		return "FIELD"
	case CategoryCryptographic:
		return "CRYPTO"
	case CategoryPDFProcessing:
		return "PDF"
	case CategorySystem:
		return "SYS"
	case CategoryCertificate:
		return "CERT"
	case CategoryCompliance:
		return "ALIGN"
	case CategoryTimestamp:
		return "TIME"
	case CategoryProcessing:
		return "PROC"
	}
	return "GEN"
}

// DefaultSeverity returns the severity assumed for an error type when the
// caller's context does not pin one.
func (t ErrorType) DefaultSeverity() Severity {
	switch t.Category() {
	case CategoryCryptographic, CategoryCertificate:
		return SeverityCritical
	case CategoryPDFProcessing, CategoryTimestamp:
		return SeverityHigh
	case CategoryInputValidation, CategoryCompliance:
		return SeverityMedium
	}
	return SeverityLow
}
