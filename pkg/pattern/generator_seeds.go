package pattern

import "github.com/getsigsim/sigsim/pkg/simerr"

// fallbackProductionPattern covers error types with no registered alternates.
var fallbackProductionPattern = ProductionPattern{
	CodePattern:     "TST_{domain}_{timestamp}_{seq}",
	MessageTemplate: "Simulated failure (Code: {errorCode}): {errorType} condition triggered",
	ContextFields:   []string{"errorType"},
	Severity:        simerr.SeverityMedium,
}

// builtinProductionPatterns is the per-type alternate catalog. Severities are
// distinct within a type so severity-pinned contexts select exactly one
// alternate and index cycling walks all of them.
var builtinProductionPatterns = map[simerr.ErrorType][]ProductionPattern{
	simerr.DocumentLoadError: {
		{
			ErrorType:       simerr.DocumentLoadError,
			CodePattern:     "TST_PDF_{timestamp}_{seq}",
			MessageTemplate: "PDF document processing failed (Code: {errorCode}): unable to parse cross-reference table in {documentId}",
			ContextFields:   []string{"documentId"},
			Severity:        simerr.SeverityHigh,
		},
		{
			ErrorType:       simerr.DocumentLoadError,
			CodePattern:     "TST_PDF_{timestamp}_{seq}",
			MessageTemplate: "PDF structure validation failed (Code: {errorCode}): document {documentId} header is malformed",
			ContextFields:   []string{"documentId"},
			Severity:        simerr.SeverityCritical,
		},
		{
			ErrorType:       simerr.DocumentLoadError,
			CodePattern:     "TST_PDF_{timestamp}_{seq}",
			MessageTemplate: "Document stream truncated (Code: {errorCode}): unexpected end of stream after page {pageCount}",
			ContextFields:   []string{"documentId", "pageCount"},
			Severity:        simerr.SeverityMedium,
		},
	},
	simerr.DocumentNotLoaded: {
		{
			ErrorType:       simerr.DocumentNotLoaded,
			CodePattern:     "TST_PDF_{timestamp}_{seq}",
			MessageTemplate: "Document access failed (Code: {errorCode}): document {documentId} is not loaded",
			ContextFields:   []string{"documentId"},
			Severity:        simerr.SeverityHigh,
		},
	},
	simerr.FieldNotFound: {
		{
			ErrorType:       simerr.FieldNotFound,
			CodePattern:     "TST_FIELD_{timestamp}_{seq}",
			MessageTemplate: "Form field lookup failed (Code: {errorCode}): field {fieldName} does not exist in {documentId}",
			ContextFields:   []string{"fieldName", "documentId"},
			Severity:        simerr.SeverityMedium,
		},
		{
			ErrorType:       simerr.FieldNotFound,
			CodePattern:     "TST_FIELD_{timestamp}_{seq}",
			MessageTemplate: "AcroForm dictionary incomplete (Code: {errorCode}): no widget annotation for {fieldName}",
			ContextFields:   []string{"fieldName"},
			Severity:        simerr.SeverityHigh,
		},
	},
	simerr.FieldValidationFailed: {
		{
			ErrorType:       simerr.FieldValidationFailed,
			CodePattern:     "TST_FIELD_{timestamp}_{seq}",
			MessageTemplate: "Field validation failed (Code: {errorCode}): {fieldName} rejected value: {reason}",
			ContextFields:   []string{"fieldName", "reason"},
			Severity:        simerr.SeverityMedium,
		},
		{
			ErrorType:       simerr.FieldValidationFailed,
			CodePattern:     "TST_FIELD_{timestamp}_{seq}",
			MessageTemplate: "Field constraint violation (Code: {errorCode}): {fieldName} on page {page} is required but unsigned",
			ContextFields:   []string{"fieldName", "page"},
			Severity:        simerr.SeverityHigh,
		},
		{
			ErrorType:       simerr.FieldValidationFailed,
			CodePattern:     "TST_FIELD_{timestamp}_{seq}",
			MessageTemplate: "Field bounds invalid (Code: {errorCode}): {fieldName} rectangle extends outside page {page}",
			ContextFields:   []string{"fieldName", "page"},
			Severity:        simerr.SeverityLow,
		},
	},
	simerr.CryptoValidationError: {
		{
			ErrorType:       simerr.CryptoValidationError,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Signature validation failed (Code: {errorCode}): digest mismatch for signer {signerName}",
			ContextFields:   []string{"signerName"},
			Severity:        simerr.SeverityCritical,
		},
		{
			ErrorType:       simerr.CryptoValidationError,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Cryptographic verification failed (Code: {errorCode}): {algorithm} signature does not match signed attributes",
			ContextFields:   []string{"algorithm"},
			Severity:        simerr.SeverityHigh,
		},
		{
			ErrorType:       simerr.CryptoValidationError,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Signature verification incomplete (Code: {errorCode}): unable to resolve signing chain for {signerName}",
			ContextFields:   []string{"signerName"},
			Severity:        simerr.SeverityMedium,
		},
	},
	simerr.PKCS7Invalid: {
		{
			ErrorType:       simerr.PKCS7Invalid,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "PKCS#7 parse failed (Code: {errorCode}): envelope is not valid DER: {reason}",
			ContextFields:   []string{"reason"},
			Severity:        simerr.SeverityCritical,
		},
		{
			ErrorType:       simerr.PKCS7Invalid,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "PKCS#7 structure invalid (Code: {errorCode}): SignedData missing signerInfos",
			ContextFields:   nil,
			Severity:        simerr.SeverityHigh,
		},
		{
			ErrorType:       simerr.PKCS7Invalid,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "PKCS#7 content mismatch (Code: {errorCode}): encapsulated digest disagrees with byte range",
			ContextFields:   nil,
			Severity:        simerr.SeverityMedium,
		},
	},
	simerr.SignatureInvalid: {
		{
			ErrorType:       simerr.SignatureInvalid,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Signature rejected (Code: {errorCode}): signature value {signature} failed verification",
			ContextFields:   []string{"signature"},
			Severity:        simerr.SeverityCritical,
		},
		{
			ErrorType:       simerr.SignatureInvalid,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Signature malformed (Code: {errorCode}): value is empty or contains invalid markers",
			ContextFields:   nil,
			Severity:        simerr.SeverityHigh,
		},
	},
	simerr.CertificateExpired: {
		{
			ErrorType:       simerr.CertificateExpired,
			CodePattern:     "TST_CERT_{timestamp}_{seq}",
			MessageTemplate: "Certificate validation failed (Code: {errorCode}): certificate for {signerName} expired on {notAfter}",
			ContextFields:   []string{"signerName", "notAfter"},
			Severity:        simerr.SeverityCritical,
		},
		{
			ErrorType:       simerr.CertificateExpired,
			CodePattern:     "TST_CERT_{timestamp}_{seq}",
			MessageTemplate: "Certificate outside validity window (Code: {errorCode}): signing time {signingTime} is after notAfter",
			ContextFields:   []string{"signingTime"},
			Severity:        simerr.SeverityHigh,
		},
	},
	simerr.CertificateRevoked: {
		{
			ErrorType:       simerr.CertificateRevoked,
			CodePattern:     "TST_CERT_{timestamp}_{seq}",
			MessageTemplate: "Certificate revoked (Code: {errorCode}): serial {serialNumber} appears on the issuer CRL",
			ContextFields:   []string{"serialNumber"},
			Severity:        simerr.SeverityCritical,
		},
	},
	simerr.TimestampInvalid: {
		{
			ErrorType:       simerr.TimestampInvalid,
			CodePattern:     "TST_TIME_{timestamp}_{seq}",
			MessageTemplate: "Timestamp validation failed (Code: {errorCode}): token time {signingTime} is outside acceptable skew",
			ContextFields:   []string{"signingTime"},
			Severity:        simerr.SeverityHigh,
		},
		{
			ErrorType:       simerr.TimestampInvalid,
			CodePattern:     "TST_TIME_{timestamp}_{seq}",
			MessageTemplate: "Timestamp token rejected (Code: {errorCode}): TSA certificate could not be validated",
			ContextFields:   nil,
			Severity:        simerr.SeverityMedium,
		},
	},
	simerr.TamperDetected: {
		{
			ErrorType:       simerr.TamperDetected,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Tampering detected (Code: {errorCode}): document modified after signing in {region}",
			ContextFields:   []string{"region"},
			Severity:        simerr.SeverityCritical,
		},
		{
			ErrorType:       simerr.TamperDetected,
			CodePattern:     "TST_CRYPTO_{timestamp}_{seq}",
			MessageTemplate: "Integrity check failed (Code: {errorCode}): byte range digest changed since signature was applied",
			ContextFields:   nil,
			Severity:        simerr.SeverityHigh,
		},
	},
	simerr.MockConfigurationError: {
		{
			ErrorType:       simerr.MockConfigurationError,
			CodePattern:     "TST_SYS_{timestamp}_{seq}",
			MessageTemplate: "Mock configuration rejected (Code: {errorCode}): {reason}",
			ContextFields:   []string{"reason"},
			Severity:        simerr.SeverityMedium,
		},
	},
	simerr.DataAlignmentError: {
		{
			ErrorType:       simerr.DataAlignmentError,
			CodePattern:     "TST_ALIGN_{timestamp}_{seq}",
			MessageTemplate: "Data alignment failure (Code: {errorCode}): generated data violates configured constraints: {detail}",
			ContextFields:   []string{"detail"},
			Severity:        simerr.SeverityMedium,
		},
	},
	simerr.IntegrationError: {
		{
			ErrorType:       simerr.IntegrationError,
			CodePattern:     "TST_PROC_{timestamp}_{seq}",
			MessageTemplate: "Integration failure (Code: {errorCode}): {sourceComponent} produced data {targetComponent} cannot consume",
			ContextFields:   []string{"sourceComponent", "targetComponent"},
			Severity:        simerr.SeverityHigh,
		},
		{
			ErrorType:       simerr.IntegrationError,
			CodePattern:     "TST_PROC_{timestamp}_{seq}",
			MessageTemplate: "Cross-component check failed (Code: {errorCode}): shared state diverged between mocks",
			ContextFields:   nil,
			Severity:        simerr.SeverityMedium,
		},
	},
}
