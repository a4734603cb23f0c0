package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsigsim/sigsim/internal/canon"
	"github.com/getsigsim/sigsim/pkg/sim"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Data kinds accepted by GenerateCompatibleData and
// ValidateDataCompatibility.
const (
	DataKindDocument  = "document"
	DataKindField     = "field"
	DataKindSignature = "signature"
)

// DataOptions override parts of generated sample data.
type DataOptions struct {
	DocumentID string
	FieldName  string
	SignerName string
}

// DataReport is the verdict of a data compatibility check. Incompatible
// data is a value result, not an error; the issues name what is off.
type DataReport struct {
	Kind       string   `json:"kind"`
	Compatible bool     `json:"compatible"`
	Issues     []string `json:"issues,omitempty"`
}

// GenerateCompatibleData builds a sample payload of the given kind that
// matches the active context's configuration. The payload is deterministic
// for a given test id, kind, and configuration. Valid only while a context
// is active.
func (r *Runner) GenerateCompatibleData(kind string, opts DataOptions) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx := r.active
	if ctx == nil {
		return nil, simerr.New(simerr.NoActiveContext, "no test context is active")
	}

	seed := canon.Hash32(map[string]any{"testId": ctx.TestID, "kind": kind})
	docCfg := ctx.Config.Mocks.Document

	docID := opts.DocumentID
	if docID == "" {
		docID = fmt.Sprintf("contract_%04x", seed&0xffff)
	}

	switch kind {
	case DataKindDocument:
		data := map[string]any{
			"documentId": docID,
			"version":    "1.7",
			"pageCount":  1,
		}
		if docCfg != nil && docCfg.DocumentState != nil {
			if docCfg.DocumentState.Version != "" {
				data["version"] = docCfg.DocumentState.Version
			}
			if docCfg.DocumentState.PageCount > 0 {
				data["pageCount"] = docCfg.DocumentState.PageCount
			}
		}
		if docCfg != nil && len(docCfg.Fields) > 0 {
			names := make([]string, len(docCfg.Fields))
			for i, f := range docCfg.Fields {
				names[i] = f.Name
			}
			data["fieldNames"] = names
		}
		return data, nil

	case DataKindField:
		name := opts.FieldName
		page := 1
		bounds := map[string]any{"x": 72.0, "y": 680.0, "width": 180.0, "height": 40.0}
		required := false
		if docCfg != nil && len(docCfg.Fields) > 0 {
			f := docCfg.Fields[int(seed)%len(docCfg.Fields)]
			if name == "" {
				name = f.Name
			}
			page = f.Page
			bounds = map[string]any{
				"x": f.Bounds.X, "y": f.Bounds.Y,
				"width": f.Bounds.Width, "height": f.Bounds.Height,
			}
			required = f.Required
		}
		if name == "" {
			name = fmt.Sprintf("signature_field_%d", int(seed%3)+1)
		}
		return map[string]any{
			"name":     name,
			"page":     page,
			"bounds":   bounds,
			"required": required,
		}, nil

	case DataKindSignature:
		signer := opts.SignerName
		if signer == "" {
			signer = fmt.Sprintf("Test Signer %02d", int(seed%20)+1)
		}
		fieldName := opts.FieldName
		if fieldName == "" && docCfg != nil && len(docCfg.Fields) > 0 {
			fieldName = docCfg.Fields[int(seed)%len(docCfg.Fields)].Name
		}
		algorithms := sim.KeyAlgorithms()
		return map[string]any{
			"documentId":  docID,
			"fieldName":   fieldName,
			"signerName":  signer,
			"algorithm":   string(algorithms[int(seed)%len(algorithms)]),
			"signingTime": r.clk.Now().UTC().Format(time.RFC3339),
		}, nil
	}
	return nil, simerr.Newf(simerr.MockConfigurationError,
		"unknown data kind %q: expected document, field, or signature", kind)
}

// ValidateDataCompatibility checks a payload of the given kind against the
// active context's configuration. Issues found are recorded as findings on
// the context and reported back. Valid only while a context is active.
func (r *Runner) ValidateDataCompatibility(data map[string]any, kind string) (*DataReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx := r.active
	if ctx == nil {
		return nil, simerr.New(simerr.NoActiveContext, "no test context is active")
	}

	report := &DataReport{Kind: kind}
	docCfg := ctx.Config.Mocks.Document

	switch kind {
	case DataKindDocument:
		if stringAt(data, "documentId") == "" {
			report.Issues = append(report.Issues, "documentId must be a non-empty string")
		}
		if n, ok := intAt(data, "pageCount"); ok && n < 1 {
			report.Issues = append(report.Issues, fmt.Sprintf("pageCount %d must be >= 1", n))
		}

	case DataKindField:
		name := stringAt(data, "name")
		if name == "" {
			report.Issues = append(report.Issues, "name must be a non-empty string")
		}
		if n, ok := intAt(data, "page"); ok && n < 1 {
			report.Issues = append(report.Issues, fmt.Sprintf("page %d must be >= 1", n))
		}
		if name != "" && docCfg != nil && len(docCfg.Fields) > 0 && enforceFieldRanges(ctx) {
			if !fieldConfigured(ctx, name) {
				report.Issues = append(report.Issues,
					fmt.Sprintf("field %q is not part of the configured field set", name))
			}
		}

	case DataKindSignature:
		if stringAt(data, "documentId") == "" {
			report.Issues = append(report.Issues, "documentId must be a non-empty string")
		}
		if stringAt(data, "signerName") == "" {
			report.Issues = append(report.Issues, "signerName must be a non-empty string")
		}
		if alg := stringAt(data, "algorithm"); alg != "" && !sim.KeyAlgorithm(alg).Valid() {
			report.Issues = append(report.Issues,
				fmt.Sprintf("algorithm %q is not supported, expected one of %s", alg, algorithmList()))
		}

	default:
		return nil, simerr.Newf(simerr.MockConfigurationError,
			"unknown data kind %q: expected document, field, or signature", kind)
	}

	report.Compatible = len(report.Issues) == 0
	for _, issue := range report.Issues {
		ctx.findings = append(ctx.findings, Finding{
			Source:   "data:" + kind,
			Severity: simerr.SeverityMedium,
			Message:  issue,
		})
	}
	return report, nil
}

func enforceFieldRanges(ctx *TestContext) bool {
	docCfg := ctx.Config.Mocks.Document
	return docCfg != nil && docCfg.Alignment != nil && docCfg.Alignment.EnforceFieldRanges
}

func fieldConfigured(ctx *TestContext, name string) bool {
	for _, f := range ctx.Config.Mocks.Document.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

func algorithmList() string {
	algorithms := sim.KeyAlgorithms()
	names := make([]string, len(algorithms))
	for i, a := range algorithms {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func stringAt(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func intAt(data map[string]any, key string) (int, bool) {
	switch v := data[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
