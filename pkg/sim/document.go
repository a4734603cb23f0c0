package sim

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getsigsim/sigsim/internal/canon"
	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// DocumentMock simulates the document subsystem: loading, field discovery,
// mutation, and incremental signing. Simulated failures surface as Go
// errors.
type DocumentMock struct {
	eng  *engine
	docs map[string]*Document
}

// NewDocumentMock builds a document mock with an empty document store.
func NewDocumentMock(opts ...Option) *DocumentMock {
	return &DocumentMock{
		eng:  newEngine("document-mock", opts...),
		docs: make(map[string]*Document),
	}
}

// SetLogger replaces the mock's logger. A nil logger silences it.
func (m *DocumentMock) SetLogger(log *slog.Logger) {
	m.eng.setLogger(log)
}

// LoadDocument synthesizes a deterministic document for the id and stores it
// for the stateful operations. Empty or "invalid"-marked ids fail with
// DOCUMENT_LOAD_ERROR.
func (m *DocumentMock) LoadDocument(docID string) (*Document, error) {
	input := map[string]any{"documentId": docID}
	out := m.eng.execute(operation{
		name:  opLoadDocument,
		input: input,
		check: func() *Failure {
			if docID == "" || strings.Contains(strings.ToLower(docID), "invalid") {
				return m.eng.generated(simerr.DocumentLoadError, input)
			}
			return m.eng.behaviorFailure(simerr.DocumentLoadError, input)
		},
		payload: func() any { return m.storeDocument(docID).clone() },
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	return out.value.(*Document).clone(), nil
}

// GetDocument is the soft accessor: no error and no operation record, just
// the document copy and whether it was loaded.
func (m *DocumentMock) GetDocument(docID string) (*Document, bool) {
	m.eng.mu.RLock()
	defer m.eng.mu.RUnlock()
	doc, ok := m.docs[docID]
	if !ok {
		return nil, false
	}
	return doc.clone(), true
}

// DiscoverFields returns the signature fields of a loaded document.
func (m *DocumentMock) DiscoverFields(docID string) ([]SignatureField, error) {
	input := map[string]any{"documentId": docID}
	out := m.eng.execute(operation{
		name:     opDiscoverFields,
		input:    input,
		precheck: func() *Failure { return m.requireLoaded(docID) },
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.DocumentLoadError, input)
		},
		payload: func() any {
			return append([]SignatureField(nil), m.docs[docID].Fields...)
		},
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	return append([]SignatureField(nil), out.value.([]SignatureField)...), nil
}

// GetField fetches one field, distinguishing DOCUMENT_NOT_LOADED from
// FIELD_NOT_FOUND.
func (m *DocumentMock) GetField(docID, name string) (*SignatureField, error) {
	input := map[string]any{"documentId": docID, "fieldName": name}
	out := m.eng.execute(operation{
		name:     opGetField,
		input:    input,
		precheck: func() *Failure { return m.requireField(docID, name) },
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.FieldNotFound, input)
		},
		payload: func() any {
			f := *m.docs[docID].field(name)
			return f
		},
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	f := out.value.(SignatureField)
	return &f, nil
}

// SetFieldValue writes a field value on a loaded document. A non-empty
// value marks the field signed.
func (m *DocumentMock) SetFieldValue(docID, name, value string) error {
	input := map[string]any{"documentId": docID, "fieldName": name, "value": value}
	out := m.eng.execute(operation{
		name:     opSetFieldValue,
		input:    input,
		precheck: func() *Failure { return m.requireField(docID, name) },
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.FieldValidationFailed, input)
		},
		payload: func() any {
			f := m.docs[docID].field(name)
			f.Value = value
			f.Signed = value != ""
			return nil
		},
	})
	if out.failure != nil {
		return out.failure.Err()
	}
	return nil
}

// UpdateDocumentState applies the configured state onto a loaded document.
// Zero-valued state fields leave the document untouched, except Encrypted
// which always applies.
func (m *DocumentMock) UpdateDocumentState(docID string, state config.DocumentState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	input := map[string]any{
		"documentId": docID,
		"state": map[string]any{
			"version":   state.Version,
			"pageCount": state.PageCount,
			"encrypted": state.Encrypted,
		},
	}
	out := m.eng.execute(operation{
		name:     opUpdateDocumentState,
		input:    input,
		precheck: func() *Failure { return m.requireLoaded(docID) },
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.DocumentLoadError, input)
		},
		payload: func() any {
			doc := m.docs[docID]
			if state.Version != "" {
				doc.Version = state.Version
			}
			if state.PageCount > 0 {
				doc.PageCount = state.PageCount
			}
			doc.Encrypted = state.Encrypted
			for k, v := range state.Metadata {
				if doc.Metadata == nil {
					doc.Metadata = make(map[string]string, len(state.Metadata))
				}
				doc.Metadata[k] = v
			}
			return nil
		},
	})
	if out.failure != nil {
		return out.failure.Err()
	}
	return nil
}

// AddIncrementalSignature applies a synthetic signature to a field and bumps
// the document revision, mirroring an incremental save. The request's ids
// default to the addressed document and field; conflicting ids fail with
// DATA_ALIGNMENT_ERROR.
func (m *DocumentMock) AddIncrementalSignature(docID, fieldName string, req SignRequest) (*Document, error) {
	if req.SignerName == "" {
		return nil, simerr.New(simerr.MockConfigurationError, "sign request requires a signerName")
	}
	if req.DocumentID == "" {
		req.DocumentID = docID
	} else if req.DocumentID != docID {
		return nil, simerr.Newf(simerr.DataAlignmentError,
			"sign request addresses document %q but was applied to %q", req.DocumentID, docID)
	}
	if req.FieldName == "" {
		req.FieldName = fieldName
	} else if req.FieldName != fieldName {
		return nil, simerr.Newf(simerr.DataAlignmentError,
			"sign request addresses field %q but was applied to %q", req.FieldName, fieldName)
	}
	if req.Algorithm != "" && !req.Algorithm.Valid() {
		return nil, simerr.Newf(simerr.MockConfigurationError, "unsupported key algorithm %q", req.Algorithm)
	}

	input := map[string]any{
		"documentId": docID,
		"fieldName":  fieldName,
		"request":    req.asInput(),
	}
	out := m.eng.execute(operation{
		name:  opAddIncrementalSignature,
		input: input,
		precheck: func() *Failure {
			if f := m.requireField(docID, fieldName); f != nil {
				return f
			}
			if m.docs[docID].field(fieldName).Signed {
				return m.eng.generated(simerr.FieldValidationFailed, map[string]any{
					"documentId": docID,
					"fieldName":  fieldName,
				})
			}
			return nil
		},
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.SignatureInvalid, input)
		},
		payload: func() any {
			doc := m.docs[docID]
			sig := synthesizeSignature(req, canon.Hash32(input), m.eng.clk.Now())
			field := doc.field(fieldName)
			field.Signed = true
			field.Value = req.SignerName
			doc.Signatures = append(doc.Signatures, sig)
			doc.Revision++
			return doc.clone()
		},
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	return out.value.(*Document).clone(), nil
}

// ExtractSignatures lists the signatures applied to a loaded document.
func (m *DocumentMock) ExtractSignatures(docID string) ([]Signature, error) {
	input := map[string]any{"documentId": docID}
	out := m.eng.execute(operation{
		name:     opExtractSignatures,
		input:    input,
		precheck: func() *Failure { return m.requireLoaded(docID) },
		payload: func() any {
			return append([]Signature(nil), m.docs[docID].Signatures...)
		},
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	return append([]Signature(nil), out.value.([]Signature)...), nil
}

// LoadedDocuments lists loaded document ids in sorted order.
func (m *DocumentMock) LoadedDocuments() []string {
	m.eng.mu.RLock()
	defer m.eng.mu.RUnlock()
	ids := make([]string, 0, len(m.docs))
	for docID := range m.docs {
		ids = append(ids, docID)
	}
	sort.Strings(ids)
	return ids
}

// LoadedCount returns the number of loaded documents.
func (m *DocumentMock) LoadedCount() int {
	m.eng.mu.RLock()
	defer m.eng.mu.RUnlock()
	return len(m.docs)
}

// UpdateConfiguration merges a partial configuration into the mock.
func (m *DocumentMock) UpdateConfiguration(patch config.MockConfiguration) error {
	return m.eng.updateConfiguration(patch)
}

// Configuration returns a deep copy of the active configuration.
func (m *DocumentMock) Configuration() config.MockConfiguration {
	return m.eng.configuration()
}

// Reset clears history, cache, loaded documents, and restores the empty
// baseline configuration.
func (m *DocumentMock) Reset() {
	m.eng.reset(func() {
		m.docs = make(map[string]*Document)
	})
}

// OperationHistory returns a copy of the append-only call history.
func (m *DocumentMock) OperationHistory() []OperationRecord {
	return m.eng.operationHistory()
}

// HistoryLen returns the number of recorded operations.
func (m *DocumentMock) HistoryLen() int {
	return m.eng.historyLen()
}

// CacheSize returns the number of cached operation results.
func (m *DocumentMock) CacheSize() int {
	return m.eng.cacheSize()
}

// ClearCache drops cached results without touching history or state.
func (m *DocumentMock) ClearCache() {
	m.eng.clearCache()
}

func (m *DocumentMock) requireLoaded(docID string) *Failure {
	if _, ok := m.docs[docID]; ok {
		return nil
	}
	return m.eng.generated(simerr.DocumentNotLoaded, map[string]any{"documentId": docID})
}

func (m *DocumentMock) requireField(docID, name string) *Failure {
	if f := m.requireLoaded(docID); f != nil {
		return f
	}
	if m.docs[docID].field(name) == nil {
		return m.eng.generated(simerr.FieldNotFound, map[string]any{
			"documentId": docID,
			"fieldName":  name,
		})
	}
	return nil
}

// storeDocument synthesizes the deterministic document for an id. Version,
// page count, and fields come from the configured DocumentState and field
// definitions when present, and from the id's content hash otherwise.
func (m *DocumentMock) storeDocument(docID string) *Document {
	seed := canon.Hash32(docID)
	doc := &Document{
		ID:        docID,
		Version:   "1.7",
		PageCount: 1 + int(seed%4),
		Revision:  1,
		Metadata:  map[string]string{"producer": "sigsim document mock"},
	}

	cfg := &m.eng.cfg
	if st := cfg.DocumentState; st != nil {
		if st.Version != "" {
			doc.Version = st.Version
		}
		if st.PageCount > 0 {
			doc.PageCount = st.PageCount
		}
		doc.Encrypted = st.Encrypted
		for k, v := range st.Metadata {
			doc.Metadata[k] = v
		}
	}

	if len(cfg.Fields) > 0 {
		doc.Fields = make([]SignatureField, 0, len(cfg.Fields))
		for _, def := range cfg.Fields {
			doc.Fields = append(doc.Fields, fieldFromDefinition(def))
		}
	} else {
		count := 1 + int(seed>>4)%3
		doc.Fields = make([]SignatureField, 0, count)
		for i := 0; i < count; i++ {
			doc.Fields = append(doc.Fields, SignatureField{
				Name:     fmt.Sprintf("signature_field_%d", i+1),
				Page:     1 + i%doc.PageCount,
				Bounds:   Rect{X: 72, Y: 680 - float64(i)*60, Width: 180, Height: 40},
				Required: i == 0,
			})
		}
	}

	m.docs[docID] = doc
	return doc
}
