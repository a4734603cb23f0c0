package sim

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/getsigsim/sigsim/pkg/config"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// FieldMock simulates the form-field subsystem: a registry of signature
// fields plus value validation. Unknown fields surface as Go errors;
// validation verdicts are ValidationResult values.
type FieldMock struct {
	eng    *engine
	fields map[string]*SignatureField
}

// NewFieldMock builds a field mock with an empty registry.
func NewFieldMock(opts ...Option) *FieldMock {
	return &FieldMock{
		eng:    newEngine("field-mock", opts...),
		fields: make(map[string]*SignatureField),
	}
}

// SetLogger replaces the mock's logger. A nil logger silences it.
func (m *FieldMock) SetLogger(log *slog.Logger) {
	m.eng.setLogger(log)
}

// RegisterField adds a field to the registry, replacing any previous
// registration under the same name.
func (m *FieldMock) RegisterField(field SignatureField) error {
	if err := field.Validate(); err != nil {
		return err
	}
	input := map[string]any{"field": field.asInput()}
	out := m.eng.execute(operation{
		name:  opRegisterField,
		input: input,
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.MockConfigurationError, input)
		},
		payload: func() any {
			f := field
			m.fields[field.Name] = &f
			return nil
		},
	})
	if out.failure != nil {
		return out.failure.Err()
	}
	return nil
}

// RegisterFields registers a batch, validating everything up front and
// stopping at the first simulated failure.
func (m *FieldMock) RegisterFields(fields []SignatureField) error {
	for i, f := range fields {
		if err := f.Validate(); err != nil {
			return simerr.Newf(simerr.MockConfigurationError, "fields[%d]: %v", i, err)
		}
	}
	for _, f := range fields {
		if err := m.RegisterField(f); err != nil {
			return err
		}
	}
	return nil
}

// LookupField fetches a registered field or fails with FIELD_NOT_FOUND.
func (m *FieldMock) LookupField(name string) (*SignatureField, error) {
	input := map[string]any{"fieldName": name}
	out := m.eng.execute(operation{
		name:     opLookupField,
		input:    input,
		precheck: func() *Failure { return m.requireRegistered(name) },
		check: func() *Failure {
			return m.eng.behaviorFailure(simerr.FieldNotFound, input)
		},
		payload: func() any {
			f := *m.fields[name]
			return f
		},
	})
	if out.failure != nil {
		return nil, out.failure.Err()
	}
	f := out.value.(SignatureField)
	return &f, nil
}

// GetField is the soft accessor: no error and no operation record.
func (m *FieldMock) GetField(name string) (*SignatureField, bool) {
	m.eng.mu.RLock()
	defer m.eng.mu.RUnlock()
	f, ok := m.fields[name]
	if !ok {
		return nil, false
	}
	out := *f
	return &out, true
}

// ValidateField checks a candidate value against a registered field. An
// unregistered name is an error; a registered field with a bad value yields
// an invalid result, not an error.
func (m *FieldMock) ValidateField(name string, value any) (*ValidationResult, error) {
	input := map[string]any{"fieldName": name, "value": value}
	out := m.eng.execute(operation{
		name:     opValidateField,
		input:    input,
		precheck: func() *Failure { return m.requireRegistered(name) },
		check:    func() *Failure { return m.checkValue(name, value, input) },
		payload:  func() any { return &ValidationResult{IsValid: true} },
	})
	if out.failure != nil {
		if out.failure.ErrorType == simerr.FieldNotFound {
			return nil, out.failure.Err()
		}
		return out.failure.Result(), nil
	}
	return out.value.(*ValidationResult).clone(), nil
}

// RegisteredFields lists registered fields sorted by name.
func (m *FieldMock) RegisteredFields() []SignatureField {
	m.eng.mu.RLock()
	defer m.eng.mu.RUnlock()
	out := make([]SignatureField, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegisteredCount returns the number of registered fields.
func (m *FieldMock) RegisteredCount() int {
	m.eng.mu.RLock()
	defer m.eng.mu.RUnlock()
	return len(m.fields)
}

// UpdateConfiguration merges a partial configuration into the mock.
func (m *FieldMock) UpdateConfiguration(patch config.MockConfiguration) error {
	return m.eng.updateConfiguration(patch)
}

// Configuration returns a deep copy of the active configuration.
func (m *FieldMock) Configuration() config.MockConfiguration {
	return m.eng.configuration()
}

// Reset clears history, cache, registered fields, and restores the empty
// baseline configuration.
func (m *FieldMock) Reset() {
	m.eng.reset(func() {
		m.fields = make(map[string]*SignatureField)
	})
}

// OperationHistory returns a copy of the append-only call history.
func (m *FieldMock) OperationHistory() []OperationRecord {
	return m.eng.operationHistory()
}

// HistoryLen returns the number of recorded operations.
func (m *FieldMock) HistoryLen() int {
	return m.eng.historyLen()
}

// CacheSize returns the number of cached operation results.
func (m *FieldMock) CacheSize() int {
	return m.eng.cacheSize()
}

// ClearCache drops cached results without touching history or state.
func (m *FieldMock) ClearCache() {
	m.eng.clearCache()
}

func (m *FieldMock) requireRegistered(name string) *Failure {
	if _, ok := m.fields[name]; ok {
		return nil
	}
	return m.eng.generated(simerr.FieldNotFound, map[string]any{"fieldName": name})
}

// checkValue applies the built-in validation heuristics: forced failure via
// ShouldSucceed, empty values on required fields, non-string values under
// strict typing, and "invalid"-marked strings.
func (m *FieldMock) checkValue(name string, value any, input map[string]any) *Failure {
	if f := m.eng.behaviorFailure(simerr.FieldValidationFailed, input); f != nil {
		return f
	}

	field := m.fields[name]
	s, isString := value.(string)

	if field.Required && (value == nil || (isString && strings.TrimSpace(s) == "")) {
		return m.eng.generated(simerr.FieldValidationFailed, map[string]any{
			"fieldName": name,
			"reason":    "required field has no value",
		})
	}
	if m.eng.strictTypes() && value != nil && !isString {
		return m.eng.generated(simerr.FieldValidationFailed, map[string]any{
			"fieldName": name,
			"reason":    "value must be a string",
		})
	}
	if isString && strings.Contains(strings.ToLower(s), "invalid") {
		return m.eng.generated(simerr.FieldValidationFailed, map[string]any{
			"fieldName": name,
			"reason":    "value is marked invalid",
		})
	}
	return nil
}
