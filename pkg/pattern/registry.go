package pattern

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/getsigsim/sigsim/pkg/logging"
	"github.com/getsigsim/sigsim/pkg/simerr"
)

// Registry holds keyed error patterns. A fresh registry is seeded with the
// built-in set; callers may register more keys or overwrite existing ones.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]Pattern
	log      *slog.Logger
}

// NewRegistry creates a registry seeded with the built-in patterns.
func NewRegistry() *Registry {
	r := &Registry{
		patterns: make(map[string]Pattern, len(builtinPatterns)),
		log:      logging.Nop(),
	}
	for key, p := range builtinPatterns {
		r.patterns[key] = p.clone()
	}
	return r
}

// SetLogger sets the operational logger for the registry.
func (r *Registry) SetLogger(log *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log != nil {
		r.log = log
	} else {
		r.log = logging.Nop()
	}
}

// RegisterPattern stores pattern under key, overwriting any existing entry.
func (r *Registry) RegisterPattern(key string, p Pattern) error {
	if key == "" {
		return simerr.New(simerr.InvalidPattern, "pattern key must not be empty")
	}
	if err := p.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	_, replaced := r.patterns[key]
	r.patterns[key] = p.clone()
	log := r.log
	r.mu.Unlock()

	log.Debug("pattern registered", "key", key, "errorType", p.ErrorType, "replaced", replaced)
	return nil
}

// GetPattern returns the pattern registered under key.
func (r *Registry) GetPattern(key string) (Pattern, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[key]
	if !ok {
		return Pattern{}, false
	}
	return p.clone(), true
}

// HasPattern reports whether key is registered.
func (r *Registry) HasPattern(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.patterns[key]
	return ok
}

// RemovePattern deletes key, reporting whether it existed.
func (r *Registry) RemovePattern(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.patterns[key]
	if ok {
		delete(r.patterns, key)
	}
	return ok
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.patterns))
	for k := range r.patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of registered patterns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

// PatternsByType returns every registered pattern with the given error type.
func (r *Registry) PatternsByType(t simerr.ErrorType) []Pattern {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Pattern
	for _, p := range r.patterns {
		if p.ErrorType == t {
			out = append(out, p.clone())
		}
	}
	return out
}

// FormatError renders the pattern under key against ctx.
//
// The context must contain every required field and satisfy every validation
// rule; the first violation aborts formatting. Placeholders with no matching
// context key stay verbatim in the message. The returned Context is the
// caller's map, echoed without additions.
func (r *Registry) FormatError(key string, ctx map[string]any) (*FormattedError, error) {
	r.mu.RLock()
	p, ok := r.patterns[key]
	log := r.log
	r.mu.RUnlock()

	if !ok {
		return nil, simerr.Newf(simerr.PatternNotFound, "no error pattern registered under key %q", key)
	}

	for _, field := range p.RequiredFields {
		if _, present := ctx[field]; !present {
			return nil, simerr.Newf(simerr.MissingRequiredField,
				"required field %q is missing from error context for pattern %q", field, key).
				WithContext(map[string]any{"missingField": field, "patternKey": key})
		}
	}

	for _, rule := range p.ValidationRules {
		if err := applyRule(rule, ctx, key); err != nil {
			return nil, err
		}
	}

	msg := substitute(p.MessageTemplate, ctx)
	log.Debug("pattern formatted", "key", key, "errorType", p.ErrorType)

	return &FormattedError{
		ErrorType: p.ErrorType,
		Message:   msg,
		Context:   ctx,
		Timestamp: time.Now(),
	}, nil
}

func applyRule(rule Rule, ctx map[string]any, key string) error {
	val, present := ctx[rule.Field]
	switch rule.Type {
	case RuleRequiredField:
		if !present {
			return simerr.Newf(simerr.MissingRequiredField,
				"required field %q is missing from error context for pattern %q", rule.Field, key).
				WithContext(map[string]any{"missingField": rule.Field, "patternKey": key})
		}
	case RuleStringFormat:
		if !present {
			return nil
		}
		if _, isString := val.(string); !isString {
			return simerr.Newf(simerr.FieldValidationFailed,
				"field %q must be a string for format validation, got %T", rule.Field, val).
				WithContext(map[string]any{"field": rule.Field, "patternKey": key})
		}
	}
	return nil
}
