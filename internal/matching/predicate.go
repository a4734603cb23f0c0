package matching

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator compiles and runs scenario predicates, caching compiled programs
// by expression text. Predicate environments are always the operation input
// map, so the expression alone keys the cache.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator creates an empty predicate evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// EvalBool compiles (or reuses) the expression and evaluates it against env.
// Non-boolean results are an error; absent env keys evaluate as nil.
func (e *Evaluator) EvalBool(expression string, env map[string]any) (bool, error) {
	program, err := e.compile(expression)
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", expression, err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expression, err)
	}

	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result %T is not a boolean", expression, result)
	}
	return b, nil
}

// Validate compiles the expression without running it, for configuration-time
// checks.
func (e *Evaluator) Validate(expression string) error {
	_, err := e.compile(expression)
	return err
}

func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if program, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	// Another goroutine may have compiled the same expression meanwhile.
	if existing, ok := e.cache[expression]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.cache[expression] = program
	e.mu.Unlock()

	return program, nil
}

// CacheSize reports how many compiled programs are held.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}
