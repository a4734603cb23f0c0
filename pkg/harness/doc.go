// Package harness is the top-level test orchestrator. A Runner owns a mock
// coordinator, a configuration factory, a pattern registry, and an error
// generator; ExecuteTest runs a caller-supplied body inside a managed
// context and sweeps all mock state afterward on success, failure, and
// panic alike.
//
// Contexts are sequential: one body runs to completion against the runner's
// coordinator before the next context is created. Callers wanting parallel
// execution use an independent Runner per worker.
package harness
