// Package logging provides structured logging configuration for sigsim.
//
// This package wraps log/slog to keep logging consistent across the engine.
// Components accept a *slog.Logger via SetLogger and default to logging.Nop(),
// so the library is silent inside test suites unless a caller opts in.
//
// # Usage
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatText,
//	})
//
//	coord.SetLogger(logging.Component(logger, "coordinator"))
//
// Mocks log individual operations at debug, resets and configuration swaps at
// info, and misuse at warn or error.
//
// # Capture
//
// CaptureHandler records entries in memory so tests can assert on what a
// component logged without parsing rendered output.
package logging
