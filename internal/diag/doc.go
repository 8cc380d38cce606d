// Package diag defines the diagnostic model shared by the IR core and its
// clients.
//
// # Purpose
//
//   - Provide deterministic data structures for findings produced while
//     building, verifying, or folding IR.
//   - Offer a light-weight Engine that lets producers emit diagnostics
//     without coupling to concrete storage or formatting layers.
//
// # Scope
//
// Package diag performs no formatting beyond Diagnostic.String and no IO
// except the engine's fallback writer. Rendering lives in the CLI layer. The
// package deliberately knows nothing about the IR: locations are anything
// that can describe itself as a string, which keeps the dependency arrow
// pointing from the IR core into diag and not back.
//
// # Emitting diagnostics
//
// Producers obtain an InFlight from Engine.Emit (or the Operation emit
// helpers in the IR core), attach notes, and let it report on Done. Handlers
// registered with the engine see diagnostics in registration order; the first
// handler that reports the diagnostic as consumed stops propagation.
package diag
