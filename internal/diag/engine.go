package diag

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Handler consumes a diagnostic. Returning true stops propagation to later
// handlers; returning false passes the diagnostic on.
type Handler func(Diagnostic) bool

// HandlerID identifies a registered handler so it can be removed.
type HandlerID uint64

// Engine fans diagnostics out to registered handlers. A diagnostic that no
// handler consumes falls through to the fallback writer (stderr unless
// redirected), so nothing is ever silently dropped.
type Engine struct {
	mu       sync.Mutex
	nextID   HandlerID
	handlers []registeredHandler
	fallback io.Writer
}

type registeredHandler struct {
	id HandlerID
	fn Handler
}

// RegisterHandler adds a handler. Handlers run in registration order.
func (e *Engine) RegisterHandler(h Handler) HandlerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.handlers = append(e.handlers, registeredHandler{id: e.nextID, fn: h})
	return e.nextID
}

// UnregisterHandler removes a previously registered handler.
func (e *Engine) UnregisterHandler(id HandlerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, h := range e.handlers {
		if h.id == id {
			e.handlers = append(e.handlers[:i], e.handlers[i+1:]...)
			return
		}
	}
}

// SetFallback redirects unconsumed diagnostics. Passing nil restores stderr.
func (e *Engine) SetFallback(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = w
}

// Report dispatches a finished diagnostic.
func (e *Engine) Report(d Diagnostic) {
	e.mu.Lock()
	handlers := make([]registeredHandler, len(e.handlers))
	copy(handlers, e.handlers)
	fallback := e.fallback
	e.mu.Unlock()

	for _, h := range handlers {
		if h.fn(d) {
			return
		}
	}
	if fallback == nil {
		fallback = os.Stderr
	}
	fmt.Fprintln(fallback, d.String())
}

// Emit starts a diagnostic bound to this engine. The caller chains WithNote
// calls and finishes with Done (or just drops it on the floor after Done).
func (e *Engine) Emit(sev Severity, loc Location, msg string) *InFlight {
	return &InFlight{
		engine: e,
		diag:   Diagnostic{Severity: sev, Loc: loc, Message: msg},
	}
}

// InFlight accumulates notes before the diagnostic reaches the engine.
type InFlight struct {
	engine   *Engine
	diag     Diagnostic
	reported bool
}

// WithNote appends a note.
func (f *InFlight) WithNote(loc Location, format string, args ...any) *InFlight {
	if f == nil {
		return nil
	}
	f.diag.Notes = append(f.diag.Notes, Note{Loc: loc, Msg: fmt.Sprintf(format, args...)})
	return f
}

// Done reports the diagnostic. Reporting twice is a no-op.
func (f *InFlight) Done() {
	if f == nil || f.reported {
		return
	}
	f.reported = true
	f.engine.Report(f.diag)
}
