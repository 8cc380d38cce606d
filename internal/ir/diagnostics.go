package ir

import (
	"fmt"
	"runtime/debug"

	"lattice/internal/diag"
)

// emit starts a diagnostic anchored at the operation, honoring the
// context's attach-the-op and stack-trace settings.
func (op *Operation) emit(sev diag.Severity, format string, args ...any) *diag.InFlight {
	f := op.ctx.diagEngine.Emit(sev, op.loc, fmt.Sprintf(format, args...))
	if op.ctx.ShouldPrintOpOnDiagnostic() {
		f.WithNote(op.loc, "see current operation: %s", PrintOperation(op))
	}
	if op.ctx.ShouldPrintStackTraceOnDiagnostic() {
		f.WithNote(nil, "diagnostic emitted at:\n%s", debug.Stack())
	}
	return f
}

// EmitError reports an error diagnostic at the operation's location. The
// returned in-flight diagnostic takes further notes until Done.
func (op *Operation) EmitError(format string, args ...any) *diag.InFlight {
	return op.emit(diag.SevError, format, args...)
}

// EmitWarning reports a warning diagnostic at the operation's location.
func (op *Operation) EmitWarning(format string, args ...any) *diag.InFlight {
	return op.emit(diag.SevWarning, format, args...)
}

// EmitRemark reports a remark diagnostic at the operation's location.
func (op *Operation) EmitRemark(format string, args ...any) *diag.InFlight {
	return op.emit(diag.SevRemark, format, args...)
}

// EmitError reports an error diagnostic at a bare location.
func EmitError(c *Context, loc Location, format string, args ...any) *diag.InFlight {
	return c.diagEngine.Emit(diag.SevError, loc, fmt.Sprintf(format, args...))
}

// EmitWarning reports a warning diagnostic at a bare location.
func EmitWarning(c *Context, loc Location, format string, args ...any) *diag.InFlight {
	return c.diagEngine.Emit(diag.SevWarning, loc, fmt.Sprintf(format, args...))
}

// EmitRemark reports a remark diagnostic at a bare location.
func EmitRemark(c *Context, loc Location, format string, args ...any) *diag.InFlight {
	return c.diagEngine.Emit(diag.SevRemark, loc, fmt.Sprintf(format, args...))
}
