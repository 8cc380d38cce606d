package diag

import (
	"fmt"
	"strings"
)

// Location is the minimal contract a source-of-truth position must satisfy.
// The IR core's Location attributes implement it.
type Location interface {
	String() string
}

// Note is a secondary message attached to a diagnostic. Notes add context
// ("op printed here", "declared here") rather than repeating the message.
type Note struct {
	Loc Location
	Msg string
}

// Diagnostic is the central record: a severity, a message, the location it
// anchors to and any notes attached while it was in flight.
type Diagnostic struct {
	Severity Severity
	Loc      Location
	Message  string
	Notes    []Note
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Loc != nil {
		fmt.Fprintf(&b, "%s: ", d.Loc)
	}
	fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	for _, n := range d.Notes {
		b.WriteString("\n  note: ")
		if n.Loc != nil {
			fmt.Fprintf(&b, "%s: ", n.Loc)
		}
		b.WriteString(n.Msg)
	}
	return b.String()
}
