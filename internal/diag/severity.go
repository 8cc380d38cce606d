package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevRemark is for advisory diagnostics.
	SevRemark Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevRemark:
		return "remark"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}
