package core

// Process exit codes. Signal-based exits follow the Unix 128+signal
// convention so shell scripts driving batch runs can tell an interrupt
// from a genuine failure.
const (
	// ExitCodeSuccess means the command finished cleanly
	ExitCodeSuccess = 0

	// ExitCodeError means the command failed
	ExitCodeError = 1

	// ExitCodeSIGINT means the run was interrupted (128 + 2)
	ExitCodeSIGINT = 130

	// ExitCodeSIGTERM means the run was terminated (128 + 15)
	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}

// IsSignalExit reports whether the exit code came from a signal.
func IsSignalExit(code int) bool {
	return code == ExitCodeSIGINT || code == ExitCodeSIGTERM
}
