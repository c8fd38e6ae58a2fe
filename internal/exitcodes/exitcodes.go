package exitcodes

// Exit codes for the fileutils commands.
// Scripts depend on these values; do not renumber.
const (
	Success         = 0 // Successful execution
	Usage           = 1 // Bad arguments or flags
	InvalidConfig   = 2 // Configuration file invalid or missing
	SafetyViolation = 3 // The guard refused to remove a protected path
	RuntimeError    = 4 // Runtime error during execution
)
