package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing file, malformed pattern table)
	ExitDataError   = 3 // Data error (corrupt history or queue file, validation failure)
)
