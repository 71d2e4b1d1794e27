package config

import (
	"fmt"
	"io"
	"os"
)

// Exit codes used by command entry points.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// Exitf writes a formatted error message to stderr and exits with
// ExitFailure.
func Exitf(format string, args ...any) {
	os.Exit(report(os.Stderr, ExitFailure, format, args...))
}

// UsageExitf is Exitf for malformed command lines; it exits with ExitUsage.
func UsageExitf(format string, args ...any) {
	os.Exit(report(os.Stderr, ExitUsage, format, args...))
}

func report(w io.Writer, code int, format string, args ...any) int {
	fmt.Fprintf(w, format+"\n", args...)
	return code
}
