// Package debug provides conditional debug logging for cl.
//
// Debug logging is enabled by setting the CL_DEBUG environment variable:
//
//	CL_DEBUG=1 cl --view risk
//
// When enabled, debug messages are written to stderr with timestamps.
// When disabled (default), all debug functions are no-ops with zero overhead.
//
// Usage:
//
//	import "github.com/vanderheijden86/claimlens/pkg/debug"
//
//	func myFunc() {
//	    debug.Log("resolved %d columns", count)
//	    // ...
//	    debug.LogTiming("myFunc", elapsed)
//	}
package debug

import (
	"log"
	"os"
	"time"
)

var (
	// enabled is true when CL_DEBUG env var is set
	enabled bool
	// logger writes to stderr with [CL_DEBUG] prefix
	logger *log.Logger
)

func init() {
	if os.Getenv("CL_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[CL_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}
