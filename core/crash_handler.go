package core

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync/atomic"
)

// crashHook runs before the crash report is printed, e.g. to restore the terminal
var crashHook atomic.Pointer[func()]

// SetCrashHook installs a cleanup function invoked by HandleCrash
// Passing nil removes the hook
func SetCrashHook(fn func()) {
	if fn == nil {
		crashHook.Store(nil)
		return
	}
	crashHook.Store(&fn)
}

// HandleCrash is the unified panic handler that runs the crash hook and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	if hook := crashHook.Load(); hook != nil {
		(*hook)()
	}

	os.Stdout.Sync()
	os.Stderr.Sync()

	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())

	os.Stderr.Sync()
	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword for long-lived loops
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

// Safely runs fn and recovers a panic into a log line
// Returns false if fn panicked
func Safely(logger *slog.Logger, label string, fn func(), attrs ...any) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error(label, append(attrs, "panic", fmt.Sprint(r))...)
			ok = false
		}
	}()
	fn()
	return true
}
