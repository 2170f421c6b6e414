package utils

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic to an error callback
type PanicError struct {
	Context string
	Value   any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Context, e.Value)
}

func logPanic(logger *Logger, context string, value any) {
	logger.Error("Panic recovered in %s: %v\nStack trace:\n%s", context, value, string(debug.Stack()))
}

// RecoverFromPanic recovers from panics and logs them
func RecoverFromPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logPanic(logger, context, r)
	}
}

// SafeGo runs a goroutine with panic recovery
func SafeGo(logger *Logger, context string, fn func()) {
	go func() {
		defer RecoverFromPanic(logger, context)
		fn()
	}()
}

// SafeGoWithError runs fn in a goroutine. A returned error is logged
// (redacted) and handed to onError; a panic reaches onError as *PanicError,
// so callers waiting on a result always hear back.
func SafeGoWithError(logger *Logger, context string, fn func() error, onError func(error)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, context, r)
				if onError != nil {
					onError(&PanicError{Context: context, Value: r})
				}
			}
		}()
		if err := fn(); err != nil {
			logger.Warn("%s failed: %s", context, Redact(err.Error()))
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// WrapError prefixes err with context; nil stays nil
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
