//go:build !windows

package notification

import "log"

// ShowBlockingError logs a blocking error message on non-Windows platforms.
func ShowBlockingError(title, message string) {
	log.Printf("ERROR: %s: %s", title, message)
}

// Default returns the platform notifier.
func Default() Notifier { return Log{} }
