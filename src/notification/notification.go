// Package notification shows short user-facing messages: recognition results,
// clipboard failures and fatal startup errors.
package notification

import (
	"log"
	"unicode/utf8"
)

const maxBodyRunes = 200

// Notifier shows a non-blocking message to the user.
type Notifier interface {
	Notify(title, body string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, body string)

func (f NotifierFunc) Notify(title, body string) { f(title, body) }

// Truncate shortens body to a size fit for a popup.
func Truncate(body string) string {
	if utf8.RuneCountInString(body) <= maxBodyRunes {
		return body
	}
	r := []rune(body)
	return string(r[:maxBodyRunes]) + "..."
}

// Log writes notifications to the log only.
type Log struct{}

func (Log) Notify(title, body string) {
	log.Printf("NOTIFY: %s: %s", title, Truncate(body))
}
