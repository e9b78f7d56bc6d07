// Package notifications delivers batch events via ntfy.
//
// A separation batch can run for hours on a large library, so the CLI
// publishes a message when a run finishes or aborts. The service degrades to
// a no-op when no topic is configured, so callers never branch on whether
// notifications are enabled.
package notifications
