// Package hooks dispatches host lifecycle events to the learning handlers.
//
// The host runs one process per event and passes its payload through
// environment variables. InputFromEnv collects them, and Manager runs every
// handler registered for the event, gathering user-facing notices.
package hooks
