// Package lifecycle orchestrates startup and shutdown of long-running
// service components in dependency order.
package lifecycle

import "context"

// Component is the lifecycle interface managed components implement.
type Component interface {
	// Start initializes and starts the component. Must be idempotent.
	Start(ctx context.Context) error

	// Stop gracefully stops the component, finishing in-flight work within
	// the context deadline. Errors are logged but do not stop the shutdown
	// of other components.
	Stop(ctx context.Context) error

	// Name returns the human-readable component name used in logs.
	Name() string
}
