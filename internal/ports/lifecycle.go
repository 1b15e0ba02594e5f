package ports

import "context"

// Lifecycle restarts or ends the hosting session. Both may not return.
type Lifecycle interface {
	Restart(ctx context.Context) error
	Terminate(ctx context.Context) error
}
