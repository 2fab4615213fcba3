package lifecycle

import "context"

// Hook is a named piece of teardown work.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}
