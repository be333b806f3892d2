package contxt

import (
	"context"
	"time"
)

// WithOptionalTimeout bounds parent by timeout. A zero or negative timeout
// only adds cancellation.
func WithOptionalTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
