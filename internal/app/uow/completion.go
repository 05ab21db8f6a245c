package uow

import (
	"context"
	"sync"
)

type completionKey struct{}

type completion struct {
	mu  sync.Mutex
	fns []func()
}

// WithCompletion returns a context that collects AfterCompletion callbacks
// and a func that runs them in reverse registration order.
func WithCompletion(ctx context.Context) (context.Context, func()) {
	c := &completion{}
	return context.WithValue(ctx, completionKey{}, c), func() {
		c.mu.Lock()
		fns := c.fns
		c.fns = nil
		c.mu.Unlock()
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}

// AfterCompletion schedules fn to run once the surrounding unit of work has
// committed or rolled back. It reports false when ctx has no such unit, in
// which case the caller runs fn itself.
func AfterCompletion(ctx context.Context, fn func()) bool {
	c, ok := ctx.Value(completionKey{}).(*completion)
	if !ok || fn == nil {
		return false
	}
	c.mu.Lock()
	c.fns = append(c.fns, fn)
	c.mu.Unlock()
	return true
}
