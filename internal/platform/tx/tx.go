package tx

import (
	"context"
	"sync"
)

// Manager wraps a critical section that spans several store calls.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

type NoopManager struct{}

func (NoopManager) Within(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// SerialManager runs one section at a time. Sections must not nest on the same manager.
type SerialManager struct {
	mu sync.Mutex
}

func NewSerialManager() *SerialManager {
	return &SerialManager{}
}

func (m *SerialManager) Within(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
