package shutdown

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdownRunsAllCallbacks(t *testing.T) {
	m := NewManager()
	var n atomic.Int32
	boom := errors.New("boom")
	m.OnShutdown("a", func(context.Context) error { n.Add(1); return nil })
	m.OnShutdown("b", func(context.Context) error { n.Add(1); return boom })
	m.OnShutdown("nil", nil)

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "b: boom")
	assert.Equal(t, int32(2), n.Load())
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager()
	release := make(chan struct{})
	defer close(release)
	m.OnShutdown("stuck", func(context.Context) error { <-release; return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, m.Shutdown(ctx), context.DeadlineExceeded)
}

func TestShutdownEmpty(t *testing.T) {
	assert.NoError(t, NewManager().Shutdown(context.Background()))
}
