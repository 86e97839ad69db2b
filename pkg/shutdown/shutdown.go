package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lvfeida/baidu-chain-dog/pkg/logger"
)

// Handler 关闭回调，应在 ctx 结束前返回
type Handler func(ctx context.Context) error

type namedHandler struct {
	name string
	fn   Handler
}

// Manager 优雅关闭管理器
type Manager struct {
	mu        sync.Mutex
	callbacks []namedHandler
}

func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	if handler == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, namedHandler{name: name, fn: handler})
}

// Shutdown 并发执行所有关闭回调，阻塞到全部完成或 ctx 超时
// 返回各回调错误的合并结果
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	callbacks := append([]namedHandler(nil), m.callbacks...)
	m.mu.Unlock()

	if len(callbacks) == 0 {
		logger.Info("没有注册的关闭回调")
		return nil
	}
	logger.Infof("开始优雅关闭，共 %d 个回调", len(callbacks))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, cb := range callbacks {
		wg.Add(1)
		go func(cb namedHandler) {
			defer wg.Done()
			if err := cb.fn(ctx); err != nil {
				logger.Warnf("关闭回调 %s 失败: %v", cb.name, err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", cb.name, err))
				mu.Unlock()
				return
			}
			logger.Debugf("关闭回调 %s 完成", cb.name)
		}(cb)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("所有关闭回调已完成")
	case <-ctx.Done():
		logger.Warnf("关闭超时: %v", ctx.Err())
		return ctx.Err()
	}
	return errors.Join(errs...)
}
