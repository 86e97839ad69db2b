package syncgroup

import (
	"sync"
	"sync/atomic"
)

// SyncGroup 是 sync.WaitGroup 的包装器，简化 goroutine 生命周期管理
// 自动管理 Add() 和 Done()，减少遗漏 Done() 的风险；可以在运行中继续追加
type SyncGroup struct {
	wg      sync.WaitGroup
	running atomic.Int64
}

// NewSyncGroup 创建新的 SyncGroup
func NewSyncGroup() *SyncGroup {
	return &SyncGroup{}
}

// Go 启动一个 goroutine 并纳入等待
func (w *SyncGroup) Go(fn func()) {
	if fn == nil {
		return
	}
	w.wg.Add(1)
	w.running.Add(1)
	go func() {
		defer func() {
			w.running.Add(-1)
			w.wg.Done()
		}()
		fn()
	}()
}

// Running 当前仍在运行的 goroutine 数量
func (w *SyncGroup) Running() int {
	return int(w.running.Load())
}

// Wait 等待所有 goroutine 完成
func (w *SyncGroup) Wait() {
	w.wg.Wait()
}
