package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/lvfeida/baidu-chain-dog/pkg/logger"
)

// Watcher 监听配置文件变化并热加载到 Store
// 监听的是所在目录：编辑器保存时常见的 rename+create 也能被捕获
type Watcher struct {
	path     string
	store    *Store
	watcher  *fsnotify.Watcher
	onReload func(*Snapshot)
}

// NewWatcher 创建配置文件监听器
func NewWatcher(path string, store *Store) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("解析配置文件路径失败: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, store: store, watcher: fw}, nil
}

// OnReload 注册热加载成功后的回调，需在 Run 之前调用
func (w *Watcher) OnReload(fn func(*Snapshot)) {
	w.onReload = fn
}

// Reload 重新读取配置文件，校验通过后发布新快照
// 校验失败时保留旧配置
func (w *Watcher) Reload() (*Snapshot, error) {
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return w.store.Replace(cfg), nil
}

// Run 阻塞处理文件事件，直到 ctx 结束
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			snap, err := w.Reload()
			if err != nil {
				logger.Warnf("配置热加载失败，继续使用旧配置: %v", err)
				continue
			}
			logger.Infof("配置已热加载: version=%d startTime=%d executable=%v",
				snap.Version, snap.RestartToken(), snap.Executable())
			if w.onReload != nil {
				w.onReload(snap)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("fsnotify error=%v", err)
		}
	}
}
