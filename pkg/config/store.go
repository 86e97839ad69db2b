package config

import (
	"sync"
	"sync/atomic"
)

// Snapshot 某一版本的只读配置
// 轮询方每轮读取一次，读到的 Config 不会再被修改
type Snapshot struct {
	Version uint64
	Config  *Config
}

// RestartToken 重启令牌（启动时间）
func (s *Snapshot) RestartToken() int64 {
	return s.Config.StartTime
}

// Executable 总开关
func (s *Snapshot) Executable() bool {
	return s.Config.IsExecutable
}

// Store 进程级配置存储：写时复制 + 原子替换
// 轮询协程主动读取（拉模式），不订阅变更
type Store struct {
	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex // 串行化写入，保证版本号单调
}

// NewStore 以初始配置创建存储，版本从 1 开始
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.cur.Store(&Snapshot{Version: 1, Config: cfg.Clone()})
	return s
}

// Snapshot 原子读取当前快照
func (s *Store) Snapshot() *Snapshot {
	return s.cur.Load()
}

// Replace 整体替换配置（配置文件热加载）
func (s *Store) Replace(cfg *Config) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := &Snapshot{Version: s.cur.Load().Version + 1, Config: cfg.Clone()}
	s.cur.Store(next)
	return next
}

// Update 在当前配置副本上修改后发布新版本
func (s *Store) Update(fn func(c *Config)) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.cur.Load()
	c := prev.Config.Clone()
	fn(c)
	next := &Snapshot{Version: prev.Version + 1, Config: c}
	s.cur.Store(next)
	return next
}
