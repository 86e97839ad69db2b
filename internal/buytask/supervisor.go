package buytask

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
	"github.com/lvfeida/baidu-chain-dog/internal/ports"
	"github.com/lvfeida/baidu-chain-dog/pkg/sigchan"
	"github.com/lvfeida/baidu-chain-dog/pkg/syncgroup"
)

// Options Supervisor 依赖
type Options struct {
	Config    ConfigSource
	Market    ports.MarketClient
	Purchaser ports.PurchaseService
	// Sleeper 为空时使用 RealSleeper
	Sleeper Sleeper
	// ResolveAccounts 在每次拉起轮询前补全账户凭证；为空时原样使用配置中的账户
	ResolveAccounts func([]domain.Account) []domain.Account
}

// Supervisor 持有共享的阈值表和完成集合，为每个账户拉起一个轮询协程
type Supervisor struct {
	cfg             ConfigSource
	market          ports.MarketClient
	sleeper         Sleeper
	resolveAccounts func([]domain.Account) []domain.Account

	table     *ThresholdTable
	tracker   *CompletedOrderTracker
	submitter *OrderSubmitter

	mu      sync.Mutex
	handles map[string]*Handle
	stopped bool
	group   *syncgroup.SyncGroup
	wake    *sigchan.Chan
	log     *logrus.Entry
}

func NewSupervisor(opts Options) *Supervisor {
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	resolve := opts.ResolveAccounts
	if resolve == nil {
		resolve = func(accounts []domain.Account) []domain.Account { return accounts }
	}
	table := NewThresholdTable()
	tracker := NewCompletedOrderTracker(0)
	return &Supervisor{
		cfg:             opts.Config,
		market:          opts.Market,
		sleeper:         sleeper,
		resolveAccounts: resolve,
		table:           table,
		tracker:         tracker,
		submitter:       NewOrderSubmitter(opts.Purchaser, tracker, table, opts.Config, sleeper),
		handles:         make(map[string]*Handle),
		group:           syncgroup.NewSyncGroup(),
		wake:            sigchan.New(1),
		log:             logrus.WithField("component", "supervisor"),
	}
}

func (s *Supervisor) Table() *ThresholdTable { return s.table }

func (s *Supervisor) Tracker() *CompletedOrderTracker { return s.tracker }

// InitTask 按当前配置重建阈值表
func (s *Supervisor) InitTask() {
	amounts := s.cfg.Snapshot().Config.Amounts
	s.table.Rebuild(amounts)
	s.log.Infof("阈值表已重建: %d 个稀有度", s.table.Len())
}

// Spawn 为账户拉起一个独立轮询；调用方不需要等待它
// 重启令牌在这里取快照，之后只和当前值比较。Stop 之后返回 nil
func (s *Supervisor) Spawn(ctx context.Context, account domain.Account) *Handle {
	loopCtx, cancel := context.WithCancel(ctx)
	h := newHandle(account, s.cfg.Snapshot().RestartToken(), cancel)
	loop := &PollingLoop{
		account:   account,
		market:    s.market,
		cfg:       s.cfg,
		table:     s.table,
		submitter: s.submitter,
		sleeper:   s.sleeper,
		handle:    h,
		log: logrus.WithFields(logrus.Fields{
			"component": "poller",
			"user":      account.Label(),
			"loop":      h.ID,
		}),
	}

	// 登记和 group.Go 都在锁内，Stop 的 Wait 不会漏掉这个协程
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.handles[h.ID] = h
	s.group.Go(func() {
		defer cancel()
		loop.Run(loopCtx)
	})
	s.mu.Unlock()

	s.log.Infof("已启动轮询: user=%s loop=%s startTime=%d", account.Label(), h.ID, h.RestartToken)
	return h
}

// SpawnAll 为配置中的每个账户拉起轮询，返回新句柄
func (s *Supervisor) SpawnAll(ctx context.Context) []*Handle {
	accounts := s.resolveAccounts(s.cfg.Snapshot().Config.Accounts)
	if len(accounts) == 0 {
		s.log.Debugf("没有可用账户，不启动轮询")
		return nil
	}
	out := make([]*Handle, 0, len(accounts))
	for _, account := range accounts {
		if h := s.Spawn(ctx, account); h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Run 首次初始化并拉起所有账户，之后定期检查：重启令牌变化，或开关重新打开后没有存活轮询时，
// 重建阈值表并拉起新一代轮询。旧一代在各自下一次检查点自行退出。
// 上一代一个账户都没拉起时，只有重启令牌、配置版本变化或 Nudge 才会再试。
func (s *Supervisor) Run(ctx context.Context) error {
	snap := s.cfg.Snapshot()
	token := snap.RestartToken()
	var (
		idle        bool
		idleVersion uint64
	)
	if snap.Executable() {
		s.InitTask()
		idle = len(s.SpawnAll(ctx)) == 0
		idleVersion = snap.Version
	}

	timer := time.NewTimer(superviseInterval(snap.Config.SuperviseInterval()))
	defer timer.Stop()
	for {
		woke := false
		select {
		case <-ctx.Done():
			s.Stop()
			return nil
		case <-timer.C:
		case <-s.wake.C():
			woke = true
		}

		s.prune()
		snap = s.cfg.Snapshot()
		restarted := snap.RestartToken() != token
		// 空转的一代在同一配置版本下不重复初始化
		retry := restarted || woke || !idle || snap.Version != idleVersion
		if snap.Executable() && (restarted || s.Live() == 0) && retry {
			if restarted {
				s.log.Infof("检测到重启: startTime %d -> %d", token, snap.RestartToken())
			}
			token = snap.RestartToken()
			s.InitTask()
			idle = len(s.SpawnAll(ctx)) == 0
			idleVersion = snap.Version
		}
		timer.Reset(superviseInterval(snap.Config.SuperviseInterval()))
	}
}

// Nudge 让 Run 立即做一次检查，不必等到下一个周期
func (s *Supervisor) Nudge() {
	s.wake.Emit()
}

// Live 尚未退出的轮询数量
func (s *Supervisor) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.handles {
		if h.State() != StateStopped {
			n++
		}
	}
	return n
}

// Stop 取消所有轮询并等待退出；之后 Spawn 不再拉起新轮询，重复调用无副作用
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopped = true
	for _, h := range s.handles {
		h.Stop()
	}
	s.mu.Unlock()
	s.group.Wait()
	s.log.Info("所有轮询已停止")
}

// Status 所有句柄状态（按账户、启动时间排序）
func (s *Supervisor) Status() []HandleStatus {
	s.mu.Lock()
	out := make([]HandleStatus, 0, len(s.handles))
	for _, h := range s.handles {
		out = append(out, h.Status())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// CompletedCount 本进程内成功购买数量
func (s *Supervisor) CompletedCount() int {
	return s.tracker.Len()
}

// prune 丢弃已退出的句柄
func (s *Supervisor) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, h := range s.handles {
		select {
		case <-h.Done():
			delete(s.handles, id)
		default:
		}
	}
}

func superviseInterval(d time.Duration) time.Duration {
	if d <= 0 {
		return 2 * time.Second
	}
	return d
}
