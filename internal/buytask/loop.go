package buytask

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
	"github.com/lvfeida/baidu-chain-dog/internal/metrics"
	"github.com/lvfeida/baidu-chain-dog/internal/ports"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
)

// FirstPage 市场分页从 1 开始
const FirstPage = 1

// LoopState 轮询状态机
type LoopState int32

const (
	StateRunning LoopState = iota
	StateBackoff
	StateStopped
)

func (s LoopState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateBackoff:
		return "BACKOFF"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Handle 一个账户轮询协程的句柄，由 Supervisor 持有
type Handle struct {
	ID           string
	Account      domain.Account
	RestartToken int64
	StartedAt    time.Time

	state      atomic.Int32
	page       atomic.Int64
	iterations atomic.Int64
	cancel     context.CancelFunc
	done       chan struct{}
}

func newHandle(account domain.Account, token int64, cancel context.CancelFunc) *Handle {
	h := &Handle{
		ID:           uuid.NewString(),
		Account:      account,
		RestartToken: token,
		StartedAt:    time.Now(),
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	h.page.Store(FirstPage)
	return h
}

func (h *Handle) State() LoopState { return LoopState(h.state.Load()) }

func (h *Handle) Page() int { return int(h.page.Load()) }

func (h *Handle) Iterations() int64 { return h.iterations.Load() }

// Done 轮询协程退出后关闭
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop 立即取消（会打断正在进行的等待）
func (h *Handle) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Handle) setState(s LoopState) { h.state.Store(int32(s)) }

// HandleStatus 句柄状态快照（控制面展示）
type HandleStatus struct {
	ID           string    `json:"id"`
	AccountID    string    `json:"account_id"`
	Account      string    `json:"account"`
	State        string    `json:"state"`
	Page         int       `json:"page"`
	Iterations   int64     `json:"iterations"`
	RestartToken int64     `json:"restart_token"`
	StartedAt    time.Time `json:"started_at"`
}

func (h *Handle) Status() HandleStatus {
	return HandleStatus{
		ID:           h.ID,
		AccountID:    h.Account.ID,
		Account:      h.Account.Label(),
		State:        h.State().String(),
		Page:         h.Page(),
		Iterations:   h.Iterations(),
		RestartToken: h.RestartToken,
		StartedAt:    h.StartedAt,
	}
}

// PollingLoop 单账户轮询：检查 -> 等待 -> 拉取 -> 评估下单 -> 翻页/退避
type PollingLoop struct {
	account   domain.Account
	market    ports.MarketClient
	cfg       ConfigSource
	table     *ThresholdTable
	submitter *OrderSubmitter
	sleeper   Sleeper
	handle    *Handle
	log       *logrus.Entry
}

// Run 一直运行到重启令牌变化、总开关关闭或 ctx 取消
func (l *PollingLoop) Run(ctx context.Context) {
	defer close(l.handle.done)
	defer l.handle.setState(StateStopped)

	page := FirstPage
	for {
		snap := l.cfg.Snapshot()
		if reason := l.stopReason(ctx, snap); reason != "" {
			l.log.Infof("轮询结束: %s", reason)
			return
		}
		l.handle.setState(StateRunning)

		if err := l.sleeper.Sleep(ctx, snap.Config.PollInterval()); err != nil {
			continue
		}
		l.handle.iterations.Add(1)

		next, err := l.pollOnce(ctx, page, snap)
		if err != nil {
			l.handle.setState(StateBackoff)
			if snap.Config.LogSwitch {
				l.log.WithError(err).Errorf("请求宠物市场列表失败，暂停交易, user:%s", l.account.Label())
			}
			_ = l.sleeper.Sleep(ctx, snap.Config.Backoff())
			continue
		}
		page = next
		l.handle.page.Store(int64(page))
	}
}

// stopReason 重启令牌快照（启动时）对比当前值；开关关闭或被取消同样退出
func (l *PollingLoop) stopReason(ctx context.Context, snap *config.Snapshot) string {
	if ctx.Err() != nil {
		return "cancelled"
	}
	if snap.RestartToken() != l.handle.RestartToken {
		return fmt.Sprintf("restart token changed %d -> %d", l.handle.RestartToken, snap.RestartToken())
	}
	if !snap.Executable() {
		return "executable=false"
	}
	return ""
}

// pollOnce 拉取并处理一页，返回下一次要拉取的页码
func (l *PollingLoop) pollOnce(ctx context.Context, page int, snap *config.Snapshot) (int, error) {
	metrics.FeedPolls.Add(1)
	pg, err := l.fetch(ctx, page)
	if err != nil {
		metrics.FeedFaults.Add(1)
		return page, err
	}
	metrics.ListingsSeen.Add(int64(len(pg.Listings)))
	if snap.Config.LogSwitch {
		l.pageLog(page, pg.Listings)
	}
	for _, listing := range pg.Listings {
		l.processListing(ctx, listing, snap)
	}
	// 空页说明已经翻到末尾，从第一页重新开始
	if pg.Empty() {
		return FirstPage, nil
	}
	return page + 1, nil
}

func (l *PollingLoop) fetch(ctx context.Context, page int) (pg *domain.ListingPage, err error) {
	defer func() {
		if r := recover(); r != nil {
			pg, err = nil, fmt.Errorf("%w: panic: %v", ErrFeedFault, r)
		}
	}()
	pg, err = l.market.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeedFault, err)
	}
	if pg == nil {
		return nil, ErrFeedUnavailable
	}
	return pg, nil
}

// processListing 单个商品的失败不影响同页其他商品
func (l *PollingLoop) processListing(ctx context.Context, listing domain.Listing, snap *config.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("生单时发生异常, user:%s petId:%s amount:%s panic:%v", l.account.Label(), listing.ID, listing.Price, r)
		}
	}()

	switch v := Evaluate(listing, l.table); v {
	case VerdictEligible:
		l.submitter.Submit(ctx, l.account, listing)
	case VerdictPriceUnparsable:
		if snap.Config.LogSwitch {
			l.log.WithError(ErrPriceUnparsable).Infof("跳过 petId:%s amount:%q", listing.ID, listing.Price)
		}
	}
}

func (l *PollingLoop) pageLog(page int, listings []domain.Listing) {
	if len(listings) == 0 {
		return
	}
	var info strings.Builder
	for _, listing := range listings {
		info.WriteString(l.table.Describe(listing.RareDegree))
		info.WriteString(" ")
		info.WriteString(listing.Price)
		info.WriteString("，")
	}
	l.log.Infof("===  page:%d user:%s，%s", page, l.account.Label(), info.String())
}
