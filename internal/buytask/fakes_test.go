package buytask

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
)

func newTestStore(t *testing.T, mutate func(c *config.Config)) *config.Store {
	t.Helper()
	cfg := &config.Config{
		PollIntervalMillis:      1000,
		BackoffMillis:           5000,
		SettleDelayMillis:       15000,
		SuperviseIntervalMillis: 5,
		StartTime:               100,
		IsExecutable:            true,
		Amounts: []domain.Threshold{
			{RareDegree: 1, MaxBuyPrice: decimal.NewFromInt(100), Description: "普通"},
		},
		Accounts: []domain.Account{{ID: "a1", Name: "alice"}},
	}
	if mutate != nil {
		mutate(cfg)
	}
	return config.NewStore(cfg)
}

func disable(store *config.Store) {
	store.Update(func(c *config.Config) { c.IsExecutable = false })
}

// recordingSleeper 立即返回并记录每次等待时长
type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleeper) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.calls...)
}

// fakeMarket 按调用序号返回页面，并记录请求过的页码
type fakeMarket struct {
	mu      sync.Mutex
	pages   []int
	respond func(call, page int) (*domain.ListingPage, error)
}

func (m *fakeMarket) List(_ context.Context, page int) (*domain.ListingPage, error) {
	m.mu.Lock()
	m.pages = append(m.pages, page)
	call := len(m.pages)
	m.mu.Unlock()
	return m.respond(call, page)
}

func (m *fakeMarket) Pages() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.pages...)
}

type purchaseCall struct {
	AccountID string
	ListingID string
	Price     string
	ValidCode string
}

// fakePurchaser 记录下单调用；result 为空时一律成功
type fakePurchaser struct {
	mu     sync.Mutex
	calls  []purchaseCall
	result func(listingID string) (domain.OrderResult, error)
}

func (p *fakePurchaser) CreateOrder(_ context.Context, account domain.Account, listingID, price, validCode string) (domain.OrderResult, error) {
	p.mu.Lock()
	p.calls = append(p.calls, purchaseCall{AccountID: account.ID, ListingID: listingID, Price: price, ValidCode: validCode})
	p.mu.Unlock()
	if p.result != nil {
		return p.result(listingID)
	}
	return domain.OrderResult{Success: true, Message: "success"}, nil
}

func (p *fakePurchaser) Calls() []purchaseCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]purchaseCall(nil), p.calls...)
}

func (p *fakePurchaser) ListingIDs() []string {
	var ids []string
	for _, c := range p.Calls() {
		ids = append(ids, c.ListingID)
	}
	return ids
}

func waitStopped(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(3 * time.Second):
		t.Fatalf("loop %s did not stop, state=%s", h.ID, h.State())
	}
}

func emptyPage(page int) *domain.ListingPage {
	return &domain.ListingPage{Page: page}
}

// tickSleeper 忽略配置的时长，只睡 1ms，避免循环空转
type tickSleeper struct{}

func (tickSleeper) Sleep(ctx context.Context, _ time.Duration) error {
	return RealSleeper{}.Sleep(ctx, time.Millisecond)
}
