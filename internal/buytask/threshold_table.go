package buytask

import (
	"fmt"
	"sync"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

// ThresholdTable 稀有度 -> 买入阈值
// 只在 InitTask 时重建，轮询期间只读
type ThresholdTable struct {
	mu sync.RWMutex
	m  map[int]domain.Threshold
}

func NewThresholdTable() *ThresholdTable {
	return &ThresholdTable{m: make(map[int]domain.Threshold)}
}

// Rebuild 清空并按配置重建，同一稀有度后写覆盖前写
func (t *ThresholdTable) Rebuild(thresholds []domain.Threshold) {
	next := make(map[int]domain.Threshold, len(thresholds))
	for _, th := range thresholds {
		next[th.RareDegree] = th
	}
	t.mu.Lock()
	t.m = next
	t.mu.Unlock()
}

func (t *ThresholdTable) Lookup(rareDegree int) (domain.Threshold, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	th, ok := t.m[rareDegree]
	return th, ok
}

func (t *ThresholdTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Describe 稀有度展示名；表中没有时返回占位文本
func (t *ThresholdTable) Describe(rareDegree int) string {
	if th, ok := t.Lookup(rareDegree); ok && th.Description != "" {
		return th.Description
	}
	return fmt.Sprintf("稀有度%d", rareDegree)
}
