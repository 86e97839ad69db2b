package buytask

import (
	"hash/fnv"
	"sync"
)

// CompletedOrderTracker 本进程内已成功购买的商品 ID 集合（只增不减，不落盘）
//
// 除了完成集合，还维护一份“下单中”集合：TryClaim 对 {下单中 ∪ 已完成}
// 做原子的 insert-if-absent，两个账户同时看到同一商品时只有一个会真正调用下单接口。
// 失败的下单通过 Release 归还占位，后续轮询仍可重试。
type CompletedOrderTracker struct {
	shards []trackerShard
}

type trackerShard struct {
	mu        sync.Mutex
	completed map[string]struct{}
	inFlight  map[string]struct{}
}

// NewCompletedOrderTracker 创建集合，shardCount<=0 时使用 32 个分片
func NewCompletedOrderTracker(shardCount int) *CompletedOrderTracker {
	if shardCount <= 0 {
		shardCount = 32
	}
	shards := make([]trackerShard, shardCount)
	for i := range shards {
		shards[i].completed = make(map[string]struct{})
		shards[i].inFlight = make(map[string]struct{})
	}
	return &CompletedOrderTracker{shards: shards}
}

// Contains 是否已成功购买
func (t *CompletedOrderTracker) Contains(id string) bool {
	sh := t.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.completed[id]
	return ok
}

// Add 记为已完成（幂等），同时清除下单中占位
func (t *CompletedOrderTracker) Add(id string) {
	sh := t.shard(id)
	sh.mu.Lock()
	sh.completed[id] = struct{}{}
	delete(sh.inFlight, id)
	sh.mu.Unlock()
}

// TryClaim 尝试占位：已完成或已被占位时返回 false
func (t *CompletedOrderTracker) TryClaim(id string) bool {
	sh := t.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.completed[id]; ok {
		return false
	}
	if _, ok := sh.inFlight[id]; ok {
		return false
	}
	sh.inFlight[id] = struct{}{}
	return true
}

// Release 归还占位（不影响已完成集合）
func (t *CompletedOrderTracker) Release(id string) {
	sh := t.shard(id)
	sh.mu.Lock()
	delete(sh.inFlight, id)
	sh.mu.Unlock()
}

// Len 已完成数量
func (t *CompletedOrderTracker) Len() int {
	n := 0
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		n += len(sh.completed)
		sh.mu.Unlock()
	}
	return n
}

func (t *CompletedOrderTracker) shard(id string) *trackerShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &t.shards[h.Sum32()%uint32(len(t.shards))]
}
