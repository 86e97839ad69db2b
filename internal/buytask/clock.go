package buytask

import (
	"context"
	"time"
)

// Sleeper 轮询中的等待点（节奏等待、退避、下单后结算等待）
// 只有 ctx 取消能提前结束等待；配置变化不会打断，要等到下一次检查点才生效
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper 基于 timer 的实现
type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
