package buytask

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
	"github.com/lvfeida/baidu-chain-dog/internal/metrics"
	"github.com/lvfeida/baidu-chain-dog/internal/ports"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
)

// ConfigSource 配置快照来源（拉模式）
type ConfigSource interface {
	Snapshot() *config.Snapshot
}

// SubmitResult 一次提交的结果
type SubmitResult struct {
	Status domain.SubmitStatus
	Result domain.OrderResult
	Err    error
}

// OrderSubmitter 对单个商品下单：去重占位 -> 调接口 -> 结算等待 -> 记完成
type OrderSubmitter struct {
	purchaser ports.PurchaseService
	tracker   *CompletedOrderTracker
	table     *ThresholdTable
	cfg       ConfigSource
	sleeper   Sleeper
}

func NewOrderSubmitter(purchaser ports.PurchaseService, tracker *CompletedOrderTracker, table *ThresholdTable, cfg ConfigSource, sleeper Sleeper) *OrderSubmitter {
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &OrderSubmitter{
		purchaser: purchaser,
		tracker:   tracker,
		table:     table,
		cfg:       cfg,
		sleeper:   sleeper,
	}
}

// Submit 提交购买。任何接口异常都在这里吞掉并转成 SubmitFailed，不会向上传播
func (s *OrderSubmitter) Submit(ctx context.Context, account domain.Account, listing domain.Listing) SubmitResult {
	log := logrus.WithFields(logrus.Fields{
		"component": "submitter",
		"user":      account.Label(),
		"petId":     listing.ID,
	})

	if s.tracker.Contains(listing.ID) {
		return SubmitResult{Status: domain.SubmitSkipped}
	}
	// 其他账户正在对同一商品下单：让对方独占
	if !s.tracker.TryClaim(listing.ID) {
		log.Debugf("商品已被其他账户占位，跳过")
		return SubmitResult{Status: domain.SubmitSkipped}
	}

	snap := s.cfg.Snapshot()
	metrics.OrdersSubmitted.Add(1)
	log.Infof("=========================  开始生单 user:%s petid:%s amount:%s", account.Label(), listing.ID, listing.Price)

	result, err := s.createOrder(ctx, account, listing)
	if err != nil {
		s.tracker.Release(listing.ID)
		err = fmt.Errorf("%w: %w", ErrSubmissionFault, err)
		if snap.Config.LogSwitch {
			log.WithError(err).Error("生单时发生异常")
		}
		log.Infof("生单时发生异常, user:%s petId:%s amount:%s", account.Label(), listing.ID, listing.Price)
		metrics.OrdersFailed.Add(1)
		return SubmitResult{Status: domain.SubmitFailed, Err: err}
	}

	// 等待市场结算；只有 ctx 取消会提前结束，结果照常记录
	if serr := s.sleeper.Sleep(ctx, snap.Config.SettleDelay()); serr != nil {
		log.Debugf("结算等待被取消: %v", serr)
	}

	desc := s.table.Describe(listing.RareDegree)
	log.Infof("===  user:%s success:%v message:%s petid:%s 稀有度:%s amount:%s",
		account.Label(), result.Success, result.Message, listing.ID, desc, listing.Price)

	if !result.Success {
		s.tracker.Release(listing.ID)
		metrics.OrdersRejected.Add(1)
		return SubmitResult{Status: domain.SubmitRejected, Result: result}
	}
	s.tracker.Add(listing.ID)
	metrics.OrdersSucceeded.Add(1)
	log.Infof("******************  success user:%s 稀有度：%s 价格：%s ******************", account.Label(), desc, listing.Price)
	return SubmitResult{Status: domain.SubmitSucceeded, Result: result}
}

// createOrder 调用下单接口，接口 panic 也转成错误
func (s *OrderSubmitter) createOrder(ctx context.Context, account domain.Account, listing domain.Listing) (result domain.OrderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("purchase service panic: %v", r)
		}
	}()
	return s.purchaser.CreateOrder(ctx, account, listing.ID, listing.Price, listing.ValidCode)
}
