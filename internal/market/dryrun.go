package market

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

// DryRunPurchaser 纸交易：只打印下单信息，不调用市场
type DryRunPurchaser struct{}

func (DryRunPurchaser) CreateOrder(_ context.Context, account domain.Account, listingID, price, _ string) (domain.OrderResult, error) {
	logrus.WithField("component", "dryrun").Infof("[DRY RUN] 模拟下单 user:%s petid:%s amount:%s", account.Label(), listingID, price)
	return domain.OrderResult{Success: true, Message: "dry run"}, nil
}
