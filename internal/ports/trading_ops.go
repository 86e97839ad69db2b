package ports

import (
	"context"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

// Small capability interfaces shared across layers (buytask/market/controlplane).

type MarketClient interface {
	// List 查询第 page 页在售商品；返回 nil page 表示空包
	List(ctx context.Context, page int) (*domain.ListingPage, error)
}

type PurchaseService interface {
	// CreateOrder 以 account 身份购买 listingID
	CreateOrder(ctx context.Context, account domain.Account, listingID, price, validCode string) (domain.OrderResult, error)
}
