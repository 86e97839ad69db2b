package market

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
	"github.com/lvfeida/baidu-chain-dog/pkg/ratelimit"
	sdkhttp "github.com/lvfeida/baidu-chain-dog/pkg/sdk/http"
)

// Client 宠物市场 HTTP 客户端，同时实现 ports.MarketClient 和 ports.PurchaseService
type Client struct {
	feed    *sdkhttp.Client // 列表查询，允许重试
	orders  *sdkhttp.Client // 下单不重试，避免重复提交
	cfg     config.MarketConfig
	limiter ratelimit.RateLimiter
	log     *logrus.Entry
}

func NewClient(cfg config.MarketConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return &Client{
		feed:    sdkhttp.NewClient(cfg.BaseURL, sdkhttp.ClientOptions{Timeout: timeout, RetryCount: 1}),
		orders:  sdkhttp.NewClient(cfg.BaseURL, sdkhttp.ClientOptions{Timeout: timeout}),
		cfg:     cfg,
		limiter: ratelimit.New(cfg.RateLimitPerSecond),
		log:     logrus.WithField("component", "market"),
	}
}

// List 查询第 page 页在售商品
// 业务错误码非 00 返回 error；data 缺失返回 nil page（空包）
func (c *Client) List(ctx context.Context, page int) (*domain.ListingPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req := listRequest{
		PageNo:        page,
		PageSize:      c.cfg.PageSize,
		QuerySortType: c.cfg.SortType,
		PetIDs:        []string{},
		RequestID:     time.Now().UnixMilli(),
		AppID:         1,
	}
	var out listResponse
	resp, err := c.feed.DoRequest(ctx, http.MethodPost, c.cfg.ListPath, &sdkhttp.RequestOptions{Data: req}, &out)
	if err := sdkhttp.ParseHTTPError(resp, err); err != nil {
		return nil, errors.Wrapf(err, "query market page %d", page)
	}
	if out.ErrorNo != "" && out.ErrorNo != successErrorNo {
		return nil, errors.Errorf("market error errorNo=%s errorMsg=%s", out.ErrorNo, out.ErrorMsg)
	}
	if out.Data == nil {
		return nil, nil
	}

	listings := make([]domain.Listing, 0, len(out.Data.PetsOnSale))
	for _, p := range out.Data.PetsOnSale {
		listings = append(listings, domain.Listing{
			ID:         p.PetID,
			Price:      p.Amount,
			RareDegree: p.RareDegree,
			Generation: p.Generation,
			ValidCode:  p.ValidCode,
		})
	}
	c.log.Debugf("page=%d listings=%d hasData=%v", page, len(listings), out.Data.HasData)
	return &domain.ListingPage{Page: page, Listings: listings}, nil
}

// CreateOrder 以账户登录态下单
// 业务失败（例如已被他人买走）以 Success=false 返回，只有传输层问题返回 error
func (c *Client) CreateOrder(ctx context.Context, account domain.Account, listingID, price, validCode string) (domain.OrderResult, error) {
	req := createOrderRequest{
		PetID:     listingID,
		Amount:    price,
		ValidCode: validCode,
		RequestID: time.Now().UnixMilli(),
		AppID:     1,
	}
	var out createOrderResponse
	resp, err := c.orders.DoRequest(ctx, http.MethodPost, c.cfg.CreatePath, &sdkhttp.RequestOptions{
		Headers: map[string]string{"Cookie": account.Cookie},
		Data:    req,
	}, &out)
	if err := sdkhttp.ParseHTTPError(resp, err); err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "create order petId=%s", listingID)
	}
	return domain.OrderResult{
		Success: out.ErrorNo == successErrorNo,
		Message: out.ErrorMsg,
	}, nil
}
