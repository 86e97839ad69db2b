package buytask

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

// Verdict 商品是否可买以及不可买的原因
type Verdict int

const (
	VerdictEligible Verdict = iota
	VerdictUnknownRarity
	VerdictPriceUnparsable
	VerdictPriceNotPositive
	VerdictAboveThreshold
	VerdictNotOrigin
)

func (v Verdict) String() string {
	switch v {
	case VerdictEligible:
		return "eligible"
	case VerdictUnknownRarity:
		return "unknown_rarity"
	case VerdictPriceUnparsable:
		return "price_unparsable"
	case VerdictPriceNotPositive:
		return "price_not_positive"
	case VerdictAboveThreshold:
		return "above_threshold"
	case VerdictNotOrigin:
		return "not_origin"
	default:
		return "unknown"
	}
}

// ThresholdLookup 阈值查询
type ThresholdLookup interface {
	Lookup(rareDegree int) (domain.Threshold, bool)
}

// ParsePrice 解析文本标价
func ParsePrice(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Evaluate 纯函数：依次检查稀有度、标价、阈值、代数
func Evaluate(listing domain.Listing, table ThresholdLookup) Verdict {
	th, ok := table.Lookup(listing.RareDegree)
	if !ok {
		return VerdictUnknownRarity
	}
	price, ok := ParsePrice(listing.Price)
	if !ok {
		return VerdictPriceUnparsable
	}
	// 0 元及以下（免费/活动商品）不买
	if !price.IsPositive() {
		return VerdictPriceNotPositive
	}
	if price.GreaterThan(th.MaxBuyPrice) {
		return VerdictAboveThreshold
	}
	if !listing.IsOrigin() {
		return VerdictNotOrigin
	}
	return VerdictEligible
}

// IsEligible 商品是否满足购买条件
func IsEligible(listing domain.Listing, table ThresholdLookup) bool {
	return Evaluate(listing, table) == VerdictEligible
}
