package domain

import "github.com/shopspring/decimal"

// Threshold 某个稀有度的最高买入价
type Threshold struct {
	RareDegree  int             // 稀有度（表内唯一）
	MaxBuyPrice decimal.Decimal // 最高买入价（含），不能为负
	Description string          // 展示名，例如 "史诗"
}
