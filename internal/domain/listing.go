package domain

// Listing 市场上在售的一条商品
type Listing struct {
	ID         string // 商品 ID（同一轮翻页内稳定）
	Price      string // 标价（文本小数，可能非法）
	RareDegree int    // 稀有度
	Generation int    // 代数：0 为初代，非 0 为繁育，不参与购买
	ValidCode  string // 下单时必须携带的校验码
}

// IsOrigin 是否为初代商品
func (l Listing) IsOrigin() bool {
	return l.Generation == 0
}

// ListingPage 一页市场数据
// nil 表示接口返回了空包（视为故障）；Listings 为空表示已翻到末尾
type ListingPage struct {
	Page     int
	Listings []Listing
}

// Empty 当前页是否没有商品
func (p *ListingPage) Empty() bool {
	return p == nil || len(p.Listings) == 0
}
