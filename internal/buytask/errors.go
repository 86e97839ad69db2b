package buytask

import "errors"

// 轮询核心内部的错误分类，全部是本地恢复的非致命错误
var (
	// ErrFeedUnavailable 市场接口返回空包
	ErrFeedUnavailable = errors.New("market feed returned empty envelope")
	// ErrFeedFault 市场接口调用异常
	ErrFeedFault = errors.New("market feed request failed")
	// ErrPriceUnparsable 标价不是合法数字，商品被跳过
	ErrPriceUnparsable = errors.New("listing price unparsable")
	// ErrSubmissionFault 下单接口调用异常，本次放弃、不重试、不记完成
	ErrSubmissionFault = errors.New("order submission failed")
)
