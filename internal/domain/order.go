package domain

// OrderResult 下单接口返回结果
type OrderResult struct {
	Success bool   // 是否成功
	Message string // 接口返回的提示信息
}

// SubmitStatus 一次提交的结局
type SubmitStatus string

const (
	SubmitSkipped   SubmitStatus = "skipped"   // 已完成或其他账户正在下单，未调用接口
	SubmitSucceeded SubmitStatus = "succeeded" // 接口返回成功，已记入完成集合
	SubmitRejected  SubmitStatus = "rejected"  // 接口返回失败（例如已被他人买走）
	SubmitFailed    SubmitStatus = "failed"    // 接口调用异常
)
