package domain

// Account 参与抢购的账户
// Cookie 由凭证组件提供（配置文件或 secretstore），核心逻辑只透传
type Account struct {
	ID     string // 账户唯一标识
	Name   string // 展示名（日志中的 user）
	Cookie string // 登录态（市场接口鉴权）
}

// Label 返回日志展示名，Name 为空时回退到 ID
func (a Account) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
