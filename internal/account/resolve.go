package account

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

// CookieSource 按账户 id 提供登录态，*secretstore.Store 满足该接口
type CookieSource interface {
	Cookie(accountID string) (string, bool, error)
}

// Resolve 补全缺少 cookie 的账户
// 配置里已有 cookie 的账户原样保留；仍缺 cookie 的账户跳过并告警
func Resolve(accounts []domain.Account, src CookieSource) []domain.Account {
	log := logrus.WithField("component", "account")
	out := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		if strings.TrimSpace(a.Cookie) == "" && src != nil {
			cookie, ok, err := src.Cookie(a.ID)
			switch {
			case err != nil:
				log.Warnf("读取账户 %s cookie 失败: %v", a.Label(), err)
			case ok:
				a.Cookie = cookie
			}
		}
		if strings.TrimSpace(a.Cookie) == "" {
			log.Warnf("账户 %s 没有 cookie，跳过", a.Label())
			continue
		}
		out = append(out, a)
	}
	return out
}

// Resolver 绑定 cookie 来源，供 supervisor 每次启动新一轮循环时调用
func Resolver(src CookieSource) func([]domain.Account) []domain.Account {
	return func(accounts []domain.Account) []domain.Account {
		return Resolve(accounts, src)
	}
}
