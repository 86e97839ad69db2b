package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/lvfeida/baidu-chain-dog/pkg/secretstore"
)

// 把账户 cookie 导入 badger 凭证库
// 输入文件为 .env 格式：每行 <账户id>=<cookie>
// 凭证库由 buyer 独占打开，只能在 buyer 停止时使用；运行中请调用 POST /api/cookies
func main() {
	var (
		inPath    = flag.String("in", "cookies.env", "输入文件（账户id=cookie）")
		dbPath    = flag.String("badger", getenv("BUYER_SECRET_DB", "data/secrets.badger"), "badger 凭证库目录")
		secretKey = flag.String("secret-key", getenv("BUYER_SECRET_KEY", ""), "badger 加密 key（32 字节 base64/hex）")
		list      = flag.Bool("list", false, "只列出已保存 cookie 的账户")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set BUYER_SECRET_KEY or pass -secret-key"))
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: keyBytes,
		ReadOnly:      *list,
	})
	if err != nil {
		fatal(fmt.Errorf("%w (buyer 运行中会占用凭证库，请停止 buyer 或改用 POST /api/cookies)", err))
	}
	defer ss.Close()

	if *list {
		ids, err := ss.AccountIDs()
		if err != nil {
			fatal(err)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Println(id)
		}
		return
	}

	kv, err := godotenv.Read(*inPath)
	if err != nil {
		fatal(err)
	}
	written := 0
	for id, cookie := range kv {
		if strings.TrimSpace(cookie) == "" {
			fmt.Fprintf(os.Stderr, "跳过空 cookie: %s\n", id)
			continue
		}
		if err := ss.SetCookie(id, cookie); err != nil {
			fatal(err)
		}
		written++
	}
	fmt.Fprintf(os.Stderr, "已导入 %d 个账户 cookie 到 %s\n", written, *dbPath)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
