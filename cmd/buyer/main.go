package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lvfeida/baidu-chain-dog/internal/account"
	"github.com/lvfeida/baidu-chain-dog/internal/buytask"
	"github.com/lvfeida/baidu-chain-dog/internal/controlplane/server"
	"github.com/lvfeida/baidu-chain-dog/internal/market"
	"github.com/lvfeida/baidu-chain-dog/internal/ports"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
	"github.com/lvfeida/baidu-chain-dog/pkg/logger"
	"github.com/lvfeida/baidu-chain-dog/pkg/secretstore"
	"github.com/lvfeida/baidu-chain-dog/pkg/shutdown"
)

func firstExistingFile(paths ...string) (string, bool) {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	envFile := flag.String("env", ".env", ".env 文件路径，不存在则忽略")
	watch := flag.Bool("watch", true, "监听配置文件变化并热加载")
	shutdownTimeout := flag.Duration("shutdown-timeout", 20*time.Second, "优雅关闭超时")
	flag.Parse()

	if err := logger.InitDefault(); err != nil {
		panic("初始化日志失败: " + err.Error())
	}
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("加载 %s 失败: %v", *envFile, err)
	}

	path := *configPath
	if path == "" {
		if p, ok := firstExistingFile("yml/buyer.yaml", "buyer.yaml", "buyer.json"); ok {
			path = p
			logrus.Infof("使用默认配置文件: %s", p)
		} else {
			logrus.Warnf("未指定配置文件，将使用环境变量和默认值")
		}
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Errorf("配置校验失败: %v", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		logrus.Warnf("按配置初始化日志失败，继续使用默认日志: %v", err)
	}
	store := config.NewStore(cfg)

	shutdownMgr := shutdown.NewManager()

	// 凭证库以读写方式打开并独占，运行中通过 POST /api/cookies 更新 cookie
	var (
		cookies      account.CookieSource
		cookieWriter server.CookieWriter
		closeSecrets = func() error { return nil }
	)
	if cfg.Secrets.Path != "" {
		key, err := secretstore.ParseKey(cfg.Secrets.Key)
		if err != nil {
			logrus.Errorf("解析凭证库密钥失败: %v", err)
			os.Exit(1)
		}
		ss, err := secretstore.Open(secretstore.OpenOptions{Path: cfg.Secrets.Path, EncryptionKey: key})
		if err != nil {
			logrus.Errorf("打开凭证库失败: %v", err)
			os.Exit(1)
		}
		cookies = ss
		cookieWriter = ss
		closeSecrets = ss.Close
		logrus.Infof("已打开凭证库: %s", cfg.Secrets.Path)
	}

	mc := market.NewClient(cfg.Market)
	var purchaser ports.PurchaseService = mc
	if cfg.DryRun {
		purchaser = market.DryRunPurchaser{}
		logrus.Warnf("纸交易模式：只打印下单信息，不会真实下单")
	}

	sup := buytask.NewSupervisor(buytask.Options{
		Config:          store,
		Market:          mc,
		Purchaser:       purchaser,
		ResolveAccounts: account.Resolver(cookies),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	// gctx 取消后 Run 自行 Stop 并等待所有轮询退出
	g.Go(func() error { return sup.Run(gctx) })

	if *watch && path != "" {
		w, err := config.NewWatcher(path, store)
		if err != nil {
			logrus.Warnf("配置热加载不可用: %v", err)
		} else {
			w.OnReload(func(*config.Snapshot) { sup.Nudge() })
			g.Go(func() error { return w.Run(gctx) })
		}
	}

	if listen := cfg.Control.Listen; listen != "" {
		cp, err := server.New(store, sup, cookieWriter)
		if err != nil {
			logrus.Errorf("创建控制面失败: %v", err)
			os.Exit(1)
		}
		srv := &http.Server{Addr: listen, Handler: cp.Router(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logrus.Infof("控制面监听 %s", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		shutdownMgr.OnShutdown("controlplane", srv.Shutdown)
	}

	logrus.Infof("抢购启动: accounts=%d thresholds=%d executable=%v startTime=%d",
		len(cfg.Accounts), len(cfg.Amounts), cfg.IsExecutable, cfg.StartTime)

	<-gctx.Done()
	logrus.Infof("收到退出信号，开始关闭")

	sctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()
	if err := shutdownMgr.Shutdown(sctx); err != nil {
		logrus.Warnf("关闭过程出现错误: %v", err)
	}
	err = g.Wait()
	// 轮询全部退出后才关闭凭证库
	if cerr := closeSecrets(); cerr != nil {
		logrus.Warnf("关闭凭证库失败: %v", cerr)
	}
	if err != nil {
		logrus.Errorf("退出: %v", err)
		os.Exit(1)
	}
	logrus.Infof("已退出，本次成功购买 %d 个", sup.CompletedCount())
}
