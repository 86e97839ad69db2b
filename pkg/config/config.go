package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

const (
	defaultPollIntervalMillis      = 1000
	defaultBackoffMillis           = 5000
	defaultSettleDelayMillis       = 15000
	defaultSuperviseIntervalMillis = 2000
	defaultPageSize                = 10
	defaultTimeoutSeconds          = 10
	defaultBaseURL                 = "https://pet-chain.baidu.com"
	defaultListPath                = "/data/market/queryPetsOnSale"
	defaultCreatePath              = "/data/txn/create"
	defaultControlListen           = "127.0.0.1:8686"
)

// MarketConfig 市场接口配置
type MarketConfig struct {
	BaseURL            string // 市场接口域名
	ListPath           string // 在售列表接口
	CreatePath         string // 下单接口
	PageSize           int    // 每页条数
	SortType           string // 排序方式（透传给市场）
	TimeoutSeconds     int    // 单次请求超时（秒）
	RateLimitPerSecond int    // 所有账户共享的列表请求速率上限，0 表示不限
}

// ControlConfig 控制面 HTTP 配置
type ControlConfig struct {
	Listen string // 监听地址，为空则不启动
}

// SecretsConfig 凭证库配置（badger）
type SecretsConfig struct {
	Path string // badger 目录，为空则只使用配置文件中的 cookie
	Key  string // 32 字节加密 key（base64/hex）
}

// Config 应用配置
// 运行期间只通过 Store 读取快照，不直接修改
type Config struct {
	PollIntervalMillis      int                // 每次拉取前的等待（毫秒）
	BackoffMillis           int                // 拉取失败后的退避（毫秒）
	SettleDelayMillis       int                // 下单后等待结算（毫秒）
	SuperviseIntervalMillis int                // 守护协程检查重启令牌的间隔（毫秒）
	StartTime               int64              // 启动时间，变化即视为重启令牌变化
	IsExecutable            bool               // 总开关，false 时所有轮询退出
	LogSwitch               bool               // 详细日志（每页明细、失败堆栈）
	LogLevel                string             // 日志级别
	LogFile                 string             // 日志文件路径（可选）
	Amounts                 []domain.Threshold // 各稀有度的买入阈值
	Accounts                []domain.Account   // 参与抢购的账户
	Market                  MarketConfig
	DryRun                  bool // 纸交易模式，只打印不下单
	Control                 ControlConfig
	Secrets                 SecretsConfig
}

// ConfigFile 配置文件结构（用于 YAML/JSON 解析）
type ConfigFile struct {
	PollIntervalMillis      int   `yaml:"poll_interval_millis" json:"poll_interval_millis"`
	BackoffMillis           int   `yaml:"backoff_millis" json:"backoff_millis"`
	SettleDelayMillis       int   `yaml:"settle_delay_millis" json:"settle_delay_millis"`
	SuperviseIntervalMillis int   `yaml:"supervise_interval_millis" json:"supervise_interval_millis"`
	StartTime               int64 `yaml:"start_time" json:"start_time"`
	IsExecutable            bool  `yaml:"is_executable" json:"is_executable"`
	LogSwitch               bool  `yaml:"log_switch" json:"log_switch"`
	Amounts                 []struct {
		RareDegree int     `yaml:"rare_degree" json:"rare_degree"`
		BuyAmount  float64 `yaml:"buy_amount" json:"buy_amount"`
		Des        string  `yaml:"des" json:"des"`
	} `yaml:"amounts" json:"amounts"`
	Accounts []struct {
		ID     string `yaml:"id" json:"id"`
		Des    string `yaml:"des" json:"des"`
		Cookie string `yaml:"cookie" json:"cookie"`
	} `yaml:"accounts" json:"accounts"`
	Market struct {
		BaseURL            string `yaml:"base_url" json:"base_url"`
		ListPath           string `yaml:"list_path" json:"list_path"`
		CreatePath         string `yaml:"create_path" json:"create_path"`
		PageSize           int    `yaml:"page_size" json:"page_size"`
		SortType           string `yaml:"sort_type" json:"sort_type"`
		TimeoutSeconds     int    `yaml:"timeout_seconds" json:"timeout_seconds"`
		RateLimitPerSecond int    `yaml:"rate_limit_per_second" json:"rate_limit_per_second"`
	} `yaml:"market" json:"market"`
	LogLevel string `yaml:"log_level" json:"log_level"`
	LogFile  string `yaml:"log_file" json:"log_file"`
	DryRun   bool   `yaml:"dry_run" json:"dry_run"`
	Control  struct {
		Listen string `yaml:"listen" json:"listen"`
	} `yaml:"control" json:"control"`
	Secrets struct {
		Path string `yaml:"path" json:"path"`
		Key  string `yaml:"key" json:"key"`
	} `yaml:"secrets" json:"secrets"`
}

// LoadFromFile 从指定文件加载配置，再叠加环境变量（BUYER_*）和默认值
// filePath 为空时只使用环境变量和默认值
func LoadFromFile(filePath string) (*Config, error) {
	cf := &ConfigFile{}
	if filePath != "" {
		var err error
		cf, err = loadConfigFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
	}
	return fromFile(cf), nil
}

// loadConfigFile 加载配置文件（支持 YAML 和 JSON）
func loadConfigFile(filePath string) (*ConfigFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var configFile ConfigFile
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 YAML 配置文件失败: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &configFile); err != nil {
			return nil, fmt.Errorf("解析 JSON 配置文件失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的配置文件格式: %s (支持 .yaml, .yml, .json)", ext)
	}

	return &configFile, nil
}

func fromFile(cf *ConfigFile) *Config {
	c := &Config{
		PollIntervalMillis:      parseIntEnv("BUYER_POLL_INTERVAL_MILLIS", cf.PollIntervalMillis),
		BackoffMillis:           parseIntEnv("BUYER_BACKOFF_MILLIS", cf.BackoffMillis),
		SettleDelayMillis:       parseIntEnv("BUYER_SETTLE_DELAY_MILLIS", cf.SettleDelayMillis),
		SuperviseIntervalMillis: parseIntEnv("BUYER_SUPERVISE_INTERVAL_MILLIS", cf.SuperviseIntervalMillis),
		StartTime:               cf.StartTime,
		IsExecutable:            parseBoolEnv("BUYER_IS_EXECUTABLE", cf.IsExecutable),
		LogSwitch:               parseBoolEnv("BUYER_LOG_SWITCH", cf.LogSwitch),
		LogLevel:                getEnv("BUYER_LOG_LEVEL", cf.LogLevel),
		LogFile:                 getEnv("BUYER_LOG_FILE", cf.LogFile),
		DryRun:                  parseBoolEnv("BUYER_DRY_RUN", cf.DryRun),
		Market: MarketConfig{
			BaseURL:            getEnv("BUYER_MARKET_BASE_URL", cf.Market.BaseURL),
			ListPath:           cf.Market.ListPath,
			CreatePath:         cf.Market.CreatePath,
			PageSize:           cf.Market.PageSize,
			SortType:           cf.Market.SortType,
			TimeoutSeconds:     cf.Market.TimeoutSeconds,
			RateLimitPerSecond: parseIntEnv("BUYER_RATE_LIMIT_PER_SECOND", cf.Market.RateLimitPerSecond),
		},
		Control: ControlConfig{Listen: getEnv("BUYER_CONTROL_LISTEN", cf.Control.Listen)},
		Secrets: SecretsConfig{
			Path: getEnv("BUYER_SECRET_DB", cf.Secrets.Path),
			Key:  getEnv("BUYER_SECRET_KEY", cf.Secrets.Key),
		},
	}

	for _, a := range cf.Amounts {
		c.Amounts = append(c.Amounts, domain.Threshold{
			RareDegree:  a.RareDegree,
			MaxBuyPrice: decimal.NewFromFloat(a.BuyAmount),
			Description: a.Des,
		})
	}
	for _, a := range cf.Accounts {
		c.Accounts = append(c.Accounts, domain.Account{ID: a.ID, Name: a.Des, Cookie: a.Cookie})
	}

	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.PollIntervalMillis <= 0 {
		c.PollIntervalMillis = defaultPollIntervalMillis
	}
	if c.BackoffMillis <= 0 {
		c.BackoffMillis = defaultBackoffMillis
	}
	if c.SettleDelayMillis <= 0 {
		c.SettleDelayMillis = defaultSettleDelayMillis
	}
	if c.SuperviseIntervalMillis <= 0 {
		c.SuperviseIntervalMillis = defaultSuperviseIntervalMillis
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = defaultBaseURL
	}
	if c.Market.ListPath == "" {
		c.Market.ListPath = defaultListPath
	}
	if c.Market.CreatePath == "" {
		c.Market.CreatePath = defaultCreatePath
	}
	if c.Market.PageSize <= 0 {
		c.Market.PageSize = defaultPageSize
	}
	if c.Market.SortType == "" {
		c.Market.SortType = "AMOUNT_ASC"
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.Control.Listen == "" {
		c.Control.Listen = defaultControlListen
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	for _, t := range c.Amounts {
		if t.MaxBuyPrice.IsNegative() {
			return fmt.Errorf("稀有度 %d 的买入阈值不能为负: %s", t.RareDegree, t.MaxBuyPrice)
		}
	}
	if c.IsExecutable && len(c.Accounts) == 0 {
		return fmt.Errorf("is_executable=true 时至少需要配置一个账户")
	}
	seen := make(map[string]struct{}, len(c.Accounts))
	for _, a := range c.Accounts {
		if strings.TrimSpace(a.ID) == "" {
			return fmt.Errorf("账户 id 不能为空")
		}
		if _, ok := seen[a.ID]; ok {
			return fmt.Errorf("账户 id 重复: %s", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// PollInterval 拉取前等待
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// Backoff 拉取失败退避
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.BackoffMillis) * time.Millisecond
}

// SettleDelay 下单后等待
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMillis) * time.Millisecond
}

// SuperviseInterval 守护协程检查间隔
func (c *Config) SuperviseInterval() time.Duration {
	return time.Duration(c.SuperviseIntervalMillis) * time.Millisecond
}

// Clone 深拷贝（切片独立），用于写时复制
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Amounts = append([]domain.Threshold(nil), c.Amounts...)
	out.Accounts = append([]domain.Account(nil), c.Accounts...)
	return &out
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBoolEnv(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
