package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvfeida/baidu-chain-dog/internal/domain"
)

const sampleYAML = `
poll_interval_millis: 800
start_time: 1518000000000
is_executable: true
log_switch: true
amounts:
  - rare_degree: 0
    buy_amount: 100
    des: 普通
  - rare_degree: 1
    buy_amount: 250.5
    des: 稀有
accounts:
  - id: a1
    des: alice
    cookie: BDUSS=1
market:
  page_size: 20
  rate_limit_per_second: 5
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadFromFile_YAML(t *testing.T) {
	cfg, err := LoadFromFile(writeFile(t, "buyer.yaml", sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 800, cfg.PollIntervalMillis)
	assert.Equal(t, int64(1518000000000), cfg.StartTime)
	assert.True(t, cfg.IsExecutable)
	assert.True(t, cfg.LogSwitch)
	require.Len(t, cfg.Amounts, 2)
	assert.Equal(t, 1, cfg.Amounts[1].RareDegree)
	assert.True(t, cfg.Amounts[1].MaxBuyPrice.Equal(decimal.RequireFromString("250.5")))
	assert.Equal(t, "稀有", cfg.Amounts[1].Description)
	assert.Equal(t, []domain.Account{{ID: "a1", Name: "alice", Cookie: "BDUSS=1"}}, cfg.Accounts)
	assert.Equal(t, 20, cfg.Market.PageSize)
	assert.Equal(t, 5, cfg.Market.RateLimitPerSecond)

	// 未配置的字段取默认值
	assert.Equal(t, defaultBackoffMillis, cfg.BackoffMillis)
	assert.Equal(t, defaultSettleDelayMillis, cfg.SettleDelayMillis)
	assert.Equal(t, defaultBaseURL, cfg.Market.BaseURL)
	assert.Equal(t, defaultListPath, cfg.Market.ListPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromFile_JSON(t *testing.T) {
	body := `{"backoff_millis": 3000, "amounts": [{"rare_degree": 2, "buy_amount": 9999, "des": "卓越"}]}`
	cfg, err := LoadFromFile(writeFile(t, "buyer.json", body))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.BackoffMillis)
	require.Len(t, cfg.Amounts, 1)
	assert.Equal(t, "9999", cfg.Amounts[0].MaxBuyPrice.String())
	assert.False(t, cfg.IsExecutable)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(writeFile(t, "buyer.toml", "x = 1"))
	assert.Error(t, err)

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeFile(t, "bad.yaml", "amounts: [oops"))
	assert.Error(t, err)
}

func TestLoadFromFile_EnvOverrides(t *testing.T) {
	t.Setenv("BUYER_POLL_INTERVAL_MILLIS", "50")
	t.Setenv("BUYER_IS_EXECUTABLE", "false")
	t.Setenv("BUYER_DRY_RUN", "true")
	t.Setenv("BUYER_MARKET_BASE_URL", "http://localhost:9000")
	t.Setenv("BUYER_BACKOFF_MILLIS", "not-a-number")

	cfg, err := LoadFromFile(writeFile(t, "buyer.yml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.PollIntervalMillis)
	assert.False(t, cfg.IsExecutable)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "http://localhost:9000", cfg.Market.BaseURL)
	// 无法解析的环境变量回落到文件值/默认值
	assert.Equal(t, defaultBackoffMillis, cfg.BackoffMillis)
}

func TestLoadFromFile_EmptyPath(t *testing.T) {
	cfg, err := LoadFromFile("")
	require.NoError(t, err)
	assert.Equal(t, defaultPollIntervalMillis, cfg.PollIntervalMillis)
	assert.Equal(t, defaultControlListen, cfg.Control.Listen)
	assert.Empty(t, cfg.Accounts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "空配置", cfg: Config{}},
		{name: "负阈值", cfg: Config{Amounts: []domain.Threshold{{RareDegree: 1, MaxBuyPrice: decimal.NewFromInt(-1)}}}, wantErr: true},
		{name: "开启但无账户", cfg: Config{IsExecutable: true}, wantErr: true},
		{name: "账户 id 为空", cfg: Config{Accounts: []domain.Account{{ID: " "}}}, wantErr: true},
		{name: "账户 id 重复", cfg: Config{Accounts: []domain.Account{{ID: "a"}, {ID: "a"}}}, wantErr: true},
		{name: "正常", cfg: Config{IsExecutable: true, Accounts: []domain.Account{{ID: "a"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	c := &Config{PollIntervalMillis: 1000, BackoffMillis: 5000, SettleDelayMillis: 15000, SuperviseIntervalMillis: 2000}
	assert.Equal(t, "1s", c.PollInterval().String())
	assert.Equal(t, "5s", c.Backoff().String())
	assert.Equal(t, "15s", c.SettleDelay().String())
	assert.Equal(t, "2s", c.SuperviseInterval().String())
}

func TestCloneIsIndependent(t *testing.T) {
	c := &Config{Accounts: []domain.Account{{ID: "a1"}}, Amounts: []domain.Threshold{{RareDegree: 1}}}
	cp := c.Clone()
	cp.Accounts[0].ID = "changed"
	cp.Amounts = append(cp.Amounts, domain.Threshold{RareDegree: 2})

	assert.Equal(t, "a1", c.Accounts[0].ID)
	assert.Len(t, c.Amounts, 1)
	assert.Nil(t, (*Config)(nil).Clone())
}
