package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lvfeida/baidu-chain-dog/internal/buytask"
	"github.com/lvfeida/baidu-chain-dog/internal/metrics"
	"github.com/lvfeida/baidu-chain-dog/pkg/config"
)

// Runtime 运行中的抢购任务，*buytask.Supervisor 满足该接口
type Runtime interface {
	Status() []buytask.HandleStatus
	Live() int
	CompletedCount() int
	Nudge()
}

// CookieWriter 写入账户登录态，*secretstore.Store 满足该接口
type CookieWriter interface {
	SetCookie(accountID, cookie string) error
}

type Server struct {
	store   *config.Store
	rt      Runtime
	cookies CookieWriter
	started time.Time
	now     func() time.Time
	log     *logrus.Entry
}

// New cookies 可以为 nil，此时 /api/cookies 返回 503
func New(store *config.Store, rt Runtime, cookies CookieWriter) (*Server, error) {
	if store == nil {
		return nil, errors.New("config store is required")
	}
	if rt == nil {
		return nil, errors.New("runtime is required")
	}
	return &Server{
		store:   store,
		rt:      rt,
		cookies: cookies,
		started: time.Now(),
		now:     time.Now,
		log:     logrus.WithField("component", "controlplane"),
	}, nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	api := r.Group("/api")
	api.GET("/status", s.wrap(s.handleStatus))
	api.POST("/restart", s.wrap(s.handleRestart))
	api.POST("/executable", s.wrap(s.handleExecutable))
	api.POST("/cookies", s.wrap(s.handleCookie))

	// expvar 计数器和 pprof
	r.Any("/debug/*path", gin.WrapH(metrics.Handler()))
	return r
}

// wrap 把 net/http 风格的 handler 适配到 gin
func (s *Server) wrap(h func(http.ResponseWriter, *http.Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		h(c.Writer, c.Request)
	}
}

type statusResponse struct {
	ConfigVersion  uint64                 `json:"config_version"`
	Executable     bool                   `json:"executable"`
	RestartToken   int64                  `json:"restart_token"`
	DryRun         bool                   `json:"dry_run"`
	Thresholds     int                    `json:"thresholds"`
	Accounts       int                    `json:"accounts"`
	LiveLoops      int                    `json:"live_loops"`
	CompletedCount int                    `json:"completed_count"`
	Uptime         string                 `json:"uptime"`
	Loops          []buytask.HandleStatus `json:"loops"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	loops := s.rt.Status()
	if loops == nil {
		loops = []buytask.HandleStatus{}
	}
	writeJSON(w, http.StatusOK, statusResponse{
		ConfigVersion:  snap.Version,
		Executable:     snap.Executable(),
		RestartToken:   snap.RestartToken(),
		DryRun:         snap.Config.DryRun,
		Thresholds:     len(snap.Config.Amounts),
		Accounts:       len(snap.Config.Accounts),
		LiveLoops:      s.rt.Live(),
		CompletedCount: s.rt.CompletedCount(),
		Uptime:         s.now().Sub(s.started).Truncate(time.Second).String(),
		Loops:          loops,
	})
}

// bumpRestartToken 把 start_time 改为当前毫秒时间，保证严格递增
func (s *Server) bumpRestartToken() *config.Snapshot {
	token := s.now().UnixMilli()
	return s.store.Update(func(c *config.Config) {
		if c.StartTime >= token {
			token = c.StartTime + 1
		}
		c.StartTime = token
	})
}

// handleRestart 旧循环在下一次检查时退出，supervisor 重新拉起
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	snap := s.bumpRestartToken()
	s.log.Infof("收到重启指令 start_time=%d version=%d", snap.RestartToken(), snap.Version)
	s.rt.Nudge()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"restart_token":  snap.RestartToken(),
		"config_version": snap.Version,
	})
}

type executableRequest struct {
	Executable *bool `json:"executable"`
}

func (s *Server) handleExecutable(w http.ResponseWriter, r *http.Request) {
	var req executableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.Executable == nil {
		writeError(w, http.StatusBadRequest, "executable is required")
		return
	}
	on := *req.Executable
	if on && len(s.store.Snapshot().Config.Accounts) == 0 {
		writeError(w, http.StatusConflict, "no accounts configured")
		return
	}
	snap := s.store.Update(func(c *config.Config) { c.IsExecutable = on })
	s.log.Infof("is_executable=%v version=%d", on, snap.Version)
	s.rt.Nudge()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"executable":     snap.Executable(),
		"config_version": snap.Version,
	})
}

type cookieRequest struct {
	AccountID string `json:"account_id"`
	Cookie    string `json:"cookie"`
}

// handleCookie 写入凭证库后触发一次重启，新一代循环按新 cookie 解析账户
func (s *Server) handleCookie(w http.ResponseWriter, r *http.Request) {
	if s.cookies == nil {
		writeError(w, http.StatusServiceUnavailable, "secret store not configured")
		return
	}
	var req cookieRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	id, cookie := strings.TrimSpace(req.AccountID), strings.TrimSpace(req.Cookie)
	if id == "" || cookie == "" {
		writeError(w, http.StatusBadRequest, "account_id and cookie are required")
		return
	}
	if !hasAccount(s.store.Snapshot().Config, id) {
		writeError(w, http.StatusNotFound, "unknown account")
		return
	}
	if err := s.cookies.SetCookie(id, cookie); err != nil {
		s.log.Errorf("保存账户 %s cookie 失败: %v", id, err)
		writeError(w, http.StatusInternalServerError, "save cookie failed")
		return
	}
	snap := s.bumpRestartToken()
	s.log.Infof("已更新账户 %s cookie，start_time=%d", id, snap.RestartToken())
	s.rt.Nudge()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"account_id":    id,
		"restart_token": snap.RestartToken(),
	})
}

func hasAccount(cfg *config.Config, id string) bool {
	for _, a := range cfg.Accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
