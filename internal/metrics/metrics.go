package metrics

import (
	"expvar"
	"net/http"
	"net/http/pprof"
)

// 进程级计数器，/debug/vars 输出
var (
	FeedPolls       = expvar.NewInt("feed_polls")
	FeedFaults      = expvar.NewInt("feed_faults")
	ListingsSeen    = expvar.NewInt("listings_seen")
	OrdersSubmitted = expvar.NewInt("orders_submitted")
	OrdersSucceeded = expvar.NewInt("orders_succeeded")
	OrdersRejected  = expvar.NewInt("orders_rejected")
	OrdersFailed    = expvar.NewInt("orders_failed")
)

// Handler expvar + pprof，由控制面挂载到 /debug/ 下
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())

	// 显式注册到自己的 mux，不碰 DefaultServeMux
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
