package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas da API do ledger
var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "requisições por rota, método e status",
	}, []string{"route", "method", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "latência das requisições por rota",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Métricas do sync-worker
var (
	SyncEventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sync_events_consumed_total",
		Help: "eventos consumidos do tópico ledger_events",
	})

	SyncBetsInserted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sync_bets_inserted_total",
		Help: "apostas inseridas no banco remoto",
	})

	SyncBankrollPushed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_sync_bankroll_pushed_total",
		Help: "bancas iniciais enviadas ao remoto (remoto estava zerado)",
	})

	SyncRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sync_runs_total",
		Help: "execuções de sync por status",
	}, []string{"status"})

	SyncErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sync_errors_total",
		Help: "erros por estágio",
	}, []string{"stage"})
)

// RegisterLedger registra as métricas da API no registry padrão
func RegisterLedger() {
	prometheus.MustRegister(HTTPRequests, HTTPDuration)
}

// RegisterSync registra as métricas do sync-worker no registry padrão
func RegisterSync() {
	prometheus.MustRegister(SyncEventsConsumed, SyncBetsInserted, SyncBankrollPushed, SyncRuns, SyncErrors)
}

// Instrument mede cada requisição usando o padrão de rota do chi (ex.: "/bets")
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack mantém o upgrade de websocket funcionando atrás do middleware
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}
