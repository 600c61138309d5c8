// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層およびミドルウェアから利用する。
type MetricsCollector interface {
	RecordGateDecision(outcome string)
	RecordProposal(result string)
	RecordResponse(outcome string)
	RecordCandidatePage(count int)
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	gateDecisions  *prometheus.CounterVec
	proposals      *prometheus.CounterVec
	responses      *prometheus.CounterVec
	candidatePages prometheus.Counter
	candidates     prometheus.Counter
	httpLatency    *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_gate_decisions_total",
			Help: "アクセスゲート判定の結果別合計数",
		}, []string{"outcome"}),
		proposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_proposals_total",
			Help: "メンターシップリクエスト作成の結果別合計数",
		}, []string{"result"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentorlink_responses_total",
			Help: "メンターシップリクエスト応答の種別別合計数",
		}, []string{"outcome"}),
		candidatePages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentorlink_candidate_pages_total",
			Help: "提供された候補ページの合計数",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mentorlink_candidates_served_total",
			Help: "提示された候補メンターの合計数",
		}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mentorlink_http_request_duration_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	reg.MustRegister(
		c.gateDecisions,
		c.proposals,
		c.responses,
		c.candidatePages,
		c.candidates,
		c.httpLatency,
	)

	return c
}

// RecordGateDecision はアクセスゲート判定の結果を記録する。
// outcomeは allow または各リダイレクト先の名前。
func (c *Collector) RecordGateDecision(outcome string) {
	c.gateDecisions.WithLabelValues(outcome).Inc()
}

// RecordProposal はリクエスト作成の結果を記録する。
// resultは created または conflict。
func (c *Collector) RecordProposal(result string) {
	c.proposals.WithLabelValues(result).Inc()
}

// RecordResponse はリクエスト応答の種別を記録する。
// outcomeは accept または decline。
func (c *Collector) RecordResponse(outcome string) {
	c.responses.WithLabelValues(outcome).Inc()
}

// RecordCandidatePage は候補ページの提供を記録する。
func (c *Collector) RecordCandidatePage(count int) {
	c.candidatePages.Inc()
	c.candidates.Add(float64(count))
}

// ObserveHTTPRequest はHTTPリクエストのレイテンシを記録する。
func (c *Collector) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpLatency.WithLabelValues(method, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
