// Package metrics はPrometheus形式のメトリクス収集と公開を提供します。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	scanusecase "inimage_backend/internal/feature/scan/usecase"
)

const namespace = "inimage"

// Recorder はスキャンパイプラインの計測値を専用レジストリに記録します。
type Recorder struct {
	registry  *prometheus.Registry
	outcomes  *prometheus.CounterVec
	warnings  *prometheus.CounterVec
	detection *prometheus.HistogramVec
}

// Recorder が scanusecase.MetricsRecorder を実装していることをコンパイル時に検証します。
var _ scanusecase.MetricsRecorder = (*Recorder)(nil)

// NewRecorder はプロセス・Goランタイムのコレクタを含むレジストリとRecorderを生成します。
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Recorder{
		registry: reg,
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_outcomes_total",
			Help:      "Number of scanned images by outcome status.",
		}, []string{"status"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_warnings_total",
			Help:      "Number of non-fatal stage failures recorded as warnings.",
		}, []string{"stage"}),
		detection: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "logo_detection_duration_seconds",
			Help:      "Latency of logo detection calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"result"}),
	}
	reg.MustRegister(r.outcomes, r.warnings, r.detection)
	return r
}

// ObserveDetection はロゴ検出1回の所要時間を成否別に記録します。
func (r *Recorder) ObserveDetection(elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.detection.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveWarning はステージ失敗（警告）を記録します。
func (r *Recorder) ObserveWarning(stage string) {
	r.warnings.WithLabelValues(stage).Inc()
}

// ObserveOutcome は1画像の最終ステータスを記録します。
func (r *Recorder) ObserveOutcome(status string) {
	r.outcomes.WithLabelValues(status).Inc()
}

// Handler は /metrics 用のHTTPハンドラを返します。
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry はテストや追加コレクタ登録用にレジストリを返します。
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
