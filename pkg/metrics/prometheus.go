package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	framesTotal   *prometheus.CounterVec
	eventsRouted  *prometheus.CounterVec
	logEntries    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	streamUp      prometheus.Gauge
	tickerScore   *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	reconnects    prometheus.Counter
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		framesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldeck_frames_total",
				Help: "Raw frames received from the analysis stream by channel and outcome",
			},
			[]string{"channel", "outcome"},
		),
		eventsRouted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldeck_events_routed_total",
				Help: "Validated events applied to state by channel",
			},
			[]string{"channel"},
		),
		logEntries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldeck_log_entries_total",
				Help: "Signal log insert attempts by result",
			},
			[]string{"result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldeck_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		streamUp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "signaldeck_stream_up",
				Help: "1 when the analysis stream session is open, 0 otherwise",
			},
		),
		tickerScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldeck_ticker_score",
				Help: "Last composite score per ticker",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldeck_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		reconnects: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "signaldeck_session_reconnects_total",
				Help: "Number of stream sessions opened after the first",
			},
		),
	}
}

// RecordFrame records one raw frame with its processing outcome.
func (r *Recorder) RecordFrame(channel, outcome string) {
	r.framesTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordEventRouted records a validated event applied to state.
func (r *Recorder) RecordEventRouted(channel string) {
	r.eventsRouted.WithLabelValues(channel).Inc()
}

// RecordLogEntry records a signal log insert result (inserted, duplicate).
func (r *Recorder) RecordLogEntry(result string) {
	r.logEntries.WithLabelValues(result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// SetStreamUp flips the stream status gauge.
func (r *Recorder) SetStreamUp(up bool) {
	if up {
		r.streamUp.Set(1)
		return
	}
	r.streamUp.Set(0)
}

// RecordTickerScore records the last composite score for a symbol.
func (r *Recorder) RecordTickerScore(symbol string, score float64) {
	r.tickerScore.WithLabelValues(symbol).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordReconnect counts a session replacement.
func (r *Recorder) RecordReconnect() {
	r.reconnects.Inc()
}
