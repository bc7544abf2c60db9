package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	sdpMungeTotal          *prometheus.CounterVec
	sdpNegotiationDuration *prometheus.HistogramVec

	htmlSanitizedTotal prometheus.Counter
	sharedFilesTotal   prometheus.Counter

	chatConnections prometheus.Gauge
}

// NewPrometheusCollector registers the rtckit metrics on reg. A nil reg uses
// the default registerer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		sdpMungeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rtckit_sdp_munge_total",
			Help: "SDP munge operations by result",
		}, []string{"result"}),

		sdpNegotiationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rtckit_sdp_negotiation_duration_seconds",
			Help:    "Time spent creating a local session description",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"type"}),

		htmlSanitizedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtckit_html_sanitized_total",
			Help: "HTML fragments passed through the sanitizer",
		}),

		sharedFilesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "rtckit_shared_files_total",
			Help: "Files shared across all sessions",
		}),

		chatConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rtckit_chat_connections",
			Help: "Open chat relay connections",
		}),
	}
}

func (p *PrometheusCollector) RecordMunge(result string) {
	p.sdpMungeTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) ObserveNegotiation(sdpType string, duration time.Duration) {
	p.sdpNegotiationDuration.WithLabelValues(sdpType).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordHTMLSanitized() {
	p.htmlSanitizedTotal.Inc()
}

func (p *PrometheusCollector) RecordFileShared() {
	p.sharedFilesTotal.Inc()
}

func (p *PrometheusCollector) ChatConnectionOpened() {
	p.chatConnections.Inc()
}

func (p *PrometheusCollector) ChatConnectionClosed() {
	p.chatConnections.Dec()
}
