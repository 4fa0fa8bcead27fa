package core

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/forptiter/study-assistant/pkg/metrics"
)

type Metrics struct {
	chatRequestTime   *prometheus.HistogramVec
	streamChunks      *prometheus.CounterVec
	chatError         *prometheus.CounterVec
	uploads           *prometheus.CounterVec
	sessionEvictions  *prometheus.CounterVec
	reconcileOutcomes *prometheus.CounterVec
	fileContexts      *prometheus.GaugeVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.NewRegistry())

	return &Metrics{
		chatRequestTime:   metrics.NewHistogramVec("chat_request_time", []string{"agent"}),
		streamChunks:      metrics.NewCounterVec("stream_chunks", nil),
		chatError:         metrics.NewCounterVec("chat_error", []string{"kind"}),
		uploads:           metrics.NewCounterVec("file_upload", []string{"target", "result"}),
		sessionEvictions:  metrics.NewCounterVec("session_eviction", nil),
		reconcileOutcomes: metrics.NewCounterVec("reconcile", []string{"trigger", "result"}),
		fileContexts:      metrics.NewGaugeVec("file_contexts", nil),
	}
}

func (m *Metrics) ChatRequestTimer(agent string) *prometheus.Timer {
	return prometheus.NewTimer(m.chatRequestTime.WithLabelValues(agent))
}

func (m *Metrics) StreamChunkInc() {
	m.streamChunks.WithLabelValues().Inc()
}

func (m *Metrics) ChatErrorInc(kind string) {
	m.chatError.WithLabelValues(kind).Inc()
}

func (m *Metrics) UploadInc(target, result string) {
	m.uploads.WithLabelValues(target, result).Inc()
}

func (m *Metrics) SessionEvictionInc() {
	m.sessionEvictions.WithLabelValues().Inc()
}

func (m *Metrics) ReconcileInc(trigger, result string) {
	m.reconcileOutcomes.WithLabelValues(trigger, result).Inc()
}

func (m *Metrics) SetFileContexts(n int) {
	m.fileContexts.WithLabelValues().Set(float64(n))
}
