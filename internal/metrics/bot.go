// SPDX-License-Identifier: MIT

// Package metrics exposes prometheus collectors for the bot core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebot_events_total",
		Help: "Inbound webhook events by type",
	}, []string{"type"})

	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebot_turns_total",
		Help: "Dialogue turns by result",
	}, []string{"result"})

	pipelineStageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebot_pipeline_stage_total",
		Help: "Media pipeline stage outcomes",
	}, []string{"stage", "outcome"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagebot_pipeline_duration_seconds",
		Help:    "End to end media pipeline duration",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagebot_deliveries_total",
		Help: "Outbound send attempts by result",
	}, []string{"result"})

	sessionsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pagebot_sessions_live",
		Help: "Sessions currently held in the store",
	})
)

// RecordEvent counts one inbound event of the given type.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordTurn counts one dialogue turn outcome ("ok", "resolver_error", ...).
func RecordTurn(result string) {
	turnsTotal.WithLabelValues(result).Inc()
}

// RecordPipelineStage counts one media pipeline stage outcome.
func RecordPipelineStage(stage, outcome string) {
	pipelineStageTotal.WithLabelValues(stage, outcome).Inc()
}

// ObservePipelineDuration records the wall time of one transcription job.
func ObservePipelineDuration(seconds float64) {
	pipelineDuration.Observe(seconds)
}

// RecordDelivery counts one outbound send attempt ("ok" or "error").
func RecordDelivery(result string) {
	deliveriesTotal.WithLabelValues(result).Inc()
}

// SetSessionsLive updates the live session gauge.
func SetSessionsLive(n int) {
	sessionsLive.Set(float64(n))
}
