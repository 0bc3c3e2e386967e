// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "sparqltdb"

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// ValidationsTotal counts descriptor validations by their result kind
	ValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validations_total",
			Help:      "Total number of connection and properties validations",
		},
		[]string{"result"},
	)

	// EngineCallsTotal counts calls to the external engine
	EngineCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "engine_calls_total",
			Help:      "Total number of calls to the jena command line engine",
		},
		[]string{"kind", "status"},
	)

	EngineCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "engine_call_duration_seconds",
			Help:      "Duration of calls to the jena command line engine in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(ValidationsTotal)
	prometheus.MustRegister(EngineCallsTotal)
	prometheus.MustRegister(EngineCallDuration)
}

// ObserveEngineCall records the outcome and duration of one engine call
func ObserveEngineCall(kind string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	EngineCallsTotal.WithLabelValues(kind, status).Inc()
	EngineCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// ObserveValidation records the kind of a validation result
func ObserveValidation(kind string) {
	ValidationsTotal.WithLabelValues(kind).Inc()
}
