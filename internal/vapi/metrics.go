// SPDX-License-Identifier: MIT

package vapi

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "touchbase_vapi_requests_total",
		Help: "Outcome of calling-provider requests by operation and HTTP status (0 = transport failure)",
	}, []string{"operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "touchbase_vapi_request_duration_seconds",
		Help:    "Calling-provider request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func observeRequest(operation string, status int, elapsed time.Duration) {
	requestTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}
