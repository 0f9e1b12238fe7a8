// SPDX-License-Identifier: MIT

package playht

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cloneTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "touchbase_playht_clone_requests_total",
		Help: "Outcome of voice-clone submissions by HTTP status (0 = transport failure)",
	}, []string{"status"})

	cloneDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "touchbase_playht_clone_duration_seconds",
		Help:    "Voice-clone submission latencies in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func observeClone(status int, elapsed time.Duration) {
	cloneTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	cloneDuration.Observe(elapsed.Seconds())
}
