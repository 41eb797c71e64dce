// Copyright 2025 The KeelDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	resolutions         *prometheus.CounterVec
	consecutiveFailures prometheus.Gauge
	degraded            prometheus.Gauge
	peers               prometheus.Gauge
	lastSuccess         prometheus.Gauge
}

// newMetrics registers the discovery metrics with reg. A nil registerer
// yields working but unregistered metrics.
func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		resolutions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "discovery_srv_resolutions_total",
			Help: "Total SRV resolution attempts, by result.",
		}, []string{"result"}),
		consecutiveFailures: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "discovery_srv_consecutive_failures",
			Help: "Number of SRV resolution failures since the last success.",
		}),
		degraded: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "discovery_srv_degraded",
			Help: "Whether seed discovery is degraded (resolution has failed repeatedly).",
		}),
		peers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "discovery_srv_peers",
			Help: "Number of peers in the current effective seed set.",
		}),
		lastSuccess: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "discovery_srv_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful SRV resolution.",
		}),
	}
}
