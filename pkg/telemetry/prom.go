// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink backs the four spec §4.6 counters with a private Prometheus
// registry, exposed by each node on /metrics.
type PromSink struct {
	Registry *prometheus.Registry

	totalRequest    *prometheus.CounterVec
	totalSuccess    *prometheus.CounterVec
	totalTunnelInit *prometheus.CounterVec
	totalBytesMoved *prometheus.CounterVec
}

// NewPromSink constructs and registers the counter vectors.
func NewPromSink(namespace string) *PromSink {
	registry := prometheus.NewRegistry()

	s := &PromSink{
		Registry: registry,
		totalRequest: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_request",
			Help:      "Total requests handled, tagged by client_id.",
		}, []string{"client_id"}),
		totalSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_success",
			Help:      "Total successful /proxy responses, tagged by client_id.",
		}, []string{"client_id"}),
		totalTunnelInit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_tunnel_initiated",
			Help:      "Total successful /init-tunnel responses, tagged by client_id.",
		}, []string{"client_id"}),
		totalBytesMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_byte_transferred",
			Help:      "Total request+response bytes moved on successful /proxy calls, tagged by client_id.",
		}, []string{"client_id"}),
	}

	registry.MustRegister(s.totalRequest, s.totalSuccess, s.totalTunnelInit, s.totalBytesMoved)
	return s
}

func (s *PromSink) IncRequest(clientID string) {
	s.totalRequest.WithLabelValues(clientID).Inc()
}

func (s *PromSink) IncSuccess(clientID string) {
	s.totalSuccess.WithLabelValues(clientID).Inc()
}

func (s *PromSink) IncTunnelInitiated(clientID string) {
	s.totalTunnelInit.WithLabelValues(clientID).Inc()
}

func (s *PromSink) AddBytesTransferred(clientID string, n int64) {
	s.totalBytesMoved.WithLabelValues(clientID).Add(float64(n))
}
