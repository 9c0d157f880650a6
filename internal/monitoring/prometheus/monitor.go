// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/access-service/internal/logging"
	"github.com/canonical/access-service/internal/monitoring"
)

var _ monitoring.MonitorInterface = (*Monitor)(nil)

type Monitor struct {
	service string

	responseTime *prometheus.HistogramVec
	dependency   *prometheus.GaugeVec

	logger logging.LoggerInterface
}

func (m *Monitor) GetService() string {
	return m.service
}

func (m *Monitor) SetResponseTimeMetric(tags map[string]string, seconds float64) error {
	labels := prometheus.Labels{"service": m.service, "route": "", "status": ""}
	for k, v := range tags {
		if _, ok := labels[k]; ok {
			labels[k] = v
		}
	}

	observer, err := m.responseTime.GetMetricWith(labels)
	if err != nil {
		return err
	}

	observer.Observe(seconds)
	return nil
}

func (m *Monitor) SetDependencyAvailability(tags map[string]string, available float64) error {
	labels := prometheus.Labels{"service": m.service, "dependency": ""}
	for k, v := range tags {
		if _, ok := labels[k]; ok {
			labels[k] = v
		}
	}

	gauge, err := m.dependency.GetMetricWith(labels)
	if err != nil {
		return err
	}

	gauge.Set(available)
	return nil
}

func NewMonitor(service string, logger logging.LoggerInterface) *Monitor {
	m := new(Monitor)

	m.service = service
	m.logger = logger

	m.responseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "route", "status"},
	)

	m.dependency = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dependency_available",
			Help: "Availability of downstream dependencies, 1 up 0 down.",
		},
		[]string{"service", "dependency"},
	)

	for _, c := range []prometheus.Collector{m.responseTime, m.dependency} {
		if err := prometheus.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				logger.Fatalf("failed to register prometheus collector: %v", err)
			}
		}
	}

	return m
}
