package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "deployer"

// Metrics — метрики release.
//
// Все методы безопасны для nil-получателя: без метрик вызовы ничего не делают.
type Metrics struct {
	ReleasesTotal *prometheus.CounterVec
	StepDuration  *prometheus.HistogramVec
	RemoteCalls   *prometheus.CounterVec
	LastSuccess   prometheus.Gauge
}

// NewMetrics создаёт и регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ReleasesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_total",
			Help:      "Total releases by environment and final status",
		}, []string{"environment", "status"}),

		StepDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of a release step on a single host",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"step", "status"}),

		RemoteCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Remote calls issued by release steps",
		}, []string{"step", "status"}),

		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful release",
		}),
	}
}

// ObserveStep записывает результат шага на одном хосте.
func (m *Metrics) ObserveStep(step, status string, calls int, d time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.WithLabelValues(step, status).Observe(d.Seconds())
	m.RemoteCalls.WithLabelValues(step, status).Add(float64(calls))
}

// ObserveRelease записывает итог release.
func (m *Metrics) ObserveRelease(env, status string, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.ReleasesTotal.WithLabelValues(env, status).Inc()
	if status == "SUCCEEDED" {
		m.LastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// Push отправляет метрики из g в Pushgateway по адресу url.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(g).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
