// Package metrics считает итоги прогонов и отправляет их в Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricsCollector - то, чем сервис синхронизации отчитывается о прогоне.
type MetricsCollector interface {
	RecordOutcome(kind string)
	RecordRun(duration time.Duration, finishedAt time.Time)
	Push(ctx context.Context, site string) error
}

type Collector struct {
	registry    *prometheus.Registry
	outcomes    *prometheus.CounterVec
	runDuration prometheus.Gauge
	lastRun     prometheus.Gauge
	url         string
	job         string
}

// NewCollector регистрирует метрики в собственном реестре, чтобы в Pushgateway
// уходили только они, без метрик процесса.
func NewCollector(url, job string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "member2ldap_members_total",
			Help: "Количество обработанных участников по результату",
		}, []string{"outcome"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "member2ldap_run_duration_seconds",
			Help: "Длительность последнего прогона",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "member2ldap_last_run_timestamp_seconds",
			Help: "Время окончания последнего прогона (unix)",
		}),
		url: url,
		job: job,
	}
	c.registry.MustRegister(c.outcomes, c.runDuration, c.lastRun)
	return c
}

func (c *Collector) RecordOutcome(kind string) {
	c.outcomes.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordRun(duration time.Duration, finishedAt time.Time) {
	c.runDuration.Set(duration.Seconds())
	c.lastRun.Set(float64(finishedAt.Unix()))
}

// Gatherer нужен для проверки содержимого в тестах.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// Push заменяет метрики группы job/site в Pushgateway.
func (c *Collector) Push(ctx context.Context, site string) error {
	if c.url == "" {
		return nil
	}
	err := push.New(c.url, c.job).
		Gatherer(c.registry).
		Grouping("site", site).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("не удалось отправить метрики в %s: %w", c.url, err)
	}
	return nil
}
