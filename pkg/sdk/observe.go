package entsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/entsearch/internal/metrics"
)

// sdkMetrics counts client calls such as search, put and set_enabled.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "entsearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Entity search client calls by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "entsearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "Entity search client call latency, including fallback time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	// counters shared with the HTTP service
	for _, c := range []prometheus.Collector{
		metrics.SearchRequestsTotal,
		metrics.SearchFallbackTotal,
		metrics.EngineRequestDuration,
		metrics.FlagRefreshTotal,
	} {
		if err := registerShared(reg, c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// registerOrReuse lets two clients on one registry share their counters.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("entsearch: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("entsearch: register metric: %w", err)
	}
	return nil
}

// registerShared registers a package-level collector. The same collector
// already present on reg is accepted.
func registerShared(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) && are.ExistingCollector == c {
			return nil
		}
		return fmt.Errorf("entsearch: register search metric: %w", err)
	}
	return nil
}

// observer logs and counts client calls.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(
	op string, start time.Time, err error,
) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(
			dur.Seconds(),
		)
	}

	if o.logger != nil {
		if err != nil {
			o.logger.Warn("entsearch client call failed",
				"op", op,
				"duration", dur,
				"error", err,
			)
		} else {
			o.logger.Debug("entsearch client call done",
				"op", op,
				"duration", dur,
			)
		}
	}
}
