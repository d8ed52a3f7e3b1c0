package entsearch

import (
	"context"

	healthuc "github.com/kailas-cloud/entsearch/internal/usecase/health"
)

// HealthStatus reports whether searches can be answered and by what.
//
// Status is "ok" when every configured backend answers, "degraded" when
// searches fall back to the authoritative store and "error" when that
// store is down. Checks maps "elasticsearch", "fallback" and "flags" to
// "ok" or "error"; a backend that is not configured is absent.
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// Healthy reports whether the index and the fallback store both answer.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Searchable reports whether searches can still be served, possibly from
// the fallback store only.
func (h HealthStatus) Searchable() bool { return h.Status != string(healthuc.Unhealthy) }

// Health checks the index, the fallback store and the flag source.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
