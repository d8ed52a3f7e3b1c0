package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates searches are served, but not by the index.
	Degraded Status = "degraded"
	// Unhealthy indicates the authoritative store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentEngine   = "elasticsearch"
	ComponentFallback = "fallback"
	ComponentFlags    = "flags"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine   Pinger
	fallback Pinger
	flags    Pinger
}

// New creates a Service. engine and flags can be nil when not configured.
func New(engine, fallback, flags Pinger) *Service {
	return &Service{engine: engine, fallback: fallback, flags: flags}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = CheckError
		} else {
			checks[name] = CheckOK
		}
	}
	check(ComponentEngine, s.engine)
	check(ComponentFallback, s.fallback)
	check(ComponentFlags, s.flags)

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentFallback] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}
