package usecase

import (
	"context"
	"time"

	"cricket-club-backend/internal/domain"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

type healthUsecase struct {
	checks      map[string]HealthCheck
	missingMail []string
}

// NewHealthUsecase reports on the given dependency checks. Dependencies that
// are not configured should be left out of checks.
func NewHealthUsecase(checks map[string]HealthCheck, missingMail []string) domain.HealthUsecase {
	return &healthUsecase{checks: checks, missingMail: missingMail}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	result := map[string]string{
		"status": "ok",
		"mail":   "configured",
	}
	if len(u.missingMail) > 0 {
		result["mail"] = "not_configured"
	}

	for name, check := range u.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(cctx)
		cancel()
		if err != nil {
			result[name] = "error"
			result["status"] = "degraded"
			continue
		}
		result[name] = "ok"
	}
	return result
}
