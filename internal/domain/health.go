package domain

import "context"

// HealthUsecase reports dependency state for the health endpoint.
type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}
