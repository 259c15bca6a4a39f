package domain

import (
	"context"
	"errors"
)

// ErrSquadNotConfigured is returned when the sheet endpoint or key is unset.
var ErrSquadNotConfigured = errors.New("Missing server env vars")

// SquadSheet is the upstream response, passed through untouched.
type SquadSheet struct {
	Status int
	Body   []byte
}

type SquadUsecase interface {
	// FetchSquad reads the current roster from the sheet API.
	FetchSquad(ctx context.Context) (*SquadSheet, error)
}
