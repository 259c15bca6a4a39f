package usecase_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cricket-club-backend/internal/domain"
	"cricket-club-backend/internal/usecase"
	"cricket-club-backend/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSquad(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"players":[]}`))
	}))
	defer srv.Close()

	clk := clock.NewFake(time.UnixMilli(1_750_000_000_123))
	uc := usecase.NewSquadUsecase(usecase.SquadConfig{URL: srv.URL + "/exec?sheet=squad", Key: "k1"}, srv.Client(), clk, nil)

	sheet, err := uc.FetchSquad(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, sheet.Status)
	assert.JSONEq(t, `{"players":[]}`, string(sheet.Body))
	assert.Equal(t, []string{"k1"}, gotQuery["key"])
	assert.Equal(t, []string{"1750000000123"}, gotQuery["_t"])
	assert.Equal(t, []string{"squad"}, gotQuery["sheet"])
}

func TestFetchSquadNotConfigured(t *testing.T) {
	uc := usecase.NewSquadUsecase(usecase.SquadConfig{URL: "https://sheet.example"}, nil, nil, nil)

	_, err := uc.FetchSquad(context.Background())
	assert.ErrorIs(t, err, domain.ErrSquadNotConfigured)
}

func TestFetchSquadTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	uc := usecase.NewSquadUsecase(usecase.SquadConfig{URL: srv.URL, Key: "TOPSECRETKEY"}, nil, nil, nil)
	_, err := uc.FetchSquad(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "squad request failed")
	assert.NotContains(t, err.Error(), "TOPSECRETKEY")
	assert.NotContains(t, err.Error(), srv.URL)
}

func TestHealthUsecase(t *testing.T) {
	uc := usecase.NewHealthUsecase(map[string]usecase.HealthCheck{
		"redis":    func(context.Context) error { return nil },
		"database": func(context.Context) error { return assert.AnError },
	}, []string{"SMTP_HOST"})

	got := uc.Check(context.Background())
	assert.Equal(t, map[string]string{
		"status":   "degraded",
		"mail":     "not_configured",
		"redis":    "ok",
		"database": "error",
	}, got)
}
