package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cricket-club-backend/internal/domain"
	"cricket-club-backend/pkg/clock"
	"cricket-club-backend/pkg/metrics"
)

const (
	squadTimeout  = 10 * time.Second
	squadMaxBytes = 5 << 20
)

// SquadConfig points at the spreadsheet-backed roster API.
type SquadConfig struct {
	URL string
	Key string
}

type squadUsecase struct {
	cfg     SquadConfig
	client  *http.Client
	clock   clock.Clock
	metrics *metrics.Metrics
}

// NewSquadUsecase creates the roster proxy. A nil client gets a 10s timeout.
func NewSquadUsecase(cfg SquadConfig, client *http.Client, clk clock.Clock, m *metrics.Metrics) domain.SquadUsecase {
	if client == nil {
		client = &http.Client{Timeout: squadTimeout}
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &squadUsecase{cfg: cfg, client: client, clock: clk, metrics: m}
}

// FetchSquad calls <url>?key=<key>&_t=<now ms>. The timestamp defeats caches
// between here and the sheet.
func (uc *squadUsecase) FetchSquad(ctx context.Context) (*domain.SquadSheet, error) {
	if uc.cfg.URL == "" || uc.cfg.Key == "" {
		return nil, domain.ErrSquadNotConfigured
	}

	u, err := url.Parse(uc.cfg.URL)
	if err != nil {
		return nil, errors.New("invalid squad url")
	}
	q := u.Query()
	q.Set("key", uc.cfg.Key)
	q.Set("_t", strconv.FormatInt(uc.clock.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, squadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, stripURL(err)
	}
	resp, err := uc.client.Do(req)
	if err != nil {
		uc.metrics.IncSquadRequest(0)
		return nil, stripURL(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, squadMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read squad response: %w", err)
	}
	uc.metrics.IncSquadRequest(resp.StatusCode)

	return &domain.SquadSheet{Status: resp.StatusCode, Body: body}, nil
}

// stripURL drops the request URL from transport errors. The URL carries the
// API key and these messages reach clients.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("squad request failed: %w", urlErr.Err)
	}
	return err
}
