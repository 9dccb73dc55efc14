package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/gsuchecki40/formula-one-scorer/internal/models"
)

// TimingClient fetches lap and pit stop data from the timing API.
type TimingClient struct {
	baseURL string
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewTimingClient creates a timing API client
func NewTimingClient(baseURL string, requestsPerSecond float64, logger *logrus.Logger) *TimingClient {
	cfg := DefaultHTTPClientConfig()
	if requestsPerSecond > 0 {
		cfg.RateLimit = requestsPerSecond
	}
	return &TimingClient{
		baseURL: baseURL,
		client:  NewRateLimitedHTTPClient(cfg, logger),
		logger:  logger,
	}
}

// RaceLaps fetches every timed lap of one race session
func (t *TimingClient) RaceLaps(ctx context.Context, season, round int) ([]models.Lap, error) {
	endpoint := fmt.Sprintf("%s/laps?%s", t.baseURL, url.Values{
		"season": {strconv.Itoa(season)},
		"round":  {strconv.Itoa(round)},
	}.Encode())

	resp, err := t.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch laps for %d round %d: %w", season, round, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, endpoint)
	}

	var laps []models.Lap
	if err := json.NewDecoder(resp.Body).Decode(&laps); err != nil {
		return nil, fmt.Errorf("failed to decode laps response: %w", err)
	}

	t.logger.WithFields(logrus.Fields{
		"season": season,
		"round":  round,
		"laps":   len(laps),
	}).Debug("Fetched race laps")

	return laps, nil
}

// SeasonLaps fetches laps for every round of a season, stopping at the first
// round that returns none.
func (t *TimingClient) SeasonLaps(ctx context.Context, season int) ([]models.Lap, error) {
	all := make([]models.Lap, 0)
	for round := 1; ; round++ {
		laps, err := t.RaceLaps(ctx, season, round)
		if err != nil {
			return nil, err
		}
		if len(laps) == 0 {
			break
		}
		all = append(all, laps...)
	}
	return all, nil
}

// Close releases the underlying HTTP client
func (t *TimingClient) Close() error {
	return t.client.Close()
}
