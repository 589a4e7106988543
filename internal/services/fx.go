package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"wallet-service/internal/models"
)

// RateProvider resolves the conversion rate from one currency into another.
type RateProvider interface {
	Rate(ctx context.Context, from, to string) (float64, error)
}

// StaticRateProvider serves rates from a fixed table, keyed "FROM:TO".
// Used for configured pivot conversions and in local setups.
type StaticRateProvider struct {
	rates map[string]float64
}

func NewStaticRateProvider(rates map[string]float64) *StaticRateProvider {
	if rates == nil {
		rates = map[string]float64{}
	}
	return &StaticRateProvider{rates: rates}
}

func (p *StaticRateProvider) Rate(_ context.Context, from, to string) (float64, error) {
	if rate, ok := p.rates[from+":"+to]; ok {
		return rate, nil
	}
	return 0, fmt.Errorf("%w: no rate for %s->%s", models.ErrCurrencyUnsupported, from, to)
}

// HTTPRateProvider fetches rates from an external quote endpoint of the form
// GET {baseURL}?from=XXX&to=YYY returning {"rate": <float>}.
type HTTPRateProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRateProvider(baseURL string) *HTTPRateProvider {
	return &HTTPRateProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPRateProvider) Rate(ctx context.Context, from, to string) (float64, error) {
	url := fmt.Sprintf("%s?from=%s&to=%s", p.baseURL, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rate lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate endpoint returned status %d for %s->%s", resp.StatusCode, from, to)
	}
	var body struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if body.Rate <= 0 {
		return 0, fmt.Errorf("%w: invalid rate %f for %s->%s", models.ErrCurrencyUnsupported, body.Rate, from, to)
	}
	return body.Rate, nil
}

// FXService converts native amounts into the pivot currency. Quotes are
// cached in Redis for a short window; a nil Redis client disables caching.
type FXService struct {
	provider RateProvider
	pivot    string
	redis    *redis.Client
	cacheTTL time.Duration
	logger   *logrus.Entry
}

func NewFXService(provider RateProvider, pivotCurrency string, redisClient *redis.Client, logger *logrus.Logger) *FXService {
	return &FXService{
		provider: provider,
		pivot:    pivotCurrency,
		redis:    redisClient,
		cacheTTL: 5 * time.Minute,
		logger:   logger.WithField("component", "fx"),
	}
}

// Pivot returns the platform pivot currency code.
func (s *FXService) Pivot() string {
	return s.pivot
}

// ToPivot converts a minor-unit amount from a native currency into the pivot
// currency and returns the rate used. Identity conversions always succeed.
func (s *FXService) ToPivot(ctx context.Context, currency string, amount int64) (int64, float64, error) {
	if currency == s.pivot {
		return amount, 1.0, nil
	}
	rate, err := s.rate(ctx, currency, s.pivot)
	if err != nil {
		return 0, 0, err
	}
	converted := int64(math.Round(float64(amount) * rate))
	return converted, rate, nil
}

func (s *FXService) rate(ctx context.Context, from, to string) (float64, error) {
	cacheKey := fmt.Sprintf("fx:rate:%s:%s", from, to)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			if rate, parseErr := strconv.ParseFloat(cached, 64); parseErr == nil && rate > 0 {
				return rate, nil
			}
		}
	}

	rate, err := s.provider.Rate(ctx, from, to)
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKey, strconv.FormatFloat(rate, 'f', -1, 64), s.cacheTTL).Err(); err != nil {
			s.logger.WithError(err).Warn("Failed to cache FX rate")
		}
	}
	return rate, nil
}
