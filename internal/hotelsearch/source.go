package hotelsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultSourceBaseURL         = "http://localhost:3001"
	DefaultSourceRateLimitPerMin = 30
	sourceHotelsPath             = "/hotels"
	sourceReviewsPath            = "/hotel-reviews"
)

// SearchQuery is one hotel listing request.
type SearchQuery struct {
	Location string
	CheckIn  string
	CheckOut string
	Guests   int
	Keywords []string
}

// ListingSource fetches hotel listings for a query.
type ListingSource interface {
	SearchHotels(ctx context.Context, q SearchQuery) ([]Hotel, error)
}

// ReviewSource fetches detailed reviews for a single hotel.
type ReviewSource interface {
	FetchReviews(ctx context.Context, hotelName, location string, keywords []string) ([]Review, error)
}

type SourceConfig struct {
	BaseURL            string
	APIKey             string
	RateLimitPerMinute int
	HTTPClient         *http.Client
}

// TravelSource talks to the hotel data proxy over plain HTTP.
type TravelSource struct {
	cfg     SourceConfig
	limiter <-chan time.Time
}

func NewTravelSource(cfg SourceConfig) *TravelSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultSourceBaseURL
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = DefaultSourceRateLimitPerMin
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	interval := time.Minute / time.Duration(cfg.RateLimitPerMinute)
	ticker := time.NewTicker(interval)
	return &TravelSource{cfg: cfg, limiter: ticker.C}
}

func (s *TravelSource) SearchHotels(ctx context.Context, q SearchQuery) ([]Hotel, error) {
	params := url.Values{}
	params.Set("location", q.Location)
	params.Set("checkin", q.CheckIn)
	params.Set("checkout", q.CheckOut)
	params.Set("guests", strconv.Itoa(q.Guests))
	if len(q.Keywords) > 0 {
		params.Set("keywords", strings.Join(q.Keywords, ","))
	}
	results, err := s.getWithRetry(ctx, sourceHotelsPath, params)
	if err != nil {
		return nil, fmt.Errorf("hotel listing fetch: %w", err)
	}
	rawHotels, _ := results["hotels"].([]any)
	hotels := make([]Hotel, 0, len(rawHotels))
	for _, item := range rawHotels {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		h := flattenHotel(m)
		if h.Name == "" {
			continue
		}
		hotels = append(hotels, h)
	}
	return hotels, nil
}

func (s *TravelSource) FetchReviews(ctx context.Context, hotelName, location string, keywords []string) ([]Review, error) {
	params := url.Values{}
	params.Set("hotelName", hotelName)
	params.Set("location", location)
	if len(keywords) > 0 {
		params.Set("keywords", strings.Join(keywords, ","))
	}
	results, err := s.getWithRetry(ctx, sourceReviewsPath, params)
	if err != nil {
		return nil, fmt.Errorf("review fetch for %q: %w", hotelName, err)
	}
	rawReviews, _ := results["reviews"].([]any)
	reviews := make([]Review, 0, len(rawReviews))
	for _, item := range rawReviews {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		reviews = append(reviews, flattenReview(m))
	}
	return reviews, nil
}

// getWithRetry GETs the path and returns the inner "results" object.
// Up to 4 attempts with backoff for 429, 5xx, and one timeout; 4xx
// other than 429 fails immediately.
func (s *TravelSource) getWithRetry(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	if err := s.waitRateLimit(ctx); err != nil {
		return nil, err
	}
	var lastErr error
	timeoutRetried := false
	for attempt := 1; attempt <= 4; attempt++ {
		results, code, retryAfter, err := s.getOnce(ctx, path, params)
		if err == nil {
			return results, nil
		}
		lastErr = err

		if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
			return nil, err
		}
		if attempt == 4 {
			break
		}
		if isTimeoutError(err) {
			if timeoutRetried {
				break
			}
			timeoutRetried = true
		}
		sleep := backoffDelay(attempt)
		if code == http.StatusTooManyRequests && retryAfter > 0 {
			sleep = retryAfter
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (s *TravelSource) getOnce(ctx context.Context, path string, params url.Values) (map[string]any, int, time.Duration, error) {
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", s.cfg.APIKey)
	}

	res, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<20))

	retryAfter := parseRetryAfter(res.Header.Get("Retry-After"))
	if res.StatusCode >= 400 {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("status code: %d body=%s", res.StatusCode, string(b))
	}

	var parsed struct {
		Results map[string]any `json:"results"`
	}
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, res.StatusCode, retryAfter, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Results == nil {
		return nil, res.StatusCode, retryAfter, errors.New("response missing results object")
	}
	return parsed.Results, res.StatusCode, retryAfter, nil
}

func (s *TravelSource) waitRateLimit(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.limiter:
		return nil
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func parseRetryAfter(v string) time.Duration {
	if strings.TrimSpace(v) == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err == nil {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func flattenHotel(raw map[string]any) Hotel {
	h := Hotel{
		Name:    strings.TrimSpace(str(raw["name"])),
		Rating:  strOrNumber(raw["rating"]),
		Address: strings.TrimSpace(str(raw["address"])),
		Price:   strOrNumber(raw["price"]),
		Source:  strings.TrimSpace(str(raw["source"])),
	}
	if h.Source == "" {
		h.Source = "unknown"
	}
	if arr, ok := raw["reviews"].([]any); ok {
		h.Reviews = make([]Review, 0, len(arr))
		for _, item := range arr {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			h.Reviews = append(h.Reviews, flattenReview(m))
		}
	}
	return h
}

func flattenReview(raw map[string]any) Review {
	return Review{
		Text:   str(raw["text"]),
		Rating: strOrNumber(raw["rating"]),
		Source: strings.TrimSpace(str(raw["source"])),
		Author: strings.TrimSpace(str(raw["author"])),
		Date:   strings.TrimSpace(str(raw["date"])),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// strOrNumber keeps ratings as strings even when the wire carries
// JSON numbers.
func strOrNumber(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
