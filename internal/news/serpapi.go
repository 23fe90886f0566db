// Package news fetches recent headlines that travel with the market snapshot
// into the oracle prompt. Headline failures degrade the snapshot instead of
// aborting the cycle.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://serpapi.com/search.json"

type Headline struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

type Config struct {
	APIKey  string
	Query   string
	Limit   int
	Timeout time.Duration
}

// Service pulls Google News headlines through SerpAPI.
type Service struct {
	endpoint string
	cfg      Config
	client   *http.Client
}

func NewService(cfg Config) *Service {
	if cfg.Query == "" {
		cfg.Query = "bitcoin"
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Service{
		endpoint: defaultEndpoint,
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type serpResponse struct {
	NewsResults []struct {
		Title string `json:"title"`
		Date  string `json:"date"`
	} `json:"news_results"`
	Error string `json:"error"`
}

func (s *Service) Fetch(ctx context.Context) ([]Headline, error) {
	q := url.Values{}
	q.Set("engine", "google_news")
	q.Set("q", s.cfg.Query)
	q.Set("api_key", s.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("news fetch: unexpected status %s", resp.Status)
	}

	var payload serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("news fetch: api error: %s", payload.Error)
	}

	out := make([]Headline, 0, s.cfg.Limit)
	for _, item := range payload.NewsResults {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		out = append(out, Headline{Title: title, Date: strings.TrimSpace(item.Date)})
		if len(out) >= s.cfg.Limit {
			break
		}
	}
	return out, nil
}
