package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vladvlasov256/YourDutchBot/core/logger"
	"github.com/vladvlasov256/YourDutchBot/internal/lesson"
)

const defaultBaseURL = "https://gnews.io/api/v4"

// Config holds the GNews API settings.
type Config struct {
	APIKey  string `yaml:"api_key" envconfig:"GNEWS_API_KEY"`
	BaseURL string `yaml:"base_url" envconfig:"GNEWS_BASE_URL"`
	Lang    string `yaml:"lang" envconfig:"GNEWS_LANG"`
}

// Normalize fills endpoint defaults.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
}

// Client queries the GNews search API. Topic fetching is best-effort:
// callers treat an error as "this query produced nothing today".
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a GNews client. A nil httpClient gets a plain
// client with a request timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	cfg.Normalize()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient}
}

type searchResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

// Search returns up to max articles matching query.
func (c *Client) Search(ctx context.Context, query string, max int) ([]lesson.Article, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("gnews: api key not configured")
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("lang", c.cfg.Lang)
	q.Set("max", strconv.Itoa(max))
	q.Set("apikey", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gnews: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gnews: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("gnews: rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gnews: unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("gnews: decode response: %w", err)
	}

	articles := make([]lesson.Article, 0, len(body.Articles))
	for _, a := range body.Articles {
		if a.Title == "" {
			continue
		}
		articles = append(articles, lesson.Article{
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	logger.SVCNews.Debug("search finished",
		slog.String("event", "news.search"),
		slog.Int("topics", len(articles)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return articles, nil
}
