package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/caira/backend/pkg/logger"
)

const DefaultBaseURL = "https://www.githubstatus.com/api/v2"

// Incident is a single entry from the upstream incidents feed.
type Incident struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Impact    string    `json:"impact"`
	CreatedAt time.Time `json:"created_at"`
	Shortlink string    `json:"shortlink"`
}

// Overview is the cached snapshot served to clients.
type Overview struct {
	Indicator     string     `json:"indicator"`
	Description   string     `json:"description"`
	IsOperational bool       `json:"is_operational"`
	LastUpdated   time.Time  `json:"last_updated"`
	Incidents     []Incident `json:"incidents"`
}

type statusPage struct {
	Status struct {
		Indicator   string `json:"indicator"`
		Description string `json:"description"`
	} `json:"status"`
	Page struct {
		UpdatedAt time.Time `json:"updated_at"`
	} `json:"page"`
}

type incidentsPage struct {
	Incidents []Incident `json:"incidents"`
}

// Client fetches a GitHub-status-style JSON API and caches the result for a
// fixed TTL. The upstream is a collaborator, not part of the retrieval core,
// so fetch failures never fail a query.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration

	mu        sync.Mutex
	cached    *Overview
	fetchedAt time.Time
}

func NewClient(baseURL string, cacheTTL, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cacheTTL:   cacheTTL,
	}
}

// GetStatus returns the cached overview, refreshing it when the TTL has
// expired. On refresh failure the stale snapshot is returned if one exists.
func (c *Client) GetStatus(ctx context.Context) (*Overview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		return c.cached, nil
	}

	overview, err := c.fetch(ctx)
	if err != nil {
		if c.cached != nil {
			logger.Warn("Status refresh failed, serving stale snapshot",
				zap.Error(err),
				zap.Duration("age", time.Since(c.fetchedAt)),
			)
			return c.cached, nil
		}
		return nil, err
	}

	c.cached = overview
	c.fetchedAt = time.Now()

	return overview, nil
}

func (c *Client) fetch(ctx context.Context) (*Overview, error) {
	var page statusPage
	if err := c.getJSON(ctx, "/status.json", &page); err != nil {
		return nil, fmt.Errorf("fetching status: %w", err)
	}

	overview := &Overview{
		Indicator:     page.Status.Indicator,
		Description:   page.Status.Description,
		IsOperational: page.Status.Indicator == "none",
		LastUpdated:   page.Page.UpdatedAt,
	}

	// Recent incidents are best-effort; the overview is still useful without
	// them.
	var incidents incidentsPage
	if err := c.getJSON(ctx, "/incidents.json", &incidents); err != nil {
		logger.Warn("Incidents feed unavailable", zap.Error(err))
	} else {
		n := len(incidents.Incidents)
		if n > 5 {
			n = 5
		}
		overview.Incidents = incidents.Incidents[:n]
	}

	logger.Debug("Status fetched",
		zap.String("indicator", overview.Indicator),
		zap.Int("incidents", len(overview.Incidents)),
	)

	return overview, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// Summary renders the overview as a short operator-facing line.
func (o *Overview) Summary() string {
	if o.IsOperational {
		return fmt.Sprintf("All systems operational (as of %s)", o.LastUpdated.Format(time.RFC3339))
	}
	return fmt.Sprintf("%s: %s (%d recent incidents)", o.Indicator, o.Description, len(o.Incidents))
}
