package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"signalgate/internal/logging"
)

var log = logging.For("ranking")

// HTTPSourceConfig configures the concrete paginated HTTP ranking source,
// in the style of SynapseStrike's provider.AI500Config / AI100Config
// pollers (single JSON endpoint, `{success, data: {stocks: [...]}}`
// envelope, bearer/query auth, fixed timeout).
type HTTPSourceConfig struct {
	URL        string
	Timeout    time.Duration
	PageParam  string // query param name for page number, empty = no pagination
	MaxPages   int    // safety cap on pagination loops
	PageSize   int
}

type apiResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Stocks []stockEntry `json:"stocks"`
		Coins  []stockEntry `json:"coins"`
		Count  int          `json:"count"`
	} `json:"data"`
}

type stockEntry struct {
	Pair string `json:"pair"`
}

// HTTPSource fetches the ranking list from a single paginated JSON
// endpoint under a fixed per-request timeout.
type HTTPSource struct {
	cfg    HTTPSourceConfig
	client *http.Client
}

// NewHTTPSource builds an HTTPSource with sane pagination/timeout defaults.
func NewHTTPSource(cfg HTTPSourceConfig) *HTTPSource {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = 20
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 100
	}
	return &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch implements Source. It pages through the endpoint until either topN
// tickers have been collected, the source reports fewer results than a
// full page (exhausted), or MaxPages is hit. Any HTTP/parse error aborts
// the entire fetch so the caller never mistakes a partial page set for a
// complete snapshot.
func (s *HTTPSource) Fetch(ctx context.Context, topN int) (map[string]struct{}, error) {
	if s.cfg.URL == "" {
		return nil, fmt.Errorf("ranking: no source URL configured")
	}

	out := make(map[string]struct{}, topN)
	page := 1
	for {
		entries, err := s.fetchPage(ctx, page)
		if err != nil {
			log.Warnf("fetch page %d failed: %v", page, err)
			return nil, fmt.Errorf("ranking: fetch page %d: %w", page, err)
		}
		for _, e := range entries {
			ticker := strings.ToUpper(strings.TrimSpace(e.Pair))
			if ticker == "" {
				continue
			}
			out[ticker] = struct{}{}
			if len(out) >= topN {
				return out, nil
			}
		}
		if s.cfg.PageParam == "" || len(entries) < s.cfg.PageSize || page >= s.cfg.MaxPages {
			return out, nil
		}
		page++
	}
}

func (s *HTTPSource) fetchPage(ctx context.Context, page int) ([]stockEntry, error) {
	url := s.cfg.URL
	if s.cfg.PageParam != "" {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url = fmt.Sprintf("%s%s%s=%d", url, sep, s.cfg.PageParam, page)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !apiResp.Success {
		return nil, fmt.Errorf("source reported failure")
	}
	if len(apiResp.Data.Stocks) > 0 {
		return apiResp.Data.Stocks, nil
	}
	return apiResp.Data.Coins, nil
}
