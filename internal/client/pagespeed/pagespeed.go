package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"siteauditor/internal/cache"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

// apiBase is the PageSpeed Insights v5 endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// ErrNoAPIKey reports a client built without a key. Callers treat it as
// "no performance data", never as an audit failure.
var ErrNoAPIKey = errors.New("pagespeed: no api key configured")

const (
	StrategyMobile  = "mobile"
	StrategyDesktop = "desktop"
)

// Audits scoring below this cutoff surface as improvement opportunities.
const opportunityCutoff = 0.9

const requestTimeout = 60 * time.Second

type Client struct {
	httpClient *http.Client
	apiKey     string
}

func New(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		apiKey:     apiKey,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type apiResponse struct {
	LighthouseResult struct {
		Categories struct {
			Performance struct {
				Score float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		Audits map[string]struct {
			Title string   `json:"title"`
			Score *float64 `json:"score"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
}

// Analyze runs one strategy against the API. Results are cached per
// (url, strategy) so repeated audits of an origin reuse the lab run.
func (c *Client) Analyze(ctx context.Context, pageURL, strategy string) (*model.StrategyResult, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	cacheKey := "pagespeed|" + pageURL + "|" + strategy
	if hit, found := cache.Store.Get(cacheKey); found {
		if res, ok := hit.(*model.StrategyResult); ok {
			return res, nil
		}
	}

	q := url.Values{}
	q.Set("url", pageURL)
	q.Set("strategy", strategy)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building pagespeed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagespeed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pagespeed returned HTTP %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing pagespeed response: %w", err)
	}

	result := &model.StrategyResult{
		Score:         parsed.LighthouseResult.Categories.Performance.Score,
		Opportunities: opportunities(parsed),
	}
	cache.Store.Set(cacheKey, result, gocache.DefaultExpiration)

	log.Logger.Debug("pagespeed analyzed",
		zap.String("url", pageURL),
		zap.String("strategy", strategy),
		zap.Float64("score", result.Score),
	)

	return result, nil
}

// Report runs both strategies concurrently and joins them. A failed strategy
// is logged and left nil; a missing key skips the calls entirely.
func (c *Client) Report(ctx context.Context, pageURL string) *model.PageSpeedReport {
	if c.apiKey == "" {
		return &model.PageSpeedReport{SkippedReason: "no api key"}
	}

	report := &model.PageSpeedReport{}
	var wg sync.WaitGroup
	wg.Add(2)

	run := func(strategy string, slot **model.StrategyResult) {
		defer wg.Done()
		res, err := c.Analyze(ctx, pageURL, strategy)
		if err != nil {
			log.Logger.Warn("pagespeed strategy failed",
				zap.String("url", pageURL),
				zap.String("strategy", strategy),
				zap.Error(err),
			)
			return
		}
		*slot = res
	}

	go run(StrategyMobile, &report.Mobile)
	go run(StrategyDesktop, &report.Desktop)
	wg.Wait()

	return report
}

// opportunities collects the titles of audits that scored below the cutoff.
// Sorted because the audits arrive as a map.
func opportunities(parsed apiResponse) []string {
	var titles []string
	for _, audit := range parsed.LighthouseResult.Audits {
		if audit.Score == nil || audit.Title == "" {
			continue
		}
		if *audit.Score < opportunityCutoff {
			titles = append(titles, audit.Title)
		}
	}
	sort.Strings(titles)
	return titles
}
