package companieshouse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"siteauditor/internal/cache"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

// apiBase is the Companies House REST endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://api.company-information.service.gov.uk"

const companyPageBase = "https://find-and-update.company-information.service.gov.uk/company/"

const (
	maxCandidates      = 5
	directorConfidence = 0.75
	officerConfidence  = 0.6
	requestTimeout     = 15 * time.Second
)

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

type searchResponse struct {
	Items []struct {
		Title         string `json:"title"`
		CompanyNumber string `json:"company_number"`
	} `json:"items"`
}

type officersResponse struct {
	Items []struct {
		Name        string `json:"name"`
		OfficerRole string `json:"officer_role"`
		ResignedOn  string `json:"resigned_on"`
	} `json:"items"`
}

// Lookup resolves a free-text company name guess to registered officers.
// It degrades to an empty list on missing key, empty guess, or any API
// failure: enrichment never blocks an audit.
func (c *Client) Lookup(ctx context.Context, nameGuess string) []model.OwnerCandidate {
	name := strings.TrimSpace(nameGuess)
	if c.apiKey == "" || name == "" {
		return nil
	}

	cacheKey := "companieshouse|" + strings.ToLower(name)
	if hit, found := cache.Store.Get(cacheKey); found {
		if candidates, ok := hit.([]model.OwnerCandidate); ok {
			return candidates
		}
	}

	number, err := c.searchCompany(ctx, name)
	if err != nil {
		log.Logger.Warn("companies house search failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	if number == "" {
		return nil
	}

	candidates, err := c.officers(ctx, number)
	if err != nil {
		log.Logger.Warn("companies house officers lookup failed",
			zap.String("company_number", number),
			zap.Error(err),
		)
		return nil
	}

	cache.Store.Set(cacheKey, candidates, gocache.DefaultExpiration)
	return candidates
}

// searchCompany returns the company number of the top search hit, or an
// empty string when nothing matches.
func (c *Client) searchCompany(ctx context.Context, name string) (string, error) {
	var parsed searchResponse
	path := "/search/companies?q=" + url.QueryEscape(name) + "&items_per_page=1"
	if err := c.get(ctx, path, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Items) == 0 {
		return "", nil
	}
	return parsed.Items[0].CompanyNumber, nil
}

func (c *Client) officers(ctx context.Context, number string) ([]model.OwnerCandidate, error) {
	var parsed officersResponse
	if err := c.get(ctx, "/company/"+number+"/officers", &parsed); err != nil {
		return nil, err
	}

	candidates := []model.OwnerCandidate{}
	for _, item := range parsed.Items {
		if item.ResignedOn != "" {
			continue
		}
		confidence := officerConfidence
		if strings.Contains(strings.ToLower(item.OfficerRole), "director") {
			confidence = directorConfidence
		}
		candidates = append(candidates, model.OwnerCandidate{
			Name:       item.Name,
			Title:      item.OfficerRole,
			Source:     "companies_house",
			SourceURL:  companyPageBase + number + "/officers",
			Confidence: confidence,
		})
		if len(candidates) == maxCandidates {
			break
		}
	}
	return candidates, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+path, nil)
	if err != nil {
		return fmt.Errorf("building companies house request: %w", err)
	}
	// the API key travels as the basic-auth username with an empty password
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("companies house request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("companies house returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing companies house response: %w", err)
	}
	return nil
}
