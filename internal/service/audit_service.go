package service

import (
	"fmt"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/net/context"
	"siteauditor/internal/client/companieshouse"
	"siteauditor/internal/client/pagespeed"
	"siteauditor/internal/config"
	"siteauditor/internal/contacts"
	"siteauditor/internal/fetch"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
	"siteauditor/internal/probe"
	"siteauditor/internal/schema"
	"siteauditor/internal/scoring"
	"siteauditor/internal/signals"
	"strings"
	"sync"
	"time"
)

var (
	auditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audits_total",
			Help: "Total number of origin audits by outcome",
		},
		[]string{"status"},
	)

	auditDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audit_duration_seconds",
			Help:    "Duration of one origin audit in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(auditsTotal, auditDuration)
}

// Options are the per-request knobs of one audit.
type Options struct {
	Enrichment bool `json:"enrichment"`
}

type Service struct {
	fetcher    *fetch.Fetcher
	prober     *probe.Prober
	discoverer *contacts.Discoverer
	pagespeed  *pagespeed.Client
	registry   *companieshouse.Client
	weights    scoring.Config
}

func New(cfg *config.Config) *Service {
	fetcher := fetch.New(time.Duration(cfg.FetchTimeoutSeconds)*time.Second, cfg.UserAgent)
	return &Service{
		fetcher:    fetcher,
		prober:     probe.New(fetcher),
		discoverer: contacts.New(fetcher, cfg.CrawlRPS),
		pagespeed:  pagespeed.New(cfg.PageSpeedAPIKey),
		registry:   companieshouse.New(cfg.CompaniesHouseAPIKey),
		weights:    scoring.Default(),
	}
}

// AuditOne normalizes a single user-supplied URL and audits its origin.
func (s *Service) AuditOne(ctx context.Context, raw string, opts Options) (*model.AuditResult, error) {
	origin, err := NormalizeOrigin(raw)
	if err != nil {
		return nil, err
	}
	return s.AuditOrigin(ctx, origin, opts)
}

// AuditBatch audits every valid origin in inputs concurrently. Each entry
// gets its own outcome slot: one origin failing never fails its neighbours.
// Only a batch with no valid origin at all is an error.
func (s *Service) AuditBatch(ctx context.Context, inputs []string, opts Options) ([]model.Outcome, error) {
	entries := normalizeBatch(inputs)

	valid := 0
	for _, e := range entries {
		if e.err == nil {
			valid++
		}
	}
	if valid == 0 {
		return nil, ErrEmptyBatch
	}

	outcomes := make([]model.Outcome, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		outcomes[i].Target = entry.target
		if entry.err != nil {
			outcomes[i].Error = entry.err.Error()
			continue
		}
		wg.Add(1)
		go func(slot *model.Outcome, origin string) {
			defer wg.Done()
			result, err := s.AuditOrigin(ctx, origin, opts)
			if err != nil {
				slot.Error = err.Error()
				return
			}
			slot.Result = result
		}(&outcomes[i], entry.origin)
	}
	wg.Wait()

	log.Logger.Info("batch audited",
		zap.Int("requested", len(inputs)),
		zap.Int("audited", valid),
	)

	return outcomes, nil
}

// AuditOrigin runs the full pipeline against one already-normalized origin.
func (s *Service) AuditOrigin(ctx context.Context, origin string, opts Options) (*model.AuditResult, error) {
	start := time.Now()
	result, err := s.auditOrigin(ctx, origin, opts)

	status := "ok"
	if err != nil {
		status = "error"
		log.Logger.Warn("audit failed",
			zap.String("origin", origin),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
	} else {
		log.Logger.Info("audit completed",
			zap.String("origin", origin),
			zap.Int("overall", result.Summary.Overall),
			zap.String("grade", result.Summary.Grade),
			zap.Duration("duration", time.Since(start)),
		)
	}
	auditsTotal.WithLabelValues(status).Inc()
	auditDuration.Observe(time.Since(start).Seconds())

	return result, err
}

func (s *Service) auditOrigin(ctx context.Context, origin string, opts Options) (*model.AuditResult, error) {
	res, err := s.fetcher.Fetch(ctx, origin)
	if err != nil {
		// double wrap keeps context.DeadlineExceeded reachable for errors.Is
		return nil, fmt.Errorf("%w: %w", ErrHomeUnreachable, err)
	}
	if !res.OK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrHomeUnreachable, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable markup: %v", ErrHomeUnreachable, err)
	}

	records := schema.Extract(doc)
	types := schema.Types(records)

	files := s.prober.CoreFiles(ctx, origin)

	sig := signals.Extract(signals.Input{
		Doc:         doc,
		RawHTML:     res.Body,
		Headers:     res.Headers,
		PageURL:     res.URL,
		SchemaTypes: types,
		Records:     records,
		Now:         time.Now(),
	})
	issues := signals.Evaluate(sig)
	summary, categories := scoring.Score(issues, s.weights)

	// both strategies run inside, concurrently, and join here
	speed := s.pagespeed.Report(ctx, origin)

	contactsReport := s.discoverer.Discover(ctx, contacts.Input{
		Origin:  origin,
		HomeURL: res.URL,
		HomeDoc: doc,
		Records: records,
	})

	if opts.Enrichment {
		contactsReport.OwnerCandidates = s.registry.Lookup(ctx, brandName(records, doc))
	}

	return &model.AuditResult{
		AuditID:     uuid.NewString(),
		Target:      origin,
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Categories:  categories,
		Issues:      issues,
		Files:       files,
		Schema: model.SchemaReport{
			DetectedTypes: types,
			Suggestions:   schema.Suggestions(types),
		},
		PageSpeed: speed,
		Contacts:  contactsReport,
	}, nil
}

// brandName guesses the organization name for enrichment: an Organization
// record's declared name wins, else the leading segment of the page title.
func brandName(records []model.StructuredRecord, doc *goquery.Document) string {
	for _, rec := range records {
		if !declaresOrganization(rec["@type"]) {
			continue
		}
		if name, ok := rec["name"].(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, sep := range []string{"|", "–"} {
		if i := strings.Index(title, sep); i >= 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return title
}

func declaresOrganization(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return t == "Organization" || t == "LocalBusiness"
	case []interface{}:
		for _, e := range t {
			if s, ok := e.(string); ok && (s == "Organization" || s == "LocalBusiness") {
				return true
			}
		}
	}
	return false
}
