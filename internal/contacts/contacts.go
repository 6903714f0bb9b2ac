package contacts

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
	"siteauditor/internal/fetch"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
	"siteauditor/internal/util/htmlutil"
)

// crawlPaths are tried in order until the request cap is hit. The order is
// part of the contract: earlier paths are more likely to carry contacts.
var crawlPaths = []string{
	"/contact",
	"/about",
	"/team",
	"/company",
	"/leadership",
	"/press",
	"/privacy",
	"/careers",
}

// maxCrawlRequests caps path fetches per origin. The home page is scanned
// from the document the caller already fetched and does not count.
const maxCrawlRequests = 6

const (
	confMailto      = 0.9
	confVCard       = 0.85
	confCalendly    = 0.85
	confSchemaEmail = 0.85
	confTelAnchor   = 0.8
	confSchemaPhone = 0.8
	confLinkedIn    = 0.7
	confTextEmail   = 0.6
	confTextPhone   = 0.5
)

var (
	emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+-]+\s*(?:@|\[at\]|\(at\))\s*[a-z0-9-]+(?:\s*(?:\.|\[dot\]|\(dot\))\s*[a-z0-9-]+)*\s*(?:\.|\[dot\]|\(dot\))\s*[a-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\(?\d[\d\s().-]{6,}\d`)
)

type Discoverer struct {
	fetcher *fetch.Fetcher
	limiter *rate.Limiter
}

func New(fetcher *fetch.Fetcher, rps float64) *Discoverer {
	if rps <= 0 {
		rps = 4
	}
	return &Discoverer{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Input carries the already-fetched home page so discovery never refetches it.
type Input struct {
	Origin  string
	HomeURL string
	HomeDoc *goquery.Document
	Records []model.StructuredRecord
}

// Discover scans the home page and a bounded crawl of high-signal paths for
// contact entities. Every path fetch is tolerant: absence or failure just
// means that page contributes nothing.
func (d *Discoverer) Discover(ctx context.Context, in Input) model.ContactsReport {
	col := newCollector()

	if in.HomeDoc != nil {
		scanAnchors(in.HomeDoc, in.HomeURL, col)
		scanText(in.HomeDoc, in.HomeURL, col)
	}
	scanContactPoints(in.Records, in.HomeURL, col)

	base := strings.TrimSuffix(in.Origin, "/")
	requests := 0
	for _, path := range crawlPaths {
		if requests >= maxCrawlRequests {
			break
		}
		requests++

		if err := d.limiter.Wait(ctx); err != nil {
			break
		}
		res, err := d.fetcher.Fetch(ctx, base+path)
		if err != nil {
			log.Logger.Debug("contact crawl fetch failed", zap.String("path", path), zap.Error(err))
			continue
		}
		if !res.OK {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Body))
		if err != nil {
			log.Logger.Debug("contact crawl parse failed", zap.String("url", res.URL), zap.Error(err))
			continue
		}
		scanAnchors(doc, res.URL, col)
		scanText(doc, res.URL, col)
	}

	return model.ContactsReport{
		Contacts: col.contacts,
		Best:     bestContact(col.contacts),
	}
}

// collector deduplicates by (type, normalized value): a contact keeps its
// first-seen position, a later higher-confidence sighting replaces the payload.
type collector struct {
	contacts []model.Contact
	index    map[string]int
}

func newCollector() *collector {
	return &collector{contacts: []model.Contact{}, index: make(map[string]int)}
}

func (c *collector) add(contact model.Contact) {
	key := string(contact.Type) + "|" + contact.Value
	if i, ok := c.index[key]; ok {
		if contact.Confidence > c.contacts[i].Confidence {
			c.contacts[i] = contact
		}
		return
	}
	c.index[key] = len(c.contacts)
	c.contacts = append(c.contacts, contact)
}

// bestContact picks the highest-confidence email or scheduling link,
// first-seen winning ties. Nil when neither type was found.
func bestContact(contacts []model.Contact) *model.Contact {
	var best *model.Contact
	for i := range contacts {
		c := &contacts[i]
		if c.Type != model.ContactEmail && c.Type != model.ContactCalendly {
			continue
		}
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

func scanAnchors(doc *goquery.Document, pageURL string, col *collector) {
	base, _ := url.Parse(pageURL)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		label := strings.Join(strings.Fields(s.Text()), " ")

		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			addr := strings.SplitN(href[len("mailto:"):], "?", 2)[0]
			addr = strings.ToLower(strings.TrimSpace(addr))
			if addr != "" {
				col.add(model.Contact{Type: model.ContactEmail, Value: addr, SourceURL: pageURL, Context: label, Confidence: confMailto})
			}
			return
		case strings.HasPrefix(lower, "tel:"):
			if num := normalizePhone(href[len("tel:"):]); num != "" {
				col.add(model.Contact{Type: model.ContactPhone, Value: num, SourceURL: pageURL, Context: label, Confidence: confTelAnchor})
			}
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := ref
		if base != nil {
			abs = base.ResolveReference(ref)
		}

		switch {
		case strings.HasSuffix(strings.ToLower(abs.Path), ".vcf"):
			col.add(model.Contact{Type: model.ContactVCard, Value: abs.String(), SourceURL: pageURL, Context: label, Confidence: confVCard})
		case hostMatches(abs, "calendly.com"):
			col.add(model.Contact{Type: model.ContactCalendly, Value: abs.String(), SourceURL: pageURL, Context: label, Confidence: confCalendly})
		case hostMatches(abs, "linkedin.com"):
			col.add(model.Contact{Type: model.ContactLinkedIn, Value: abs.String(), SourceURL: pageURL, Context: label, Confidence: confLinkedIn})
		}
	})
}

func scanText(doc *goquery.Document, pageURL string, col *collector) {
	if len(doc.Nodes) == 0 {
		return
	}
	text := htmlutil.VisibleText(doc.Nodes[0])

	for _, m := range emailPattern.FindAllString(text, -1) {
		col.add(model.Contact{Type: model.ContactEmail, Value: deobfuscateEmail(m), SourceURL: pageURL, Confidence: confTextEmail})
	}
	for _, m := range phonePattern.FindAllString(text, -1) {
		num := normalizePhone(m)
		digits := countDigits(num)
		if digits < 8 || digits > 15 {
			continue
		}
		col.add(model.Contact{Type: model.ContactPhone, Value: num, SourceURL: pageURL, Confidence: confTextPhone})
	}
}

// scanContactPoints pulls explicit email/phone declarations out of
// Organization structured data on the home page.
func scanContactPoints(records []model.StructuredRecord, pageURL string, col *collector) {
	for _, rec := range records {
		if !isOrganizationType(rec["@type"]) {
			continue
		}
		for _, cp := range contactPointList(rec["contactPoint"]) {
			label, _ := cp["contactType"].(string)
			if email, ok := cp["email"].(string); ok {
				addr := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(email, "mailto:")))
				if addr != "" {
					col.add(model.Contact{Type: model.ContactEmail, Value: addr, SourceURL: pageURL, Context: label, Confidence: confSchemaEmail})
				}
			}
			if tel, ok := cp["telephone"].(string); ok {
				if num := normalizePhone(tel); num != "" {
					col.add(model.Contact{Type: model.ContactPhone, Value: num, SourceURL: pageURL, Context: label, Confidence: confSchemaPhone})
				}
			}
		}
	}
}

func isOrganizationType(v interface{}) bool {
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

func contactPointList(v interface{}) []map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{t}
	case []interface{}:
		var out []map[string]interface{}
		for _, e := range t {
			if m, ok := e.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

func hostMatches(u *url.URL, domain string) bool {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return false
	}
	return registrable == domain
}

func deobfuscateEmail(raw string) string {
	s := strings.ToLower(raw)
	for _, marker := range []string{"[at]", "(at)"} {
		s = strings.ReplaceAll(s, marker, "@")
	}
	for _, marker := range []string{"[dot]", "(dot)"} {
		s = strings.ReplaceAll(s, marker, ".")
	}
	return strings.Join(strings.Fields(s), "")
}

// normalizePhone strips formatting down to digits, keeping a leading plus.
func normalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range trimmed {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.TrimPrefix(s, "+") == "" {
		return ""
	}
	return s
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
