package signals

import (
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
	"siteauditor/internal/model"
	"siteauditor/internal/util/htmlutil"
)

// Input bundles everything extraction reads for one page. Now is passed in
// so the copyright-year measurement stays a pure function of its input.
type Input struct {
	Doc         *goquery.Document
	RawHTML     string
	Headers     http.Header
	PageURL     string
	SchemaTypes []string
	Records     []model.StructuredRecord
	Now         time.Time
}

// Signals is the fixed measurement set the check catalogue judges. Absent
// page features measure as their emptiest value, never as "unknown".
type Signals struct {
	PageURL           string
	TitleLength       int
	DescriptionLength int
	HasViewport       bool
	Canonical         string
	CanonicalSelf     bool
	RobotsBlocked     bool
	H1Count           int
	HierarchyValid    bool
	MissingOpenGraph  []string
	MixedContentCount int
	ImageCount        int
	ImagesMissingAlt  int
	ImagesLazy        int
	ImagesNonGeneric  int
	InternalLinks     int
	AnchorDiversity   float64
	HasDateSignal     bool
	WordCount         int
	HasOrgSchema      bool
	HasNAP            bool
	HasSocialProfile  bool
	HasFavicon        bool
	HasManifest       bool
	HasCharset        bool
	HasHTMLLang       bool
	HasCurrentYear    bool
}

var socialDomains = map[string]bool{
	"facebook.com":  true,
	"twitter.com":   true,
	"x.com":         true,
	"instagram.com": true,
	"linkedin.com":  true,
	"youtube.com":   true,
	"tiktok.com":    true,
	"github.com":    true,
}

// genericFilenamePattern matches camera-default and purely numeric image
// file stems. The rule is load-bearing for scoring; change it and scores
// shift.
var genericFilenamePattern = regexp.MustCompile(`(?i)^(?:\d+|(?:img|image|dsc|dcim|photo|pic|picture|screenshot|untitled)[-_]?\d*)$`)

var requiredOpenGraph = []string{"og:title", "og:description", "og:image"}

func Extract(in Input) Signals {
	sig := Signals{PageURL: in.PageURL, HierarchyValid: true}
	doc := in.Doc
	base, _ := url.Parse(in.PageURL)

	title := strings.TrimSpace(doc.Find("title").First().Text())
	sig.TitleLength = utf8.RuneCountInString(title)

	var (
		description string
		robots      strings.Builder
		ogPresent   = map[string]bool{}
		dateSignal  bool
	)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))

		if _, ok := s.Attr("charset"); ok {
			sig.HasCharset = true
		}
		if strings.EqualFold(s.AttrOr("http-equiv", ""), "content-type") &&
			strings.Contains(strings.ToLower(content), "charset=") {
			sig.HasCharset = true
		}

		switch strings.ToLower(strings.TrimSpace(s.AttrOr("name", ""))) {
		case "description":
			if description == "" {
				description = content
			}
		case "viewport":
			sig.HasViewport = true
		case "robots":
			robots.WriteString(" ")
			robots.WriteString(strings.ToLower(content))
		case "date", "last-modified":
			if content != "" {
				dateSignal = true
			}
		}

		switch prop := strings.ToLower(strings.TrimSpace(s.AttrOr("property", ""))); prop {
		case "og:title", "og:description", "og:image":
			if content != "" {
				ogPresent[prop] = true
			}
		case "article:published_time", "article:modified_time":
			if content != "" {
				dateSignal = true
			}
		}

		switch strings.ToLower(strings.TrimSpace(s.AttrOr("itemprop", ""))) {
		case "datepublished", "datemodified":
			if content != "" {
				dateSignal = true
			}
		}
	})
	sig.DescriptionLength = utf8.RuneCountInString(description)

	robots.WriteString(" ")
	robots.WriteString(strings.ToLower(in.Headers.Get("X-Robots-Tag")))
	directives := robots.String()
	sig.RobotsBlocked = strings.Contains(directives, "noindex") || strings.Contains(directives, "nofollow")

	for _, tag := range requiredOpenGraph {
		if !ogPresent[tag] {
			sig.MissingOpenGraph = append(sig.MissingOpenGraph, tag)
		}
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		canonical := strings.TrimSpace(href)
		if base != nil {
			if ref, err := url.Parse(canonical); err == nil {
				canonical = base.ResolveReference(ref).String()
			}
		}
		sig.Canonical = canonical
		sig.CanonicalSelf = selfReferencing(canonical, in.PageURL)
	}

	prev := 0
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		level := int(name[1] - '0')
		if level == 1 {
			sig.H1Count++
		}
		// first heading has no predecessor and is trivially valid
		if prev != 0 && level > prev+1 {
			sig.HierarchyValid = false
		}
		prev = level
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		sig.ImageCount++
		if _, ok := s.Attr("alt"); !ok {
			sig.ImagesMissingAlt++
		}
		if strings.EqualFold(s.AttrOr("loading", ""), "lazy") {
			sig.ImagesLazy++
		}
		if !genericImageName(s.AttrOr("src", "")) {
			sig.ImagesNonGeneric++
		}
	})

	doc.Find("img, script, link, iframe, source, video, audio, a").Each(func(_ int, s *goquery.Selection) {
		for _, attr := range []string{"src", "href", "srcset"} {
			if v, ok := s.Attr(attr); ok && strings.Contains(v, "http://") {
				sig.MixedContentCount++
			}
		}
	})

	if base != nil {
		anchorTexts := map[string]bool{}
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			ref, err := url.Parse(strings.TrimSpace(s.AttrOr("href", "")))
			if err != nil {
				return
			}
			resolved := base.ResolveReference(ref)
			if !strings.EqualFold(resolved.Host, base.Host) {
				return
			}
			sig.InternalLinks++
			anchorTexts[strings.ToLower(strings.Join(strings.Fields(s.Text()), " "))] = true
		})
		if sig.InternalLinks > 0 {
			sig.AnchorDiversity = float64(len(anchorTexts)) / float64(sig.InternalLinks)
		}
	}

	if doc.Find("time[datetime]").Length() > 0 {
		dateSignal = true
	}
	sig.HasDateSignal = dateSignal

	if len(doc.Nodes) > 0 {
		sig.WordCount = len(strings.Fields(htmlutil.VisibleText(doc.Nodes[0])))
	}

	for _, t := range in.SchemaTypes {
		if t == "Organization" || t == "LocalBusiness" {
			sig.HasOrgSchema = true
			break
		}
	}

	sig.HasNAP = hasNAPSignal(in.Records, doc)
	sig.HasSocialProfile = hasSocialLink(doc) || anySameAsSocial(in.Records)

	doc.Find("link").Each(func(_ int, s *goquery.Selection) {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		switch {
		case strings.Contains(rel, "icon"):
			sig.HasFavicon = true
		case rel == "manifest":
			sig.HasManifest = true
		}
	})
	if !sig.HasFavicon && strings.Contains(in.RawHTML, "favicon.ico") {
		sig.HasFavicon = true
	}

	sig.HasHTMLLang = strings.TrimSpace(doc.Find("html").AttrOr("lang", "")) != ""
	sig.HasCurrentYear = strings.Contains(in.RawHTML, strconv.Itoa(in.Now.Year()))

	return sig
}

// selfReferencing compares canonical and page URL by mutual prefix after
// trimming a trailing slash, so https://example.com and
// https://example.com/ count as the same page.
func selfReferencing(canonical, pageURL string) bool {
	c := strings.TrimSuffix(canonical, "/")
	p := strings.TrimSuffix(pageURL, "/")
	return strings.HasPrefix(c, p) || strings.HasPrefix(p, c)
}

func genericImageName(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return true
	}
	u, err := url.Parse(src)
	if err != nil {
		return true
	}
	stem := strings.TrimSuffix(path.Base(u.Path), path.Ext(u.Path))
	if stem == "" || stem == "." || stem == "/" {
		return true
	}
	return genericFilenamePattern.MatchString(stem)
}

// hasNAPSignal looks for a telephone or structured postal address: a
// telephone/address key or PostalAddress type anywhere in the structured
// data, or a tel: anchor in the markup.
func hasNAPSignal(records []model.StructuredRecord, doc *goquery.Document) bool {
	var found bool
	var walk func(v interface{})
	walk = func(v interface{}) {
		if found {
			return
		}
		switch node := v.(type) {
		case map[string]interface{}:
			if tel, ok := node["telephone"].(string); ok && strings.TrimSpace(tel) != "" {
				found = true
				return
			}
			if _, ok := node["address"]; ok {
				found = true
				return
			}
			if t, ok := node["@type"].(string); ok && t == "PostalAddress" {
				found = true
				return
			}
			for _, val := range node {
				walk(val)
			}
		case []interface{}:
			for _, e := range node {
				walk(e)
			}
		}
	}
	for _, r := range records {
		walk(map[string]interface{}(r))
	}
	if found {
		return true
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(s.AttrOr("href", ""))), "tel:") {
			found = true
			return false
		}
		return true
	})
	return found
}

func hasSocialLink(doc *goquery.Document) bool {
	var found bool
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if IsSocialURL(s.AttrOr("href", "")) {
			found = true
			return false
		}
		return true
	})
	return found
}

func anySameAsSocial(records []model.StructuredRecord) bool {
	var check func(v interface{}) bool
	check = func(v interface{}) bool {
		switch node := v.(type) {
		case map[string]interface{}:
			if sameAs, ok := node["sameAs"]; ok {
				switch sv := sameAs.(type) {
				case string:
					if IsSocialURL(sv) {
						return true
					}
				case []interface{}:
					for _, e := range sv {
						if s, ok := e.(string); ok && IsSocialURL(s) {
							return true
						}
					}
				}
			}
			for _, val := range node {
				if check(val) {
					return true
				}
			}
		case []interface{}:
			for _, e := range node {
				if check(e) {
					return true
				}
			}
		}
		return false
	}
	for _, r := range records {
		if check(map[string]interface{}(r)) {
			return true
		}
	}
	return false
}

// IsSocialURL matches hosts against the known social set by registrable
// domain, so www. and regional subdomains match too.
func IsSocialURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return false
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(u.Hostname()))
	if err != nil {
		return false
	}
	return socialDomains[domain]
}
