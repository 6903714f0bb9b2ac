package contacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"siteauditor/internal/fetch"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

func TestMain(m *testing.M) {
	log.Logger, _ = zap.NewDevelopment()
	os.Exit(m.Run())
}

func newTestDiscoverer() *Discoverer {
	return New(fetch.New(5*time.Second, "siteauditor-test/1.0"), 1000)
}

func parseHTML(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func servePages(pages map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if body, ok := pages[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func findContact(contacts []model.Contact, typ model.ContactType, value string) (model.Contact, bool) {
	for _, c := range contacts {
		if c.Type == typ && c.Value == value {
			return c, true
		}
	}
	return model.Contact{}, false
}

func TestDiscoverAnchorContacts(t *testing.T) {
	server := servePages(nil)
	defer server.Close()

	home := parseHTML(t, `<html><body>
		<a href="mailto:Jane@Example.com?subject=Hello">Email us</a>
		<a href="tel:+44 20 7946 0958">Call us</a>
		<a href="/team/jane.vcf">Download card</a>
		<a href="https://calendly.com/jane/intro">Book a call</a>
		<a href="https://www.linkedin.com/company/acme">Follow along</a>
	</body></html>`)

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: home,
	})

	tests := []struct {
		typ        model.ContactType
		value      string
		confidence float64
		context    string
	}{
		{typ: model.ContactEmail, value: "jane@example.com", confidence: 0.9, context: "Email us"},
		{typ: model.ContactPhone, value: "+442079460958", confidence: 0.8, context: "Call us"},
		{typ: model.ContactVCard, value: server.URL + "/team/jane.vcf", confidence: 0.85, context: "Download card"},
		{typ: model.ContactCalendly, value: "https://calendly.com/jane/intro", confidence: 0.85, context: "Book a call"},
		{typ: model.ContactLinkedIn, value: "https://www.linkedin.com/company/acme", confidence: 0.7, context: "Follow along"},
	}
	for _, tt := range tests {
		got, ok := findContact(report.Contacts, tt.typ, tt.value)
		if !ok {
			t.Errorf("contact (%s, %q) not found in %+v", tt.typ, tt.value, report.Contacts)
			continue
		}
		if got.Confidence != tt.confidence {
			t.Errorf("contact (%s, %q) confidence = %v, want %v", tt.typ, tt.value, got.Confidence, tt.confidence)
		}
		if got.Context != tt.context {
			t.Errorf("contact (%s, %q) context = %q, want %q", tt.typ, tt.value, got.Context, tt.context)
		}
	}
}

func TestDiscoverTextEmailDeobfuscated(t *testing.T) {
	server := servePages(nil)
	defer server.Close()

	home := parseHTML(t, `<html><body><p>Reach Jane at jane [at] example [dot] com for details.</p></body></html>`)

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: home,
	})

	got, ok := findContact(report.Contacts, model.ContactEmail, "jane@example.com")
	if !ok {
		t.Fatalf("de-obfuscated email not found in %+v", report.Contacts)
	}
	if got.Confidence != 0.6 {
		t.Errorf("text email confidence = %v, want 0.6", got.Confidence)
	}
}

func TestDiscoverTextPhone(t *testing.T) {
	server := servePages(nil)
	defer server.Close()

	home := parseHTML(t, `<html><body>
		<p>Office: +44 20 7946 0958</p>
		<p>Suite 12-34</p>
	</body></html>`)

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: home,
	})

	got, ok := findContact(report.Contacts, model.ContactPhone, "+442079460958")
	if !ok {
		t.Fatalf("text phone not found in %+v", report.Contacts)
	}
	if got.Confidence != 0.5 {
		t.Errorf("text phone confidence = %v, want 0.5", got.Confidence)
	}
	for _, c := range report.Contacts {
		if c.Type == model.ContactPhone && c.Value != "+442079460958" {
			t.Errorf("short digit run surfaced as phone contact: %+v", c)
		}
	}
}

func TestDiscoverDedupKeepsFirstSlotHighestConfidence(t *testing.T) {
	server := servePages(map[string]string{
		"/contact": `<html><body><a href="mailto:jane@example.com">Write to Jane</a></body></html>`,
	})
	defer server.Close()

	home := parseHTML(t, `<html><body><p>Questions? Try JANE@example.com first.</p></body></html>`)

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: home,
	})

	var emails []model.Contact
	for _, c := range report.Contacts {
		if c.Type == model.ContactEmail {
			emails = append(emails, c)
		}
	}
	if len(emails) != 1 {
		t.Fatalf("got %d email contacts, want 1 after dedup: %+v", len(emails), emails)
	}
	if emails[0].Confidence != 0.9 {
		t.Errorf("deduped email confidence = %v, want the mailto 0.9", emails[0].Confidence)
	}
	if len(report.Contacts) == 0 || report.Contacts[0].Type != model.ContactEmail {
		t.Errorf("deduped email lost its first-seen position: %+v", report.Contacts)
	}
}

func TestDiscoverBestCandidate(t *testing.T) {
	tests := []struct {
		name      string
		markup    string
		wantType  model.ContactType
		wantValue string
	}{
		{
			name:      "calendly beats text email",
			markup:    `<html><body><p>mail me: jane [at] example [dot] com</p><a href="https://calendly.com/jane/intro">Book</a></body></html>`,
			wantType:  model.ContactCalendly,
			wantValue: "https://calendly.com/jane/intro",
		},
		{
			name:      "mailto beats calendly",
			markup:    `<html><body><a href="https://calendly.com/jane/intro">Book</a><a href="mailto:jane@example.com">Mail</a></body></html>`,
			wantType:  model.ContactEmail,
			wantValue: "jane@example.com",
		},
		{
			name:      "tie broken by first seen",
			markup:    `<html><body><a href="mailto:first@example.com">A</a><a href="mailto:second@example.com">B</a></body></html>`,
			wantType:  model.ContactEmail,
			wantValue: "first@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := servePages(nil)
			defer server.Close()

			report := newTestDiscoverer().Discover(context.Background(), Input{
				Origin:  server.URL,
				HomeURL: server.URL + "/",
				HomeDoc: parseHTML(t, tt.markup),
			})

			if report.Best == nil {
				t.Fatal("Best = nil, want a candidate")
			}
			if report.Best.Type != tt.wantType || report.Best.Value != tt.wantValue {
				t.Errorf("Best = (%s, %q), want (%s, %q)", report.Best.Type, report.Best.Value, tt.wantType, tt.wantValue)
			}
		})
	}
}

func TestDiscoverBestNilWithoutEmailOrCalendly(t *testing.T) {
	server := servePages(nil)
	defer server.Close()

	home := parseHTML(t, `<html><body>
		<a href="tel:+442079460958">Call</a>
		<a href="https://www.linkedin.com/company/acme">LinkedIn</a>
	</body></html>`)

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: home,
	})

	if report.Best != nil {
		t.Errorf("Best = %+v, want nil without email or scheduling contacts", report.Best)
	}
}

func TestDiscoverCrawlRequestCap(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: parseHTML(t, "<html><body></body></html>"),
	})

	want := []string{"/contact", "/about", "/team", "/company", "/leadership", "/press"}
	if len(paths) != len(want) {
		t.Fatalf("crawled %d paths %v, want the capped %d %v", len(paths), paths, len(want), want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("crawl order[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestDiscoverScansCrawledPages(t *testing.T) {
	server := servePages(map[string]string{
		"/team": `<html><body><a href="mailto:team@example.com">The team</a></body></html>`,
	})
	defer server.Close()

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: parseHTML(t, "<html><body></body></html>"),
	})

	got, ok := findContact(report.Contacts, model.ContactEmail, "team@example.com")
	if !ok {
		t.Fatalf("crawled page contact not found in %+v", report.Contacts)
	}
	if !strings.HasSuffix(got.SourceURL, "/team") {
		t.Errorf("contact source = %q, want the /team page", got.SourceURL)
	}
}

func TestDiscoverContactPoints(t *testing.T) {
	server := servePages(nil)
	defer server.Close()

	records := []model.StructuredRecord{
		{
			"@type": "Organization",
			"contactPoint": []interface{}{
				map[string]interface{}{
					"contactType": "sales",
					"email":       "mailto:Sales@Acme.com",
					"telephone":   "+1 (212) 555-0100",
				},
			},
		},
		{
			"@type":        "Person",
			"contactPoint": map[string]interface{}{"email": "person@acme.com"},
		},
	}

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  server.URL,
		HomeURL: server.URL + "/",
		HomeDoc: parseHTML(t, "<html><body></body></html>"),
		Records: records,
	})

	email, ok := findContact(report.Contacts, model.ContactEmail, "sales@acme.com")
	if !ok {
		t.Fatalf("contactPoint email not found in %+v", report.Contacts)
	}
	if email.Confidence != 0.85 || email.Context != "sales" {
		t.Errorf("contactPoint email = %+v, want confidence 0.85 and context sales", email)
	}

	phone, ok := findContact(report.Contacts, model.ContactPhone, "+12125550100")
	if !ok {
		t.Fatalf("contactPoint phone not found in %+v", report.Contacts)
	}
	if phone.Confidence != 0.8 {
		t.Errorf("contactPoint phone confidence = %v, want 0.8", phone.Confidence)
	}

	if _, ok := findContact(report.Contacts, model.ContactEmail, "person@acme.com"); ok {
		t.Error("non-organization contactPoint surfaced a contact")
	}
}

func TestDiscoverTolerantOfUnreachableCrawl(t *testing.T) {
	server := servePages(nil)
	origin := server.URL
	server.Close()

	home := parseHTML(t, `<html><body><a href="mailto:jane@example.com">Mail</a></body></html>`)

	report := newTestDiscoverer().Discover(context.Background(), Input{
		Origin:  origin,
		HomeURL: origin + "/",
		HomeDoc: home,
	})

	if _, ok := findContact(report.Contacts, model.ContactEmail, "jane@example.com"); !ok {
		t.Errorf("home contact lost when crawl is unreachable: %+v", report.Contacts)
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "+44 20 7946 0958", want: "+442079460958"},
		{raw: "(212) 555-0100", want: "2125550100"},
		{raw: "+1.212.555.0100", want: "+12125550100"},
		{raw: "call me", want: ""},
		{raw: "+", want: ""},
	}

	for _, tt := range tests {
		if got := normalizePhone(tt.raw); got != tt.want {
			t.Errorf("normalizePhone(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestDeobfuscateEmail(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "jane [at] example [dot] com", want: "jane@example.com"},
		{raw: "Jane(at)Example(dot)Com", want: "jane@example.com"},
		{raw: "jane@example.com", want: "jane@example.com"},
	}

	for _, tt := range tests {
		if got := deobfuscateEmail(tt.raw); got != tt.want {
			t.Errorf("deobfuscateEmail(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
