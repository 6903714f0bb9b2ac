package schema

import (
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

func TestMain(m *testing.M) {
	log.Logger, _ = zap.NewDevelopment()
	os.Exit(m.Run())
}

func parseDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("failed to parse markup: %v", err)
	}
	return doc
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		markup      string
		wantRecords int
	}{
		{
			name: "single object",
			markup: `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@type":"Organization","name":"Acme"}
			</script></head></html>`,
			wantRecords: 1,
		},
		{
			name: "one valid one malformed keeps the valid one",
			markup: `<html><head>
				<script type="application/ld+json">{"@type":"Organization","name":"Acme"}</script>
				<script type="application/ld+json">{"@type": broken}</script>
			</head></html>`,
			wantRecords: 1,
		},
		{
			name: "top-level array flattened",
			markup: `<html><head><script type="application/ld+json">
				[{"@type":"WebSite"},{"@type":"Organization"}]
			</script></head></html>`,
			wantRecords: 2,
		},
		{
			name: "graph members lifted",
			markup: `<html><head><script type="application/ld+json">
				{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"Organization"}]}
			</script></head></html>`,
			wantRecords: 2,
		},
		{
			name:        "no blocks",
			markup:      `<html><head><script>var x = 1;</script></head></html>`,
			wantRecords: 0,
		},
		{
			name:        "empty block skipped",
			markup:      `<html><head><script type="application/ld+json">   </script></head></html>`,
			wantRecords: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := Extract(parseDoc(t, tt.markup))
			if len(records) != tt.wantRecords {
				t.Errorf("Extract() returned %d records, want %d", len(records), tt.wantRecords)
			}
		})
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		name    string
		records []model.StructuredRecord
		want    []string
	}{
		{
			name: "single type",
			records: []model.StructuredRecord{
				{"@type": "Organization"},
			},
			want: []string{"Organization"},
		},
		{
			name: "list-valued type",
			records: []model.StructuredRecord{
				{"@type": []interface{}{"Organization", "LocalBusiness"}},
			},
			want: []string{"Organization", "LocalBusiness"},
		},
		{
			name: "nested types collected",
			records: []model.StructuredRecord{
				{
					"@type": "Organization",
					"address": map[string]interface{}{
						"@type": "PostalAddress",
					},
				},
			},
			want: []string{"Organization", "PostalAddress"},
		},
		{
			name: "duplicates collapsed across records",
			records: []model.StructuredRecord{
				{"@type": "Organization"},
				{"@type": "Organization"},
				{"@type": "WebSite"},
			},
			want: []string{"Organization", "WebSite"},
		},
		{
			name:    "no records",
			records: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Types(tt.records)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Types() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSuggestionsNeverRepeatDetected(t *testing.T) {
	detected := []string{"Organization", "WebSite", "Article"}
	suggestions := Suggestions(detected)

	for _, s := range suggestions {
		for _, d := range detected {
			if s == d {
				t.Errorf("Suggestions() contains already detected type %q", s)
			}
		}
	}
	if len(suggestions) != len(recommendedTypes)-len(detected) {
		t.Errorf("Suggestions() returned %d entries, want %d", len(suggestions), len(recommendedTypes)-len(detected))
	}
}

func TestSuggestionsCap(t *testing.T) {
	suggestions := Suggestions(nil)
	if len(suggestions) > maxSuggestions {
		t.Errorf("Suggestions() returned %d entries, cap is %d", len(suggestions), maxSuggestions)
	}
}
