package schema

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"siteauditor/internal/log"
	"siteauditor/internal/model"
)

// recommendedTypes is the fixed list suggestions are drawn from.
var recommendedTypes = []string{
	"Organization",
	"LocalBusiness",
	"WebSite",
	"WebPage",
	"BreadcrumbList",
	"Article",
	"Product",
	"FAQPage",
	"Person",
	"Service",
}

const maxSuggestions = 10

// Extract parses every JSON-LD island in the document independently. A
// malformed block is dropped so it never hides the remaining blocks.
func Extract(doc *goquery.Document) []model.StructuredRecord {
	var records []model.StructuredRecord
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		records = append(records, parseBlock(raw)...)
	})
	return records
}

// parseBlock accepts a single object or a top-level array of objects.
func parseBlock(raw string) []model.StructuredRecord {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return expandGraph(obj)
	}

	var list []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		var out []model.StructuredRecord
		for _, o := range list {
			out = append(out, expandGraph(o)...)
		}
		return out
	}

	log.Logger.Debug("skipping malformed structured-data block", zap.Int("bytes", len(raw)))
	return nil
}

// expandGraph lifts @graph members to top-level records. The container
// itself is kept only when it declares a type of its own.
func expandGraph(obj map[string]interface{}) []model.StructuredRecord {
	graph, ok := obj["@graph"].([]interface{})
	if !ok {
		return []model.StructuredRecord{model.StructuredRecord(obj)}
	}

	var out []model.StructuredRecord
	if _, typed := obj["@type"]; typed {
		out = append(out, model.StructuredRecord(obj))
	}
	for _, item := range graph {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, model.StructuredRecord(m))
		}
	}
	return out
}

// Types walks every record's full nested structure and collects declared
// @type values, single or list-valued, deduplicated in first-seen order.
// Map keys are visited sorted so the result is stable across runs.
func Types(records []model.StructuredRecord) []string {
	seen := make(map[string]bool)
	var types []string

	add := func(v interface{}) {
		s, ok := v.(string)
		if !ok || s == "" {
			return
		}
		if !seen[s] {
			seen[s] = true
			types = append(types, s)
		}
	}

	var walk func(v interface{})
	walk = func(v interface{}) {
		switch node := v.(type) {
		case map[string]interface{}:
			if tv, ok := node["@type"]; ok {
				if list, ok := tv.([]interface{}); ok {
					for _, e := range list {
						add(e)
					}
				} else {
					add(tv)
				}
			}
			keys := make([]string, 0, len(node))
			for k := range node {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if k == "@type" {
					continue
				}
				walk(node[k])
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
	return types
}

// Suggestions returns recommended types not already detected, capped at 10.
func Suggestions(detected []string) []string {
	have := make(map[string]bool, len(detected))
	for _, t := range detected {
		have[t] = true
	}

	suggestions := []string{}
	for _, t := range recommendedTypes {
		if have[t] {
			continue
		}
		suggestions = append(suggestions, t)
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	return suggestions
}
