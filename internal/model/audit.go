package model

import "time"

type IssueStatus string

const (
	StatusPass IssueStatus = "pass"
	StatusWarn IssueStatus = "warn"
	StatusFail IssueStatus = "fail"
)

const (
	CategoryTechnicalSEO = "technical_seo"
	CategoryOnpageSEO    = "onpage_seo"
	CategoryEntityTrust  = "entity_trust"
	CategoryHygiene      = "hygiene"
)

// Issue is the outcome of one check against one page. Details carries the
// measured values the status was derived from (lengths, counts, fractions).
type Issue struct {
	ID       string                 `json:"id"`
	Status   IssueStatus            `json:"status"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Fix      string                 `json:"fix,omitempty"`
	Page     string                 `json:"page"`
	Category string                 `json:"category"`
}

type CategoryScore struct {
	ID       string `json:"id"`
	Score    int    `json:"score"`
	Weighted int    `json:"weighted"`
}

type AuditSummary struct {
	Overall int    `json:"overall"`
	Grade   string `json:"grade"`
}

type ContactType string

const (
	ContactEmail    ContactType = "email"
	ContactPhone    ContactType = "phone"
	ContactLinkedIn ContactType = "linkedin"
	ContactCalendly ContactType = "calendly"
	ContactVCard    ContactType = "vcard"
)

type Contact struct {
	Type       ContactType `json:"type"`
	Value      string      `json:"value"`
	SourceURL  string      `json:"source_url"`
	Context    string      `json:"context,omitempty"`
	Confidence float64     `json:"confidence"`
}

type OwnerCandidate struct {
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Source     string  `json:"source"`
	SourceURL  string  `json:"source_url,omitempty"`
	Confidence float64 `json:"confidence"`
}

type CoreFile struct {
	Present      bool   `json:"present"`
	URL          string `json:"url,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

type CoreFiles struct {
	Robots  CoreFile `json:"robots"`
	Sitemap CoreFile `json:"sitemap"`
	LLMsTxt bool     `json:"llms_txt"`
}

// StructuredRecord is one parsed JSON-LD object. Nested shape is preserved
// as decoded, so consumers walk it generically.
type StructuredRecord map[string]interface{}

type SchemaReport struct {
	DetectedTypes []string `json:"detected_types"`
	Suggestions   []string `json:"suggestions"`
}

type StrategyResult struct {
	Score         float64  `json:"score"`
	Opportunities []string `json:"opportunities,omitempty"`
}

// PageSpeedReport carries per-strategy lab results. A nil strategy means
// that run failed; SkippedReason is set when no call was attempted at all.
type PageSpeedReport struct {
	Mobile        *StrategyResult `json:"mobile,omitempty"`
	Desktop       *StrategyResult `json:"desktop,omitempty"`
	SkippedReason string          `json:"skipped_reason,omitempty"`
}

type ContactsReport struct {
	Contacts        []Contact        `json:"contacts"`
	Best            *Contact         `json:"best,omitempty"`
	OwnerCandidates []OwnerCandidate `json:"owner_candidates,omitempty"`
}

type AuditResult struct {
	AuditID     string           `json:"audit_id"`
	Target      string           `json:"target"`
	GeneratedAt time.Time        `json:"generated_at"`
	Summary     AuditSummary     `json:"summary"`
	Categories  []CategoryScore  `json:"categories"`
	Issues      []Issue          `json:"issues"`
	Files       CoreFiles        `json:"files"`
	Schema      SchemaReport     `json:"schema"`
	PageSpeed   *PageSpeedReport `json:"pagespeed,omitempty"`
	Contacts    ContactsReport   `json:"contacts"`
}

// Outcome is one origin's slot in a batch response: exactly one of Result
// or Error is set. A failed origin never fails the batch around it.
type Outcome struct {
	Target string       `json:"target"`
	Result *AuditResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}
