package scoring

import (
	"math"

	"siteauditor/internal/model"
)

var statusValue = map[model.IssueStatus]float64{
	model.StatusPass: 1.0,
	model.StatusWarn: 0.5,
	model.StatusFail: 0.0,
}

// Score aggregates one page's issues into category percentages and the
// weighted overall summary. Pure function of its inputs: no clock, no
// network, no randomness.
func Score(issues []model.Issue, cfg Config) (model.AuditSummary, []model.CategoryScore) {
	byID := make(map[string]model.IssueStatus, len(issues))
	for _, iss := range issues {
		byID[iss.ID] = iss.Status
	}

	categories := make([]model.CategoryScore, 0, len(cfg.Categories))
	var overall float64
	for _, cat := range cfg.Categories {
		var earned, possible float64
		for id, weight := range cat.Checks {
			status, ok := byID[id]
			if !ok {
				// a check that never reported scores as fail
				status = model.StatusFail
			}
			earned += float64(weight) * statusValue[status]
			possible += float64(weight)
		}

		pct := int(math.Round(earned / possible * 100))
		contribution := float64(pct) * float64(cat.Weight) / 100
		overall += contribution

		categories = append(categories, model.CategoryScore{
			ID:       cat.ID,
			Score:    pct,
			Weighted: int(math.Round(contribution)),
		})
	}

	score := int(math.Round(overall))
	return model.AuditSummary{Overall: score, Grade: GradeFor(score)}, categories
}

// GradeFor maps a 0-100 score to its fixed letter grade.
func GradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
