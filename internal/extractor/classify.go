package extractor

import (
	"strings"

	"github.com/colegioelo/vagas/internal/domain/models"
)

type segmentRule struct {
	segment  models.Segment
	keywords []string
}

// segmentRules are evaluated in order. Second-cycle keywords come before the
// first-cycle ones because "fundamental i" is a prefix of "fundamental ii".
var segmentRules = []segmentRule{
	{segment: models.SegmentEarlyChildhood, keywords: []string{"infantil"}},
	{segment: models.SegmentElementary2, keywords: []string{"fundamental ii", "fundamental 2"}},
	{segment: models.SegmentElementary1, keywords: []string{"fundamental i", "fundamental 1"}},
	{segment: models.SegmentHighSchool, keywords: []string{"médio", "medio"}},
}

// ClassifySegment maps a course label to its grade band.
func ClassifySegment(course string) models.Segment {
	normalized := strings.ToLower(course)
	for _, rule := range segmentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.segment
			}
		}
	}
	return models.SegmentOther
}

// Exclusions matches course or class names that are not academic capacity.
type Exclusions struct {
	keywords []string
}

// NewExclusions normalizes the configured keywords for case-insensitive matching.
func NewExclusions(keywords []string) Exclusions {
	normalized := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if k := strings.ToLower(strings.TrimSpace(keyword)); k != "" {
			normalized = append(normalized, k)
		}
	}
	return Exclusions{keywords: normalized}
}

// Matches reports whether text contains any excluded keyword.
func (e Exclusions) Matches(text string) bool {
	normalized := strings.ToLower(text)
	for _, keyword := range e.keywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

// Excludes reports whether a record must be dropped before aggregation.
func (e Exclusions) Excludes(r models.ClassroomRecord) bool {
	return r.Segment == models.SegmentOther || e.Matches(r.ClassName) || e.Matches(r.Course)
}

// Filter returns the records that survive the exclusion rules, preserving order.
func (e Exclusions) Filter(records []models.ClassroomRecord) []models.ClassroomRecord {
	kept := make([]models.ClassroomRecord, 0, len(records))
	for _, r := range records {
		if !e.Excludes(r) {
			kept = append(kept, r)
		}
	}
	return kept
}
