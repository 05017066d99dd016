// Package aggregation rolls extracted classrooms up per segment, per unit and
// across the whole run.
package aggregation

import (
	"github.com/colegioelo/vagas/internal/domain/models"
)

// Summarize builds the summary view of a run. Sums are independent of classroom
// order; units keep the run order.
func Summarize(run models.ExtractionRun) models.Summary {
	summary := models.Summary{
		RunID:       run.RunID,
		ExtractedAt: run.ExtractedAt,
		PeriodLabel: run.PeriodLabel,
		Units:       make([]models.UnitSummary, 0, len(run.Units)),
	}

	for _, unit := range run.Units {
		unitSummary := SummarizeUnit(unit)
		summary.GrandTotal.Add(unitSummary.Total)
		summary.Units = append(summary.Units, unitSummary)
	}

	return summary
}

// SummarizeUnit groups one unit's classrooms by segment. Error placeholders come
// back empty with their error marker.
func SummarizeUnit(unit models.UnitSnapshot) models.UnitSummary {
	result := models.UnitSummary{
		Code:     unit.Code,
		Name:     unit.Name,
		Segments: map[models.Segment]models.Totals{},
		Error:    unit.Error,
	}
	if unit.Failed() {
		return result
	}

	for _, record := range unit.Classrooms {
		totals := result.Segments[record.Segment]
		totals.AddRecord(record)
		result.Segments[record.Segment] = totals
		result.Total.AddRecord(record)
	}

	return result
}
