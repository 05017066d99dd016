package models

import (
	"time"

	"github.com/google/uuid"
)

// Totals aggregates the additive metrics of a group of classrooms.
type Totals struct {
	Capacity           int `bson:"capacity" json:"capacity"`
	NewEnrollees       int `bson:"new_enrollees" json:"new_enrollees"`
	ReturningEnrollees int `bson:"returning_enrollees" json:"returning_enrollees"`
	EnrolledTotal      int `bson:"enrolled_total" json:"enrolled_total"`
	Available          int `bson:"available" json:"available"`
}

// AddRecord accumulates a classroom into the totals.
func (t *Totals) AddRecord(r ClassroomRecord) {
	t.Capacity += r.Capacity
	t.NewEnrollees += r.NewEnrollees
	t.ReturningEnrollees += r.ReturningEnrollees
	t.EnrolledTotal += r.EnrolledTotal
	t.Available += r.Available
}

// Add accumulates another totals value.
func (t *Totals) Add(o Totals) {
	t.Capacity += o.Capacity
	t.NewEnrollees += o.NewEnrollees
	t.ReturningEnrollees += o.ReturningEnrollees
	t.EnrolledTotal += o.EnrolledTotal
	t.Available += o.Available
}

// Occupancy returns enrolled over capacity as a percentage, or 0 without capacity.
func (t Totals) Occupancy() float64 {
	if t.Capacity <= 0 {
		return 0
	}
	return float64(t.EnrolledTotal) / float64(t.Capacity) * 100
}

// UnitSummary is the per-unit rollup of a run.
type UnitSummary struct {
	Code     string             `bson:"code" json:"code"`
	Name     string             `bson:"name" json:"name"`
	Segments map[Segment]Totals `bson:"segments" json:"segments"`
	Total    Totals             `bson:"total" json:"total"`
	Error    string             `bson:"error,omitempty" json:"error,omitempty"`
}

// Summary is the pre-aggregated view of an ExtractionRun.
type Summary struct {
	RunID       uuid.UUID     `bson:"-" json:"run_id"`
	ExtractedAt time.Time     `bson:"extraction_timestamp" json:"extraction_timestamp"`
	PeriodLabel string        `bson:"period_label" json:"period_label"`
	Units       []UnitSummary `bson:"units" json:"units"`
	GrandTotal  Totals        `bson:"grand_total" json:"grand_total"`
}
