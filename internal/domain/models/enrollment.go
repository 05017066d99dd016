package models

import (
	"time"

	"github.com/google/uuid"
)

// Segment identifies the grade band a course belongs to. The values are the labels
// the dashboards group by.
type Segment string

const (
	SegmentEarlyChildhood Segment = "Ed. Infantil"
	SegmentElementary1    Segment = "Fund. I"
	SegmentElementary2    Segment = "Fund. II"
	SegmentHighSchool     Segment = "Ens. Médio"
	SegmentOther          Segment = "Outro"
)

// AcademicSegments lists the aggregated segments in presentation order.
var AcademicSegments = []Segment{
	SegmentEarlyChildhood,
	SegmentElementary1,
	SegmentElementary2,
	SegmentHighSchool,
}

// Valid reports whether s is one of the known segment labels.
func (s Segment) Valid() bool {
	switch s {
	case SegmentEarlyChildhood, SegmentElementary1, SegmentElementary2, SegmentHighSchool, SegmentOther:
		return true
	}
	return false
}

// UnitDescriptor describes one school unit as configured for extraction.
type UnitDescriptor struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
	Code string `validate:"required"`
}

// ClassroomRecord captures one classroom row of the vacancy report.
type ClassroomRecord struct {
	ClassName                 string  `bson:"class_name" json:"class_name"`
	Course                    string  `bson:"course" json:"course"`
	Segment                   Segment `bson:"segment" json:"segment"`
	Capacity                  int     `bson:"capacity" json:"capacity"`
	NewEnrollees              int     `bson:"new_enrollees" json:"new_enrollees"`
	ReturningEnrollees        int     `bson:"returning_enrollees" json:"returning_enrollees"`
	EnrolledTotal             int     `bson:"enrolled_total" json:"enrolled_total"`
	RemainingCapacityReported int     `bson:"remaining_capacity_reported" json:"remaining_capacity_reported"`
	PreEnrolled               int     `bson:"pre_enrolled" json:"pre_enrolled"`
	Available                 int     `bson:"available" json:"available"`
}

// EnrollmentMismatch reports whether the portal's enrolled total disagrees with the
// sum of new and returning enrollees.
func (r ClassroomRecord) EnrollmentMismatch() bool {
	return r.EnrolledTotal != r.NewEnrollees+r.ReturningEnrollees
}

// UnitSnapshot holds every classroom extracted for a unit in one run. A non-empty
// Error marks a placeholder for a unit whose processing failed.
type UnitSnapshot struct {
	Code       string            `bson:"code" json:"code"`
	Name       string            `bson:"name" json:"name"`
	Classrooms []ClassroomRecord `bson:"classrooms" json:"classrooms"`
	Error      string            `bson:"error,omitempty" json:"error,omitempty"`
}

// Failed reports whether the snapshot is an error placeholder.
func (u UnitSnapshot) Failed() bool {
	return u.Error != ""
}

// ExtractionRun is the immutable result of one pass over all configured units.
type ExtractionRun struct {
	RunID       uuid.UUID      `bson:"-" json:"run_id"`
	ExtractedAt time.Time      `bson:"extraction_timestamp" json:"extraction_timestamp"`
	PeriodLabel string         `bson:"period_label" json:"period_label"`
	Units       []UnitSnapshot `bson:"units" json:"units"`
}

// NewExtractionRun starts a run stamped with the provided time.
func NewExtractionRun(extractedAt time.Time, period string) ExtractionRun {
	return ExtractionRun{
		RunID:       uuid.New(),
		ExtractedAt: extractedAt,
		PeriodLabel: period,
		Units:       []UnitSnapshot{},
	}
}

// ClassroomCount returns the number of records across all units.
func (r ExtractionRun) ClassroomCount() int {
	total := 0
	for _, unit := range r.Units {
		total += len(unit.Classrooms)
	}
	return total
}

// FailedUnits returns the codes of units that produced an error placeholder.
func (r ExtractionRun) FailedUnits() []string {
	var codes []string
	for _, unit := range r.Units {
		if unit.Failed() {
			codes = append(codes, unit.Code)
		}
	}
	return codes
}
