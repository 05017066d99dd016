package sqlite

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/domain/models"
)

// factBatchSize keeps each multi-row insert well under SQLite's bound variable cap.
const factBatchSize = 500

type factRow struct {
	RunID                     int64  `db:"extraction_run_id"`
	UnitCode                  string `db:"unit_code"`
	UnitName                  string `db:"unit_name"`
	Segment                   string `db:"segment"`
	CourseName                string `db:"course_name"`
	ClassName                 string `db:"class_name"`
	Capacity                  int    `db:"capacity"`
	NewEnrollees              int    `db:"new_enrollees"`
	ReturningEnrollees        int    `db:"returning_enrollees"`
	EnrolledTotal             int    `db:"enrolled_total"`
	RemainingCapacityReported int    `db:"remaining_capacity_reported"`
	PreEnrolled               int    `db:"pre_enrolled"`
	Available                 int    `db:"available"`
}

const insertRunQuery = `INSERT INTO extraction_runs (run_uuid, extraction_timestamp, period_label) VALUES (?, ?, ?)`

const insertFactQuery = `INSERT INTO classroom_facts (
	extraction_run_id, unit_code, unit_name, segment, course_name, class_name,
	capacity, new_enrollees, returning_enrollees, enrolled_total,
	remaining_capacity_reported, pre_enrolled, available
) VALUES (
	:extraction_run_id, :unit_code, :unit_name, :segment, :course_name, :class_name,
	:capacity, :new_enrollees, :returning_enrollees, :enrolled_total,
	:remaining_capacity_reported, :pre_enrolled, :available
)`

// AppendRun inserts the run and every classroom of its successful units in one
// transaction and returns the new run id.
func (r *Repository) AppendRun(ctx context.Context, run models.ExtractionRun) (int64, error) {
	db, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, insertRunQuery, run.RunID.String(), formatTimestamp(run.ExtractedAt), run.PeriodLabel)
	if err != nil {
		return 0, fmt.Errorf("insert extraction run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read extraction run id: %w", err)
	}

	facts := factRows(runID, run)
	for start := 0; start < len(facts); start += factBatchSize {
		end := start + factBatchSize
		if end > len(facts) {
			end = len(facts)
		}
		if _, err := tx.NamedExecContext(ctx, insertFactQuery, facts[start:end]); err != nil {
			return 0, fmt.Errorf("insert classroom facts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit extraction run: %w", err)
	}

	r.logger.Info("extraction run stored",
		zap.Int64("id", runID),
		zap.String("run_id", run.RunID.String()),
		zap.Int("facts", len(facts)),
	)
	return runID, nil
}

func factRows(runID int64, run models.ExtractionRun) []factRow {
	rows := make([]factRow, 0, run.ClassroomCount())
	for _, unit := range run.Units {
		for _, c := range unit.Classrooms {
			rows = append(rows, factRow{
				RunID:                     runID,
				UnitCode:                  unit.Code,
				UnitName:                  unit.Name,
				Segment:                   string(c.Segment),
				CourseName:                c.Course,
				ClassName:                 c.ClassName,
				Capacity:                  c.Capacity,
				NewEnrollees:              c.NewEnrollees,
				ReturningEnrollees:        c.ReturningEnrollees,
				EnrolledTotal:             c.EnrolledTotal,
				RemainingCapacityReported: c.RemainingCapacityReported,
				PreEnrolled:               c.PreEnrolled,
				Available:                 c.Available,
			})
		}
	}
	return rows
}

const totalsColumns = `
	SUM(f.capacity) AS capacity,
	SUM(f.new_enrollees) AS new_enrollees,
	SUM(f.returning_enrollees) AS returning_enrollees,
	SUM(f.enrolled_total) AS enrolled_total,
	SUM(f.available) AS available`

type totalsRow struct {
	ExtractedAt        string `db:"extraction_timestamp"`
	Capacity           int    `db:"capacity"`
	NewEnrollees       int    `db:"new_enrollees"`
	ReturningEnrollees int    `db:"returning_enrollees"`
	EnrolledTotal      int    `db:"enrolled_total"`
	Available          int    `db:"available"`
}

func (t totalsRow) totals() models.Totals {
	return models.Totals{
		Capacity:           t.Capacity,
		NewEnrollees:       t.NewEnrollees,
		ReturningEnrollees: t.ReturningEnrollees,
		EnrolledTotal:      t.EnrolledTotal,
		Available:          t.Available,
	}
}

type unitRow struct {
	totalsRow
	UnitCode string `db:"unit_code"`
	UnitName string `db:"unit_name"`
}

type segmentRow struct {
	totalsRow
	Segment string `db:"segment"`
}

// where renders the filter as a WHERE clause with positional arguments.
func where(filter models.HistoryFilter, withFacts bool) (string, []any) {
	var conditions []string
	var args []any

	if !filter.From.IsZero() {
		conditions = append(conditions, "r.extraction_timestamp >= ?")
		args = append(args, formatTimestamp(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "r.extraction_timestamp <= ?")
		args = append(args, formatTimestamp(filter.To))
	}
	if withFacts && filter.UnitCode != "" {
		conditions = append(conditions, "f.unit_code = ?")
		args = append(args, filter.UnitCode)
	}
	if withFacts && filter.Segment != "" {
		conditions = append(conditions, "f.segment = ?")
		args = append(args, string(filter.Segment))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// TotalsHistory returns one aggregate per run in chronological order.
func (r *Repository) TotalsHistory(ctx context.Context, filter models.HistoryFilter) ([]models.TotalsPoint, error) {
	clause, args := where(filter, true)
	query := `SELECT r.extraction_timestamp AS extraction_timestamp,` + totalsColumns + `
		FROM extraction_runs r
		JOIN classroom_facts f ON f.extraction_run_id = r.id` + clause + `
		GROUP BY r.id, r.extraction_timestamp
		ORDER BY r.extraction_timestamp, r.id`

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []totalsRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query totals history: %w", err)
	}

	points := make([]models.TotalsPoint, 0, len(rows))
	for _, row := range rows {
		at, err := parseTimestamp(row.ExtractedAt)
		if err != nil {
			return nil, err
		}
		points = append(points, models.TotalsPoint{ExtractedAt: at, Totals: row.totals()})
	}
	return points, nil
}

// UnitHistory returns one aggregate per unit per run.
func (r *Repository) UnitHistory(ctx context.Context, filter models.HistoryFilter) ([]models.UnitPoint, error) {
	clause, args := where(filter, true)
	query := `SELECT r.extraction_timestamp AS extraction_timestamp, f.unit_code AS unit_code, MAX(f.unit_name) AS unit_name,` + totalsColumns + `
		FROM extraction_runs r
		JOIN classroom_facts f ON f.extraction_run_id = r.id` + clause + `
		GROUP BY r.id, r.extraction_timestamp, f.unit_code
		ORDER BY r.extraction_timestamp, r.id, f.unit_code`

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []unitRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query unit history: %w", err)
	}

	points := make([]models.UnitPoint, 0, len(rows))
	for _, row := range rows {
		at, err := parseTimestamp(row.ExtractedAt)
		if err != nil {
			return nil, err
		}
		points = append(points, models.UnitPoint{
			ExtractedAt: at,
			UnitCode:    row.UnitCode,
			UnitName:    row.UnitName,
			Totals:      row.totals(),
		})
	}
	return points, nil
}

// SegmentHistory returns one aggregate per segment per run.
func (r *Repository) SegmentHistory(ctx context.Context, filter models.HistoryFilter) ([]models.SegmentPoint, error) {
	clause, args := where(filter, true)
	query := `SELECT r.extraction_timestamp AS extraction_timestamp, f.segment AS segment,` + totalsColumns + `
		FROM extraction_runs r
		JOIN classroom_facts f ON f.extraction_run_id = r.id` + clause + `
		GROUP BY r.id, r.extraction_timestamp, f.segment
		ORDER BY r.extraction_timestamp, r.id, f.segment`

	db, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []segmentRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query segment history: %w", err)
	}

	points := make([]models.SegmentPoint, 0, len(rows))
	for _, row := range rows {
		at, err := parseTimestamp(row.ExtractedAt)
		if err != nil {
			return nil, err
		}
		points = append(points, models.SegmentPoint{
			ExtractedAt: at,
			Segment:     models.Segment(row.Segment),
			Totals:      row.totals(),
		})
	}
	return points, nil
}

// CountRuns returns the number of stored runs within the filter's time range.
// Unit and segment filters do not apply to runs.
func (r *Repository) CountRuns(ctx context.Context, filter models.HistoryFilter) (int, error) {
	clause, args := where(filter, false)
	query := `SELECT COUNT(*) FROM extraction_runs r` + clause

	db, err := r.open(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var count int
	if err := db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count extraction runs: %w", err)
	}
	return count, nil
}
