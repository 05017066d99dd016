package sheets

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
)

const timestampLayout = "2006-01-02 15:04:05"

var summaryHeader = []interface{}{
	"Unidade", "Segmento", "Vagas", "Novatos", "Veteranos", "Matriculados", "Disponíveis", "Ocupação (%)",
}

// SummaryPublisher keeps a spreadsheet tab in sync with the latest summary and
// appends one grand-total row per run to a trend tab.
type SummaryPublisher struct {
	repo         Repository
	summaryRange string
	trendRange   string
	logger       *zap.Logger
}

// NewSummaryPublisher wires the publisher over a sheet repository.
func NewSummaryPublisher(repo Repository, cfg config.SheetsConfig, logger *zap.Logger) *SummaryPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryPublisher{
		repo:         repo,
		summaryRange: cfg.SummaryRange,
		trendRange:   cfg.TrendRange,
		logger:       logger,
	}
}

// Name identifies the writer in logs.
func (p *SummaryPublisher) Name() string { return "sheets" }

// WriteLatest replaces the summary tab and appends the trend row.
func (p *SummaryPublisher) WriteLatest(ctx context.Context, _ models.ExtractionRun, summary models.Summary) error {
	if err := p.repo.ReplaceRange(ctx, p.summaryRange, SummaryRows(summary)); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}
	if err := p.repo.WriteRow(ctx, p.trendRange, TrendRow(summary)); err != nil {
		return fmt.Errorf("append trend row: %w", err)
	}
	p.logger.Info("summary published to sheets", zap.Int("units", len(summary.Units)))
	return nil
}

// SummaryRows renders the header, one row per unit and segment, one total row per
// unit and the grand total. Failed units get a single row carrying their error.
func SummaryRows(summary models.Summary) [][]interface{} {
	rows := [][]interface{}{summaryHeader}

	for _, unit := range summary.Units {
		if unit.Error != "" {
			rows = append(rows, []interface{}{unit.Name, "ERRO: " + unit.Error, "", "", "", "", "", ""})
			continue
		}
		for _, segment := range models.AcademicSegments {
			totals, ok := unit.Segments[segment]
			if !ok {
				continue
			}
			rows = append(rows, totalsRow(unit.Name, string(segment), totals))
		}
		rows = append(rows, totalsRow(unit.Name, "Total", unit.Total))
	}

	return append(rows, totalsRow("Total geral", "", summary.GrandTotal))
}

// TrendRow renders the grand total of a run for the trend tab.
func TrendRow(summary models.Summary) []interface{} {
	t := summary.GrandTotal
	return []interface{}{
		summary.ExtractedAt.In(time.UTC).Format(timestampLayout),
		summary.PeriodLabel,
		t.Capacity,
		t.NewEnrollees,
		t.ReturningEnrollees,
		t.EnrolledTotal,
		t.Available,
	}
}

func totalsRow(unit, segment string, t models.Totals) []interface{} {
	return []interface{}{
		unit,
		segment,
		t.Capacity,
		t.NewEnrollees,
		t.ReturningEnrollees,
		t.EnrolledTotal,
		t.Available,
		math.Round(t.Occupancy()*10) / 10,
	}
}
