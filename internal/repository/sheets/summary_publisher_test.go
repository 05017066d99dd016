package sheets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegioelo/vagas/internal/config"
	"github.com/colegioelo/vagas/internal/domain/models"
)

type fakeRepository struct {
	replaced map[string][][]interface{}
	appended map[string][][]interface{}
	err      error
}

func (f *fakeRepository) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.appended == nil {
		f.appended = map[string][][]interface{}{}
	}
	f.appended[sheetRange] = append(f.appended[sheetRange], values)
	return nil
}

func (f *fakeRepository) ReplaceRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.replaced == nil {
		f.replaced = map[string][][]interface{}{}
	}
	f.replaced[sheetRange] = rows
	return nil
}

func testSummary() models.Summary {
	e2 := models.Totals{Capacity: 30, NewEnrollees: 5, ReturningEnrollees: 20, EnrolledTotal: 25, Available: 5}
	ec := models.Totals{Capacity: 20, NewEnrollees: 4, ReturningEnrollees: 12, EnrolledTotal: 16, Available: 4}
	total := e2
	total.Add(ec)
	return models.Summary{
		ExtractedAt: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
		PeriodLabel: "2026",
		Units: []models.UnitSummary{
			{
				Code: "01-BV", Name: "1 - BV (Boa Viagem)",
				Segments: map[models.Segment]models.Totals{models.SegmentElementary2: e2, models.SegmentEarlyChildhood: ec},
				Total:    total,
			},
			{Code: "02-CD", Name: "2 - CD (Jaboatão)", Segments: map[models.Segment]models.Totals{}, Error: "timeout"},
		},
		GrandTotal: total,
	}
}

func TestSummaryRows(t *testing.T) {
	rows := SummaryRows(testSummary())

	require.Len(t, rows, 6)
	assert.Equal(t, summaryHeader, rows[0])
	assert.Equal(t, []interface{}{"1 - BV (Boa Viagem)", "Ed. Infantil", 20, 4, 12, 16, 4, 80.0}, rows[1])
	assert.Equal(t, "Fund. II", rows[2][1])
	assert.Equal(t, []interface{}{"1 - BV (Boa Viagem)", "Total", 50, 9, 32, 41, 9, 82.0}, rows[3])
	assert.Equal(t, "ERRO: timeout", rows[4][1])
	assert.Equal(t, "Total geral", rows[5][0])
}

func TestTrendRow(t *testing.T) {
	assert.Equal(t, []interface{}{"2026-10-14 09:00:00", "2026", 50, 9, 32, 41, 9}, TrendRow(testSummary()))
}

func TestSummaryPublisherWriteLatest(t *testing.T) {
	cfg := config.SheetsConfig{SummaryRange: "Resumo!A:H", TrendRange: "Historico!A:G"}

	t.Run("publishes both tabs", func(t *testing.T) {
		repo := &fakeRepository{}
		publisher := NewSummaryPublisher(repo, cfg, nil)

		require.NoError(t, publisher.WriteLatest(context.Background(), models.ExtractionRun{}, testSummary()))
		assert.Len(t, repo.replaced["Resumo!A:H"], 6)
		assert.Len(t, repo.appended["Historico!A:G"], 1)
	})

	t.Run("propagates api errors", func(t *testing.T) {
		repo := &fakeRepository{err: errors.New("quota exceeded")}
		err := NewSummaryPublisher(repo, cfg, nil).WriteLatest(context.Background(), models.ExtractionRun{}, testSummary())
		assert.ErrorContains(t, err, "quota exceeded")
	})
}
