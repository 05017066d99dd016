package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegioelo/vagas/internal/domain/models"
)

func testRun(at time.Time, enrolled int) (models.ExtractionRun, models.Summary) {
	run := models.NewExtractionRun(at, "2026")
	run.Units = []models.UnitSnapshot{{
		Code: "01-BV",
		Name: "1 - BV (Boa Viagem)",
		Classrooms: []models.ClassroomRecord{{
			ClassName: "6º Ano A", Course: "Fundamental II / 2026", Segment: models.SegmentElementary2,
			Capacity: 30, EnrolledTotal: enrolled, Available: 30 - enrolled,
		}},
	}}
	totals := models.Totals{Capacity: 30, EnrolledTotal: enrolled, Available: 30 - enrolled}
	summary := models.Summary{
		RunID:       run.RunID,
		ExtractedAt: at,
		PeriodLabel: "2026",
		Units: []models.UnitSummary{{
			Code: "01-BV", Name: "1 - BV (Boa Viagem)",
			Segments: map[models.Segment]models.Totals{models.SegmentElementary2: totals},
			Total:    totals,
		}},
		GrandTotal: totals,
	}
	return run, summary
}

func TestWriteLatestOverwritesAndArchives(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	store := NewStore(dir, nil)
	ctx := context.Background()

	first := time.Date(2026, 10, 13, 6, 0, 1, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	run, summary := testRun(first, 20)
	require.NoError(t, store.WriteLatest(ctx, run, summary))
	run2, summary2 := testRun(second, 25)
	require.NoError(t, store.WriteLatest(ctx, run2, summary2))

	for _, name := range []string{
		"enrollment_latest.json",
		"summary_latest.json",
		"enrollment_20261013_060001.json",
		"summary_20261013_060001.json",
		"enrollment_20261014_060001.json",
		"summary_20261014_060001.json",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 6, "no temporary files left behind")

	latestRun, err := store.ReadLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run2.RunID, latestRun.RunID)
	assert.True(t, latestRun.ExtractedAt.Equal(second))
	assert.Equal(t, 25, latestRun.Units[0].Classrooms[0].EnrolledTotal)

	latestSummary, err := store.ReadLatestSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, latestSummary.GrandTotal.Available)
	assert.Equal(t, 25, latestSummary.Units[0].Segments[models.SegmentElementary2].EnrolledTotal)
}

func TestReadLatestBeforeAnyRun(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	_, err := store.ReadLatestRun(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = store.ReadLatestSummary(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestReadLatestCorrupt(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)
	_, summaryPath := store.LatestPaths()
	require.NoError(t, os.WriteFile(summaryPath, []byte("{"), 0o644))

	_, err := store.ReadLatestSummary(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSnapshot)
}
