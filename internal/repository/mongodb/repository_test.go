package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/colegioelo/vagas/internal/domain/models"
)

func TestLatestDocuments(t *testing.T) {
	at := time.Date(2026, 10, 14, 6, 0, 0, 0, time.UTC)
	run := models.NewExtractionRun(at, "2026")
	run.Units = []models.UnitSnapshot{{Code: "01-BV", Name: "1 - BV (Boa Viagem)", Classrooms: []models.ClassroomRecord{}}}
	summary := models.Summary{RunID: run.RunID, ExtractedAt: at, PeriodLabel: "2026"}
	now := at.Add(time.Minute)

	docs := latestDocuments(run, summary, now)

	require.Len(t, docs, 2)
	assert.Equal(t, "enrollment", docs[0].ID)
	assert.Equal(t, "summary", docs[1].ID)
	for _, doc := range docs {
		assert.Equal(t, run.RunID.String(), doc.RunID)
		assert.Equal(t, now, doc.UpdatedAt)
	}
}

func TestLatestDocumentEncoding(t *testing.T) {
	at := time.Date(2026, 10, 14, 6, 0, 0, 0, time.UTC)
	run := models.NewExtractionRun(at, "2026")
	run.Units = []models.UnitSnapshot{{
		Code:       "01-BV",
		Name:       "1 - BV (Boa Viagem)",
		Classrooms: []models.ClassroomRecord{{ClassName: "6º Ano A", Segment: models.SegmentElementary2, Capacity: 30}},
	}}

	raw, err := bson.Marshal(latestDocuments(run, models.Summary{RunID: run.RunID}, at)[0])
	require.NoError(t, err)

	var decoded struct {
		ID      string   `bson:"_id"`
		RunID   string   `bson:"run_id"`
		Payload bson.Raw `bson:"payload"`
	}
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "enrollment", decoded.ID)
	assert.Equal(t, run.RunID.String(), decoded.RunID)

	assert.Equal(t, "2026", decoded.Payload.Lookup("period_label").StringValue())
	assert.Equal(t, "6º Ano A", decoded.Payload.Lookup("units", "0", "classrooms", "0", "class_name").StringValue())
	_, err = decoded.Payload.LookupErr("run_id")
	assert.Error(t, err)
}
