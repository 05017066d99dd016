package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/colegioelo/vagas/internal/domain/models"
	"github.com/colegioelo/vagas/internal/repository/files"
)

const dateLayout = "2006-01-02"

// LatestReader serves the documents written by the last run.
type LatestReader interface {
	ReadLatestRun(ctx context.Context) (models.ExtractionRun, error)
	ReadLatestSummary(ctx context.Context) (models.Summary, error)
}

// HistoryReader serves aggregates from the history store.
type HistoryReader interface {
	TotalsHistory(ctx context.Context, filter models.HistoryFilter) ([]models.TotalsPoint, error)
	UnitHistory(ctx context.Context, filter models.HistoryFilter) ([]models.UnitPoint, error)
	SegmentHistory(ctx context.Context, filter models.HistoryFilter) ([]models.SegmentPoint, error)
	CountRuns(ctx context.Context, filter models.HistoryFilter) (int, error)
}

// HistoryHandler exposes the read-only dashboard API.
type HistoryHandler struct {
	latest  LatestReader
	history HistoryReader
	logger  *zap.Logger
}

// NewHistoryHandler constructs the HTTP handler adapter.
func NewHistoryHandler(latest LatestReader, history HistoryReader, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{latest: latest, history: history, logger: logger}
}

// Latest returns the full extraction tree of the last run.
func (h *HistoryHandler) Latest(c *gin.Context) {
	run, err := h.latest.ReadLatestRun(c.Request.Context())
	if err != nil {
		h.latestError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// LatestSummary returns the summary of the last run.
func (h *HistoryHandler) LatestSummary(c *gin.Context) {
	summary, err := h.latest.ReadLatestSummary(c.Request.Context())
	if err != nil {
		h.latestError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *HistoryHandler) latestError(c *gin.Context, err error) {
	if errors.Is(err, files.ErrNoSnapshot) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no extraction has completed yet"})
		return
	}
	h.logger.Error("failed reading latest document", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read latest document"})
}

// Totals returns the grand total of every run.
func (h *HistoryHandler) Totals(c *gin.Context) {
	serveHistory(h, c, h.history.TotalsHistory)
}

// Units returns per-unit totals of every run.
func (h *HistoryHandler) Units(c *gin.Context) {
	serveHistory(h, c, h.history.UnitHistory)
}

// Segments returns per-segment totals of every run.
func (h *HistoryHandler) Segments(c *gin.Context) {
	serveHistory(h, c, h.history.SegmentHistory)
}

// RunCount returns how many runs are stored.
func (h *HistoryHandler) RunCount(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.history.CountRuns(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed counting runs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func serveHistory[T any](h *HistoryHandler, c *gin.Context, query func(context.Context, models.HistoryFilter) ([]T, error)) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	points, err := query(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed querying history", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points})
}

func parseFilter(c *gin.Context) (models.HistoryFilter, error) {
	from, err := parseBound(c.Query("from"), false)
	if err != nil {
		return models.HistoryFilter{}, fmt.Errorf("invalid from: %w", err)
	}
	to, err := parseBound(c.Query("to"), true)
	if err != nil {
		return models.HistoryFilter{}, fmt.Errorf("invalid to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return models.HistoryFilter{}, errors.New("from must not be after to")
	}

	segment := models.Segment(strings.TrimSpace(c.Query("segment")))
	if segment != "" && !segment.Valid() {
		return models.HistoryFilter{}, fmt.Errorf("unknown segment %q", segment)
	}

	return models.HistoryFilter{
		From:     from,
		To:       to,
		UnitCode: strings.TrimSpace(c.Query("unit")),
		Segment:  segment,
	}, nil
}

// parseBound accepts RFC3339 timestamps or plain dates. A plain upper bound
// covers the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC3339 nor YYYY-MM-DD", raw)
	}
	if upper {
		return day.Add(24*time.Hour - time.Second), nil
	}
	return day, nil
}
