package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"accident-dashboard-api/accidents"
	"accident-dashboard-api/charts"
	"accident-dashboard-api/export"
	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccidentsHandler struct {
	dataset   *services.DatasetService
	cache     *services.CacheService
	rootLabel string
	ttl       time.Duration
	logger    *zap.Logger
}

func NewAccidentsHandler(dataset *services.DatasetService, cache *services.CacheService, rootLabel string, ttl time.Duration, logger *zap.Logger) *AccidentsHandler {
	return &AccidentsHandler{dataset: dataset, cache: cache, rootLabel: rootLabel, ttl: ttl, logger: logger}
}

// snapshot answers 503 when no table is loaded.
func (h *AccidentsHandler) snapshot(c *gin.Context) (services.Snapshot, bool) {
	snap, err := h.dataset.Snapshot()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return services.Snapshot{}, false
	}
	return snap, true
}

func (h *AccidentsHandler) filter(c *gin.Context, table *accidents.Table, sel accidents.Selection) (*accidents.Table, bool) {
	out, err := table.Filter(sel)
	switch {
	case err == nil:
		return out, true
	case errors.Is(err, accidents.ErrIncompleteDateRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, accidents.ErrNoDateData):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no data to filter"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	return nil, false
}

func (h *AccidentsHandler) selection(c *gin.Context) (accidents.Selection, bool) {
	sel, err := ParseSelection(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return sel, false
	}
	return sel, true
}

// List returns the filtered rows one page at a time.
func (h *AccidentsHandler) List(c *gin.Context) {
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	filtered, ok := h.filter(c, snap.Table, sel)
	if !ok {
		return
	}

	p := ParsePagination(c)
	rows := filtered.Slice(p.Offset, p.Limit)
	c.JSON(http.StatusOK, p.Page(rows, len(rows), filtered.Len()))
}

func (h *AccidentsHandler) Options(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"version": snap.Version,
		"options": snap.Table.Options(),
	})
}

// summary computes the seven views for sel, through the cache when the
// dataset version and selection match.
func (h *AccidentsHandler) summary(c *gin.Context, sel accidents.Selection) (*accidents.Summary, bool) {
	snap, ok := h.snapshot(c)
	if !ok {
		return nil, false
	}
	cacheKey := fmt.Sprintf("accidents:summary:v%d:%s", snap.Version, selectionKey(sel))

	var cached accidents.Summary
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		return &cached, true
	}

	filtered, ok := h.filter(c, snap.Table, sel)
	if !ok {
		return nil, false
	}
	s, err := accidents.Summarize(c.Request.Context(), filtered, h.rootLabel)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "aggregation failed"})
		return nil, false
	}

	go func() {
		if err := h.cache.Set(context.Background(), cacheKey, s, h.ttl); err != nil {
			h.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}()
	return s, true
}

func (h *AccidentsHandler) Summary(c *gin.Context) {
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	if s, ok := h.summary(c, sel); ok {
		c.JSON(http.StatusOK, s)
	}
}

// Chart renders one summary view as PNG.
func (h *AccidentsHandler) Chart(c *gin.Context) {
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	s, ok := h.summary(c, sel)
	if !ok {
		return
	}
	h.writeChart(c, c.Param("view"), s)
}

func (h *AccidentsHandler) writeChart(c *gin.Context, view string, s *accidents.Summary) {
	var buf bytes.Buffer
	err := charts.Render(&buf, view, s)
	switch {
	case err == nil:
		c.Data(http.StatusOK, "image/png", buf.Bytes())
	case errors.Is(err, charts.ErrNoData):
		// Zero matching rows answers 200 with an empty marker.
		c.JSON(http.StatusOK, gin.H{"view": view, "empty": true, "total": s.Total})
	case errors.Is(err, charts.ErrUnknownView):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "views": charts.Views})
	default:
		h.logger.Error("chart render failed", zap.String("view", view), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chart render failed"})
	}
}

// Export downloads the filtered rows as xlsx (default) or csv.
func (h *AccidentsHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", export.FormatXLSX))
	contentType, err := export.ContentType(format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sel, ok := h.selection(c)
	if !ok {
		return
	}
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	filtered, ok := h.filter(c, snap.Table, sel)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, filtered.Rows()); err != nil {
		h.logger.Error("export failed", zap.String("format", format), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="accidentes_filtrados.%s"`, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
