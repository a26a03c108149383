package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/extract-api/internal/domain"
	"go.ngs.io/extract-api/internal/usecase"
)

// Handler handles HTTP requests for on-demand point extraction.
type Handler struct {
	extractor *usecase.Extractor
}

// NewHandler creates a new HTTP handler.
func NewHandler(extractor *usecase.Extractor) *Handler {
	return &Handler{extractor: extractor}
}

// pointParams parses the parameters shared by both extraction endpoints.
func pointParams(c *gin.Context) (usecase.DatasetSpec, []string, domain.PointQuery, bool) {
	var spec usecase.DatasetSpec
	var q domain.PointQuery

	datasetID := c.Query("dataset")
	if datasetID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dataset parameter is required"})
		return spec, nil, q, false
	}
	spec = usecase.DatasetSpec{ID: datasetID, OutputName: datasetID}

	varsStr := c.Query("variables")
	if varsStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "variables parameter is required"})
		return spec, nil, q, false
	}
	variables := strings.Split(varsStr, ",")

	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid latitude: %v", err)})
		return spec, nil, q, false
	}
	lon, err := strconv.ParseFloat(c.Query("lon"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid longitude: %v", err)})
		return spec, nil, q, false
	}

	q = domain.PointQuery{ID: "q1", Latitude: lat, Longitude: lon}

	if depthStr := c.Query("depth"); depthStr != "" {
		depth, err := strconv.ParseFloat(depthStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid depth: %v", err)})
			return spec, nil, q, false
		}
		q.Depth = &depth
	}

	return spec, variables, q, true
}

// GetInstant handles GET /v1/extract/instant.
func (h *Handler) GetInstant(c *gin.Context) {
	spec, variables, q, ok := pointParams(c)
	if !ok {
		return
	}

	at, err := time.Parse(time.RFC3339, c.Query("time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid time (expected RFC3339): %v", err)})
		return
	}
	q.Time = domain.Instant{At: at.UTC()}

	res, err := h.extractor.Run(c.Request.Context(), usecase.Request{
		Datasets:  []usecase.DatasetSpec{spec},
		Variables: variables,
		Queries:   []domain.PointQuery{q},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(res.Failures) > 0 {
		f := res.Failures[0]
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": f.Detail, "reason": f.Reason})
		return
	}

	row := res.Datasets[0].Instant[0]
	c.JSON(http.StatusOK, gin.H{
		"dataset":       spec.ID,
		"matched_time":  row.MatchedTime.Format(time.RFC3339),
		"matched_lat":   row.MatchedLat,
		"matched_lon":   row.MatchedLon,
		"matched_depth": row.MatchedDepth,
		"values":        row.Values,
	})
}

// GetSeries handles GET /v1/extract/series.
func (h *Handler) GetSeries(c *gin.Context) {
	spec, variables, q, ok := pointParams(c)
	if !ok {
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start (expected RFC3339): %v", err)})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end (expected RFC3339): %v", err)})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}
	q.Time = domain.Interval{Start: start.UTC(), End: end.UTC()}

	res, err := h.extractor.Run(c.Request.Context(), usecase.Request{
		Datasets:  []usecase.DatasetSpec{spec},
		Variables: variables,
		Queries:   []domain.PointQuery{q},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(res.Failures) > 0 {
		f := res.Failures[0]
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": f.Detail, "reason": f.Reason})
		return
	}

	s := res.Datasets[0].Series[0]
	times := make([]string, len(s.Times))
	for i, t := range s.Times {
		times[i] = t.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset":       spec.ID,
		"matched_lat":   s.MatchedLat,
		"matched_lon":   s.MatchedLon,
		"matched_depth": s.MatchedDepth,
		"times":         times,
		"values":        s.Values,
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
