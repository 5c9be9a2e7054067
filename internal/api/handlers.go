package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wpsleuth/wpsleuth/internal/database"
	"github.com/wpsleuth/wpsleuth/pkg/advisory"
	"github.com/wpsleuth/wpsleuth/pkg/types"
	"github.com/wpsleuth/wpsleuth/pkg/wpscan"
)

type scanRequest struct {
	URL string `json:"url"`

	// Strict rejects targets the fingerprinter did not classify as WordPress
	// instead of returning the low-confidence result.
	Strict bool `json:"strict"`
}

// handleScan runs a scan synchronously and returns the assembled result.
// Unreachable or non-WordPress targets are a 200 with the verdict in the
// body; only a malformed request or an internal failure is an error status.
func (s *Server) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	if target, err := wpscan.NormalizeTarget(req.URL); err == nil {
		if cached, err := s.cache.Get(c.Request.Context(), target); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	result, err := s.scanner.Scan(c.Request.Context(), req.URL)
	if err != nil {
		var verr *wpscan.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		s.log.LogError(c.Request.Context(), err, "api.scan", "url", req.URL)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}

	s.telemetry.RecordScan(float64(result.ScanDurationMs), result.IsWordPress)
	for _, report := range append(append([]types.ComponentReport{result.Core}, result.Plugins...), result.Themes...) {
		for _, f := range report.Findings {
			s.telemetry.RecordFinding(f.Severity)
		}
	}

	s.cache.Set(c.Request.Context(), result)

	// Persistence is fire-and-forget; a slow or failing store never delays
	// the response.
	if s.store != nil {
		go func(r *types.ScanResult) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.store.SaveScanResult(ctx, r); err != nil {
				s.log.LogError(ctx, err, "api.scan.persist", "scan_id", r.ID)
			}
		}(result)
	}

	if req.Strict && !result.IsWordPress {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "target does not appear to be a WordPress site",
			"result": result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetScan(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "persistence is not configured"})
		return
	}

	result, err := s.store.GetScanResult(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "scan not found"})
			return
		}
		s.log.LogError(c.Request.Context(), err, "api.getScan", "scan_id", c.Param("id"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scan"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListScans(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "persistence is not configured"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	results, err := s.store.ListScanResults(c.Request.Context(), c.Query("target"), limit)
	if err != nil {
		s.log.LogError(c.Request.Context(), err, "api.listScans")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list scans"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": results, "count": len(results)})
}

func (s *Server) handleGetAdvisories(c *gin.Context) {
	slug := c.Param("slug")
	advisories := s.advisories.AdvisoriesFor(slug)
	if advisories == nil {
		advisories = []advisory.Advisory{}
	}

	resp := gin.H{"slug": slug, "advisories": advisories}
	if latest, ok := s.advisories.LatestVersion(slug); ok {
		resp["latest_version"] = latest
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{
		"status":  "ok",
		"service": "wpsleuth",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	c.JSON(http.StatusOK, status)
}
