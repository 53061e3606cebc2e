// Package http exposes the service's REST surface: search, browse,
// screenshot, health, metrics, and the OpenAPI document.
package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iccyuan/search-browser/internal/infrastructure/logging"
	"github.com/iccyuan/search-browser/internal/infrastructure/monitoring"
	"github.com/iccyuan/search-browser/internal/openapi"
	"github.com/iccyuan/search-browser/internal/orchestrator"
	"github.com/iccyuan/search-browser/internal/queue"
	"github.com/iccyuan/search-browser/internal/shared/errs"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	orch       *orchestrator.Orchestrator
	serializer *queue.Serializer
	logger     *logging.Logger
	service    string
	version    string
}

// NewHandlers creates the handler set.
func NewHandlers(orch *orchestrator.Orchestrator, serializer *queue.Serializer, logger *logging.Logger, service, version string) *Handlers {
	return &Handlers{
		orch:       orch,
		serializer: serializer,
		logger:     logger,
		service:    service,
		version:    version,
	}
}

// Register attaches all routes to the router.
func (h *Handlers) Register(r *gin.Engine, metrics *monitoring.Metrics) {
	r.GET("/", h.Health)
	r.GET("/health", h.Health)
	r.GET("/openapi.json", h.OpenAPI)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.POST("/search", h.Search)
	r.POST("/browse", h.Browse)
	r.POST("/screenshot", h.Screenshot)
}

// Health reports liveness and the current queue depth.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{
		"status":  "ok",
		"service": h.service,
		"version": h.version,
		"queue":   h.serializer.Len(),
	})
}

// OpenAPI serves the API document with the server URL pointing back at the
// host the caller reached us on.
func (h *Handlers) OpenAPI(c *gin.Context) {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	doc, err := openapi.Document(scheme + "://" + c.Request.Host)
	if err != nil {
		h.respondError(c, time.Now(), errs.Internal("failed to render API document", err))
		return
	}
	c.Data(stdhttp.StatusOK, "application/json", doc)
}

type searchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

type searchResponse struct {
	*orchestrator.SearchOutcome
	Timestamp string `json:"timestamp"`
	Duration  int64  `json:"duration"`
}

// Search runs a full web search through the request queue.
func (h *Handlers) Search(c *gin.Context) {
	start := time.Now()

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, start, errs.Validation("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.respondError(c, start, errs.Validation("query is required"))
		return
	}

	value, err := h.enqueue(c, "search", func(ctx context.Context) (any, error) {
		return h.orch.Search(ctx, req.Query, req.MaxResults)
	})
	if err != nil {
		h.respondError(c, start, err)
		return
	}

	c.JSON(stdhttp.StatusOK, searchResponse{
		SearchOutcome: value.(*orchestrator.SearchOutcome),
		Timestamp:     timestamp(),
		Duration:      millis(start),
	})
}

type browseRequest struct {
	URL      string `json:"url"`
	Selector string `json:"selector"`
	Extract  string `json:"extract"`
}

type browseResponse struct {
	*orchestrator.BrowseOutcome
	Timestamp string `json:"timestamp"`
	Duration  int64  `json:"duration"`
}

// Browse extracts content from a single page.
func (h *Handlers) Browse(c *gin.Context) {
	start := time.Now()

	var req browseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, start, errs.Validation("invalid request body: %v", err))
		return
	}

	value, err := h.enqueue(c, "browse", func(ctx context.Context) (any, error) {
		return h.orch.Browse(ctx, req.URL, req.Selector, req.Extract)
	})
	if err != nil {
		h.respondError(c, start, err)
		return
	}

	c.JSON(stdhttp.StatusOK, browseResponse{
		BrowseOutcome: value.(*orchestrator.BrowseOutcome),
		Timestamp:     timestamp(),
		Duration:      millis(start),
	})
}

type screenshotRequest struct {
	URL string `json:"url"`
}

type screenshotResponse struct {
	*orchestrator.ScreenshotOutcome
	Timestamp string `json:"timestamp"`
	Duration  int64  `json:"duration"`
}

// Screenshot captures a page image.
func (h *Handlers) Screenshot(c *gin.Context) {
	start := time.Now()

	var req screenshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, start, errs.Validation("invalid request body: %v", err))
		return
	}

	value, err := h.enqueue(c, "screenshot", func(ctx context.Context) (any, error) {
		return h.orch.Screenshot(ctx, req.URL)
	})
	if err != nil {
		h.respondError(c, start, err)
		return
	}

	c.JSON(stdhttp.StatusOK, screenshotResponse{
		ScreenshotOutcome: value.(*orchestrator.ScreenshotOutcome),
		Timestamp:         timestamp(),
		Duration:          millis(start),
	})
}

// enqueue submits the operation to the serializer and waits for its turn.
func (h *Handlers) enqueue(c *gin.Context, name string, op queue.Operation) (any, error) {
	handle := h.serializer.Enqueue(c.Request.Context(), name, op)
	return handle.Wait(c.Request.Context())
}

func (h *Handlers) respondError(c *gin.Context, start time.Time, err error) {
	status := errs.StatusOf(err)
	if status >= stdhttp.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{
		"error":    string(errs.KindOf(err)),
		"message":  err.Error(),
		"duration": millis(start),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func millis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
