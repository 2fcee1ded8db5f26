// Package handler is the HTTP surface of the bot: health, Prometheus
// metrics, the JWT-protected moderation queue API and the live feed.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"complaintbot/backend/internal/hub"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Queue is the read side of the moderation workflow.
type Queue interface {
	Pending() []*models.Complaint
	Record(id string) (*models.Complaint, bool)
}

// Handler містить залежності HTTP-шару
type Handler struct {
	Queue   Queue
	Archive storage.Archive
	Feed    *hub.Feed

	secret []byte
	apiKey string
	log    *zap.Logger

	// ctx bounds websocket clients; it outlives individual requests.
	ctx context.Context
}

// NewHandler creates a Handler. archive and feed may be nil; their routes
// then answer 503.
func NewHandler(ctx context.Context, queue Queue, archive storage.Archive, feed *hub.Feed, jwtSecret, apiKey string, log *zap.Logger) *Handler {
	return &Handler{
		Queue:   queue,
		Archive: archive,
		Feed:    feed,
		secret:  []byte(jwtSecret),
		apiKey:  apiKey,
		log:     log,
		ctx:     ctx,
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/auth/token", h.IssueToken)
	r.GET("/ws/feed", h.AuthMiddleware(), h.ServeFeed)

	api := r.Group("/api", h.AuthMiddleware())
	api.GET("/queue", h.ListQueue)
	api.GET("/queue/:id", h.GetQueued)
	api.GET("/archive", h.ListArchive)
	api.GET("/archive/stats", h.ArchiveStats)
	api.GET("/archive/:id", h.GetArchived)

	return r
}

// Health reports liveness and the queue length.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pending": len(h.Queue.Pending())})
}

// ListQueue returns pending records, oldest first.
func (h *Handler) ListQueue(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Queue.Pending()})
}

// GetQueued returns one pending record.
func (h *Handler) GetQueued(c *gin.Context) {
	rec, ok := h.Queue.Record(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListArchive returns archived records, filtered by ?decision= and capped by ?limit=.
func (h *Handler) ListArchive(c *gin.Context) {
	if !h.archiveEnabled(c) {
		return
	}
	decision := models.Decision(c.Query("decision"))
	switch decision {
	case "", models.DecisionPending, models.DecisionApproved, models.DecisionRejected:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown decision"})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	recs, err := h.Archive.List(c.Request.Context(), decision, limit)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": recs})
}

// GetArchived returns one archived record.
func (h *Handler) GetArchived(c *gin.Context) {
	if !h.archiveEnabled(c) {
		return
	}
	rec, err := h.Archive.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ArchiveStats returns decision counts.
func (h *Handler) ArchiveStats(c *gin.Context) {
	if !h.archiveEnabled(c) {
		return
	}
	st, err := h.Archive.Stats(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":  st.Pending,
		"approved": st.Approved,
		"rejected": st.Rejected,
		"total":    st.Total(),
	})
}

func (h *Handler) archiveEnabled(c *gin.Context) bool {
	if h.Archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive is not configured"})
		return false
	}
	return true
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.Error("api request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
