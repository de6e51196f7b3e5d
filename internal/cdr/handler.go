package cdr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultRecentLimit = 100

// Publisher pushes a CDR batch towards the rating engine.
type Publisher interface {
	Publish(ctx context.Context, records []Record) error
}

// Handler exposes HTTP handlers for publishing and inspecting CDRs.
type Handler struct {
	store *Store
	pub   Publisher
	log   *slog.Logger
}

func NewHandler(store *Store, pub Publisher, log *slog.Logger) *Handler {
	return &Handler{store: store, pub: pub, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/cdrs")
	group.POST("", h.publish)
	group.GET("", h.recent)
	group.DELETE("", h.clear)
}

func (h *Handler) publish(c *gin.Context) {
	var records []Record
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cdr batch is empty"})
		return
	}

	for i, record := range records {
		if err := record.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("record %d: %v", i, err)})
			return
		}
	}

	if err := h.pub.Publish(c.Request.Context(), records); err != nil {
		h.log.Error("cdr publish failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"published": len(records)})
}

func (h *Handler) recent(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.store.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
