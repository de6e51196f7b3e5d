package subscriber

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handler exposes HTTP handlers for seeding and inspecting subscribers.
type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/subscribers")
	group.POST("", h.reconcile)
	group.GET("/:msisdn", h.account)
	group.GET("/:msisdn/balance", h.balance)
	group.GET("/:msisdn/quota/:type", h.quota)
}

type specRequest struct {
	Msisdn         string          `json:"msisdn" binding:"required"`
	Balance        decimal.Decimal `json:"balance"`
	TariffID       int64           `json:"tariff_id" binding:"required"`
	IsRestricted   bool            `json:"is_restricted"`
	Description    *string         `json:"description"`
	NamePrefix     string          `json:"name_prefix"`
	QuotaType      int             `json:"quota_type"`
	QuotaRemaining int64           `json:"quota_remaining"`
}

type reconcileRequest struct {
	Subscribers []specRequest `json:"subscribers" binding:"required,min=1,dive"`
}

func (h *Handler) reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	batch := make([]Spec, 0, len(req.Subscribers))
	for _, sub := range req.Subscribers {
		batch = append(batch, Spec{
			Msisdn:         sub.Msisdn,
			Balance:        sub.Balance,
			TariffID:       sub.TariffID,
			IsRestricted:   sub.IsRestricted,
			Description:    sub.Description,
			NamePrefix:     sub.NamePrefix,
			QuotaType:      sub.QuotaType,
			QuotaRemaining: sub.QuotaRemaining,
		})
	}

	mapping, err := h.svc.Reconcile(c.Request.Context(), batch)
	if err != nil {
		h.log.Error("reconcile failed", "error", err)
		c.JSON(reconcileStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribers": mapping})
}

// reconcileStatus maps the reconciler's error taxonomy to HTTP statuses.
func reconcileStatus(err error) int {
	var creation *RecordCreationError
	var stale *StaleAccountError
	switch {
	case errors.Is(err, ErrSessionUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &creation), errors.As(err, &stale):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) account(c *gin.Context) {
	msisdn := c.Param("msisdn")

	account, err := h.svc.Account(c.Request.Context(), msisdn)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscriber not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *Handler) balance(c *gin.Context) {
	msisdn := c.Param("msisdn")

	balance, err := h.svc.Balance(c.Request.Context(), msisdn)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscriber not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"msisdn": msisdn, "balance": balance})
}

func (h *Handler) quota(c *gin.Context) {
	msisdn := c.Param("msisdn")

	serviceType, err := strconv.Atoi(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service type"})
		return
	}

	remaining, err := h.svc.QuotaBalance(c.Request.Context(), msisdn, serviceType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quota balance not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"msisdn":       msisdn,
		"service_type": serviceType,
		"amount_left":  remaining,
	})
}
