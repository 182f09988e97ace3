package controllers

import (
	"net/http"

	"nutriplan/config"
	"nutriplan/engine"
	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

type QuotaController struct {
	Ledger *services.QuotaLedger
	Tiers  *config.TierCatalog
}

func NewQuotaController(l *services.QuotaLedger, tiers *config.TierCatalog) *QuotaController {
	return &QuotaController{Ledger: l, Tiers: tiers}
}

type consumeRequest struct {
	Resource engine.ResourceType `json:"resource_type" binding:"required"`
	Amount   int64               `json:"amount"`
}

// POST /quota/consume
// A rejection answers 429 with the full status body.
func (h *QuotaController) Consume(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.Tiers.Known(req.Resource) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown resource_type"})
		return
	}

	st, err := h.Ledger.CheckAndConsume(c.Request.Context(), engine.QuotaRequest{
		UserID:   uid,
		Resource: req.Resource,
		Amount:   req.Amount,
		Limit:    h.Tiers.Limit(tierFromCtx(c), req.Resource),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if !st.Allowed && req.Amount > 0 {
		c.JSON(http.StatusTooManyRequests, st)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /quota/:resource
func (h *QuotaController) Status(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	res := engine.ResourceType(c.Param("resource"))
	if !h.Tiers.Known(res) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource_type"})
		return
	}
	st, err := h.Ledger.Status(c.Request.Context(), uid, res, h.Tiers.Limit(tierFromCtx(c), res))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
