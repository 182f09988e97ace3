package controllers

import (
	"context"
	"net/http"
	"time"

	"nutriplan/config"
	"nutriplan/engine"
	"nutriplan/models"
	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

// photoScorer turns a check-in photo into a 0..100 verification score.
type photoScorer interface {
	Score(ctx context.Context, photo, itemName string) (float64, error)
}

type CheckInController struct {
	CheckIns *services.CheckInService
	Quota    *services.QuotaLedger
	Tiers    *config.TierCatalog
	Verifier photoScorer
	Timeout  time.Duration
}

func NewCheckInController(ci *services.CheckInService, q *services.QuotaLedger, tiers *config.TierCatalog, v photoScorer, timeout time.Duration) *CheckInController {
	return &CheckInController{CheckIns: ci, Quota: q, Tiers: tiers, Verifier: v, Timeout: timeout}
}

type checkInRequest struct {
	ItemID            string    `json:"item_id" binding:"required"`
	DayOffset         int       `json:"day_offset"`
	VerificationScore *float64  `json:"verification_score"`
	Photo             string    `json:"photo"` // data URI, scored when no score is given
	Notes             *string   `json:"notes"`
	At                time.Time `json:"at"`
}

func (h *CheckInController) Create(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	usePhoto := req.VerificationScore == nil && req.Photo != "" && h.Verifier != nil
	if req.VerificationScore == nil && !usePhoto {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verification_score or photo is required"})
		return
	}
	sub := services.CheckInSubmission{
		PlanID:    c.Param("id"),
		UserID:    uid,
		ItemID:    req.ItemID,
		DayOffset: req.DayOffset,
		Notes:     req.Notes,
		At:        req.At,
	}
	if req.VerificationScore != nil {
		sub.VerificationScore = *req.VerificationScore
	}

	// nothing is charged for a submission that would be rejected anyway
	item, err := h.CheckIns.Check(ctx, sub)
	if err != nil {
		respondError(c, err)
		return
	}

	var charged *engine.QuotaStatus
	if usePhoto {
		st, score, ok := h.scorePhoto(c, uid, item, req.Photo)
		if !ok {
			return
		}
		charged = &st
		sub.VerificationScore = score
	}

	ci, err := h.CheckIns.Record(ctx, sub)
	if err != nil {
		if charged != nil {
			h.refund(c, uid, *charged)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ci)
}

// scorePhoto spends one scan from the user's quota and asks the verifier
// for a score under its own timeout. The scan is refunded when the
// verifier fails.
func (h *CheckInController) scorePhoto(c *gin.Context, uid uint, item *models.PlanItem, photo string) (engine.QuotaStatus, float64, bool) {
	ctx := c.Request.Context()
	st, err := h.Quota.CheckAndConsume(ctx, engine.QuotaRequest{
		UserID:   uid,
		Resource: engine.ResourceScan,
		Amount:   1,
		Limit:    h.Tiers.Limit(tierFromCtx(c), engine.ResourceScan),
	})
	if err != nil {
		respondError(c, err)
		return st, 0, false
	}
	if !st.Allowed {
		c.JSON(http.StatusTooManyRequests, st)
		return st, 0, false
	}

	vctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()
	score, err := h.Verifier.Score(vctx, photo, item.Name)
	if err != nil {
		h.refund(c, uid, st)
		if engine.IsValidation(err) {
			respondError(c, err)
			return st, 0, false
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "photo verification failed: " + err.Error()})
		return st, 0, false
	}
	return st, score, true
}

func (h *CheckInController) refund(c *gin.Context, uid uint, charged engine.QuotaStatus) {
	// the request may already be cancelled; the refund still has to land
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.Quota.Refund(ctx, uid, charged, 1); err != nil {
		_ = c.Error(err)
	}
}
