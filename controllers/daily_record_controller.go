package controllers

import (
	"net/http"
	"time"

	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

type DailyRecordController struct {
	Svc *services.DailyRecordService
}

func NewDailyRecordController(svc *services.DailyRecordService) *DailyRecordController {
	return &DailyRecordController{Svc: svc}
}

// PUT /records
func (h *DailyRecordController) Upsert(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var in services.DailyRecordUpsert
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.UserID = uid

	rec, err := h.Svc.Upsert(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GET /records?from=YYYY-MM-DD&to=YYYY-MM-DD
// Defaults to the 30 days ending today.
func (h *DailyRecordController) History(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	to, ok := parseDay(c, "to", time.Now())
	if !ok {
		return
	}
	from, ok := parseDay(c, "from", to.AddDate(0, 0, -29))
	if !ok {
		return
	}
	if from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}
	rows, err := h.Svc.History(c.Request.Context(), uid, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// GET /streak?today=YYYY-MM-DD
// today is the caller's local date; the server date is used when absent.
func (h *DailyRecordController) Streak(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	today, ok := parseDay(c, "today", time.Now())
	if !ok {
		return
	}
	st, err := h.Svc.Streak(c.Request.Context(), uid, today)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
