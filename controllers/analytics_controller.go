package controllers

import (
	"net/http"
	"time"

	"nutriplan/engine"
	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
}

func NewAnalyticsController(svc *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Svc: svc}
}

// GET /analytics/weekly?week_start=YYYY-MM-DD
// Defaults to the Monday of the current week.
func (h *AnalyticsController) GetWeekly(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	weekStart, ok := parseDay(c, "week_start", engine.StartOfWeek(time.Now()))
	if !ok {
		return
	}
	out, err := h.Svc.Weekly(c.Request.Context(), uid, weekStart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
