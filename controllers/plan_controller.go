package controllers

import (
	"net/http"

	"nutriplan/services"

	"github.com/gin-gonic/gin"
)

type PlanController struct {
	Plans      *services.PlanService
	Completion *services.CompletionService
	Analytics  *services.AnalyticsService
}

func NewPlanController(p *services.PlanService, cs *services.CompletionService, a *services.AnalyticsService) *PlanController {
	return &PlanController{Plans: p, Completion: cs, Analytics: a}
}

func (h *PlanController) CreatePlan(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	var in services.PlanDescriptor
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in.UserID = uid

	plan, err := h.Plans.CreatePlan(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (h *PlanController) GetPlan(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	plan, err := h.Plans.GetPlan(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetPlanState observes the plan first so a crossed boundary fires its
// completion event, then reports the current state.
func (h *PlanController) GetPlanState(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	obs, err := h.Completion.Observe(ctx, uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	st, err := h.Plans.State(ctx, uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"state": st}
	if obs.Event != nil {
		resp["completion_event"] = obs.Event
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PlanController) GetAdherence(c *gin.Context) {
	uid, ok := mustUser(c)
	if !ok {
		return
	}
	out, err := h.Analytics.PlanAdherence(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
