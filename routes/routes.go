package routes

import (
	"net/http"

	"nutriplan/controllers"
	"nutriplan/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Deps struct {
	JWTSecret []byte
	Gatherer  prometheus.Gatherer
	Log       *zap.Logger

	Plans     *controllers.PlanController
	CheckIns  *controllers.CheckInController
	Records   *controllers.DailyRecordController
	Quota     *controllers.QuotaController
	Analytics *controllers.AnalyticsController
	Realtime  *controllers.RealtimeController
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Log != nil {
		r.Use(middlewares.RequestLogger(d.Log.Named("http")))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/")
	api.Use(middlewares.AuthMiddleware(d.JWTSecret))
	{
		api.POST("/plans", d.Plans.CreatePlan)
		api.GET("/plans/:id", d.Plans.GetPlan)
		api.GET("/plans/:id/state", d.Plans.GetPlanState)
		api.GET("/plans/:id/adherence", d.Plans.GetAdherence)
		api.POST("/plans/:id/checkins", d.CheckIns.Create)

		api.PUT("/records", d.Records.Upsert)
		api.GET("/records", d.Records.History)
		api.GET("/streak", d.Records.Streak)

		api.POST("/quota/consume", d.Quota.Consume)
		api.GET("/quota/:resource", d.Quota.Status)

		api.GET("/analytics/weekly", d.Analytics.GetWeekly)

		api.GET("/ws/events", d.Realtime.EventsWS)
	}
	return r
}
