package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriplan/config"
	"nutriplan/controllers"
	"nutriplan/observability"
	"nutriplan/routes"
	"nutriplan/services"
	"nutriplan/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	tiers, err := config.LoadTiers(cfg.TiersFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	var store services.QuotaStore = services.NewGormQuotaStore(db)
	if cfg.QuotaBackend == config.BackendBadger {
		bcfg := storage.DefaultConfig(cfg.BadgerPath)
		bcfg.Logger = log
		bdb, err := storage.Open(bcfg)
		if err != nil {
			return err
		}
		defer bdb.Close()
		store = services.NewBadgerQuotaStore(bdb.DB)
	}
	log.Info("quota backend", zap.String("backend", string(cfg.QuotaBackend)))

	hub := services.NewRealtimeHub()
	sinks := []services.CompletionSink{hub}
	if cfg.SNSCompletionTopicARN != "" {
		push, err := services.NewPushService(ctx, cfg.AWSRegion, cfg.SNSCompletionTopicARN)
		if err != nil {
			return err
		}
		sinks = append(sinks, push)
	}
	bus := services.NewEventBus(log, metrics, sinks...)

	// photo verification is optional; check-ins still accept a supplied score
	var verifier *services.RekognitionService
	if v, err := services.NewRekognitionService(ctx, cfg.AWSRegion); err != nil {
		log.Warn("photo verification disabled", zap.Error(err))
	} else {
		verifier = v
	}

	plans := services.NewPlanService(db, cfg.CutoffHour, log)
	completion := services.NewCompletionService(db, bus, cfg.CutoffHour, cfg.MinVerificationScore, log, metrics)
	checkIns := services.NewCheckInService(db, log)
	records := services.NewDailyRecordService(db, cfg.GoalTolerancePct, cfg.StreakGrace, log, metrics)
	analytics := services.NewAnalyticsService(db, checkIns, records, cfg.CutoffHour, cfg.MinVerificationScore)
	ledger := services.NewQuotaLedger(store, log, metrics)

	checkInCtl := controllers.NewCheckInController(checkIns, ledger, tiers, nil, cfg.VerifyTimeout)
	if verifier != nil {
		checkInCtl.Verifier = verifier
	}

	r := routes.SetupRouter(routes.Deps{
		JWTSecret: []byte(cfg.JWTSecret),
		Gatherer:  reg,
		Log:       log,
		Plans:     controllers.NewPlanController(plans, completion, analytics),
		CheckIns:  checkInCtl,
		Records:   controllers.NewDailyRecordController(records),
		Quota:     controllers.NewQuotaController(ledger, tiers),
		Analytics: controllers.NewAnalyticsController(analytics),
		Realtime:  controllers.NewRealtimeController(hub),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
