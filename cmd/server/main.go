package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy/internal/config"
	"github.com/mamadbah2/dairy/internal/domain/records"
	"github.com/mamadbah2/dairy/internal/metrics"
	"github.com/mamadbah2/dairy/internal/repository/mongodb"
	"github.com/mamadbah2/dairy/internal/repository/redisdb"
	"github.com/mamadbah2/dairy/internal/repository/sheets"
	"github.com/mamadbah2/dairy/internal/repository/sqlitedb"
	"github.com/mamadbah2/dairy/internal/scheduler"
	"github.com/mamadbah2/dairy/internal/server/handlers"
	"github.com/mamadbah2/dairy/internal/server/router"
	"github.com/mamadbah2/dairy/internal/service/alerts"
	"github.com/mamadbah2/dairy/internal/service/delivery"
	"github.com/mamadbah2/dairy/internal/service/lifecycle"
	"github.com/mamadbah2/dairy/internal/service/notifications"
	"github.com/mamadbah2/dairy/internal/service/rules"
	"github.com/mamadbah2/dairy/internal/service/settings"
	whatsappclient "github.com/mamadbah2/dairy/pkg/clients/whatsapp"
	"github.com/mamadbah2/dairy/pkg/logger"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	var mongoRepo *mongodb.MongoDBRepository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err = mongodb.NewMongoDBRepository(startCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	}

	var sheetsRepo *sheets.GoogleSheetRepository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(startCtx, cfg.Sheets.CredentialsPath, cfg.Sheets.SpreadsheetID, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	}

	var source records.Source
	switch cfg.Records.Source {
	case config.SourceSheets:
		source = sheets.NewSource(sheetsRepo, baseLogger.Named("repo.sheets.source")).WithLocation(loc)
	default:
		source = mongoRepo
	}
	baseLogger.Info("record source selected", zap.String("source", cfg.Records.Source))

	var settingsRepo settings.Repository = settings.NewMemoryRepository()
	if mongoRepo != nil {
		settingsRepo = mongoRepo
	}
	settingsSvc := settings.NewService(settingsRepo, baseLogger.Named("svc.settings"))

	m := metrics.New()
	engine := rules.NewDefaultEngine(source, baseLogger.Named("svc.rules"), m)

	var feedRepo alerts.Repository
	if mongoRepo != nil {
		feedRepo = mongoRepo
	}
	feed := alerts.NewFeed(feedRepo, baseLogger.Named("svc.feed"))
	if err := feed.Restore(startCtx); err != nil {
		baseLogger.Warn("failed to restore alert feed, starting empty", zap.Error(err))
	}

	stateStore, closeState, err := openStateStore(cfg.State)
	if err != nil {
		baseLogger.Fatal("failed to init notification state store", zap.Error(err))
	}
	defer closeState()
	stateSvc := notifications.NewService(stateStore, feed, baseLogger.Named("svc.notifications")).WithClock(clock)

	var (
		channel delivery.Channel = delivery.NewLogChannel(baseLogger.Named("channel.log"))
		sender  handlers.OutboundSender
	)
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(whatsappclient.Options{
			BaseURL:       cfg.WhatsApp.BaseURL,
			APIVersion:    cfg.WhatsApp.APIVersion,
			AccessToken:   cfg.WhatsApp.AccessToken,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			RetryCount:    cfg.WhatsApp.RetryCount,
		})
		wa := delivery.NewWhatsAppChannel(whatsClient, baseLogger.Named("channel.whatsapp"))
		channel, sender = wa, wa
		baseLogger.Info("whatsapp delivery enabled", zap.Int("recipients", len(cfg.Notifications.Recipients)))
	} else {
		baseLogger.Warn("whatsapp credentials missing, notifications are logged only")
	}

	var (
		auditLog    delivery.AuditLog = delivery.NewMemoryAuditLog()
		auditReader handlers.AuditReader
	)
	switch {
	case mongoRepo != nil:
		auditLog, auditReader = mongoRepo, mongoRepo
	case sheetsRepo != nil:
		auditLog = sheets.NewAuditLog(sheetsRepo)
	}

	notifier := delivery.NewNotifier(channel, cfg.Notifications.Recipients, auditLog, m, baseLogger.Named("svc.delivery")).WithClock(clock)
	pipeline := alerts.NewPipeline(settingsSvc, engine, feed, notifier, m, baseLogger.Named("svc.pipeline")).WithClock(clock)
	worklist := lifecycle.NewService(source, settingsSvc, baseLogger.Named("svc.lifecycle")).WithClock(clock)

	mode, err := scheduler.ParseTriggerMode(cfg.Sessions.TriggerMode)
	if err != nil {
		baseLogger.Fatal("invalid session trigger mode", zap.Error(err))
	}
	sessions, err := scheduler.NewSessionTracker(scheduler.MilkingSessions(
		cfg.Sessions.MorningStart, cfg.Sessions.MorningEnd,
		cfg.Sessions.EveningStart, cfg.Sessions.EveningEnd,
	), mode, cfg.Sessions.CatchupWindow)
	if err != nil {
		baseLogger.Fatal("invalid milking session times", zap.Error(err))
	}

	sched := scheduler.NewScheduler(scheduler.Options{
		EvaluationSpec: cfg.Scheduler.EvaluationSpec,
		SessionSpec:    cfg.Scheduler.SessionSpec,
		Location:       loc,
	}, pipeline, sessions, notifier, settingsSvc, m, baseLogger.Named("scheduler")).WithClock(clock)

	if pruner, ok := stateStore.(*sqlitedb.StateStore); ok && cfg.State.RetentionDays > 0 {
		err := sched.AddMaintenance("0 3 * * *", "prune_alert_state", func(ctx context.Context) error {
			removed, err := pruner.Prune(ctx, clock().AddDate(0, 0, -cfg.State.RetentionDays))
			if err == nil && removed > 0 {
				baseLogger.Info("pruned alert state", zap.Int64("rows", removed))
			}
			return err
		})
		if err != nil {
			baseLogger.Fatal("failed to schedule state pruning", zap.Error(err))
		}
	}

	if _, err := pipeline.Run(startCtx); err != nil {
		baseLogger.Error("initial evaluation failed", zap.Error(err))
	}

	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	httpHandler := router.New(router.Handlers{
		Alerts:   handlers.NewAlertHandler(feed, stateSvc, auditReader, baseLogger.Named("handlers.alerts")),
		Worklist: handlers.NewWorklistHandler(worklist, baseLogger.Named("handlers.worklist")),
		Settings: handlers.NewSettingsHandler(settingsSvc, baseLogger.Named("handlers.settings")),
		Ops:      handlers.NewOpsHandler(pipeline, sender, baseLogger.Named("handlers.ops")),
		Metrics:  m.Handler(),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStateStore selects the notification state backend. The returned
// closer is always safe to call.
func openStateStore(cfg config.StateConfig) (notifications.StateStore, func(), error) {
	switch cfg.Backend {
	case config.StateRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ttl := time.Duration(cfg.RetentionDays) * 24 * time.Hour
		return redisdb.NewStateStore(client, "", ttl), func() { _ = client.Close() }, nil
	case config.StateSQLite:
		store, err := sqlitedb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return notifications.NewMemoryStore(), func() {}, nil
	}
}
