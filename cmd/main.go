package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"complaintbot/backend/internal/api/handler"
	"complaintbot/backend/internal/complaint"
	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/hub"
	"complaintbot/backend/internal/intake"
	"complaintbot/backend/internal/localization"
	"complaintbot/backend/internal/logger"
	"complaintbot/backend/internal/metrics"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/moderation"
	"complaintbot/backend/internal/render"
	"complaintbot/backend/internal/session"
	"complaintbot/backend/internal/storage"
	"complaintbot/backend/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// setupDependencies підключає необов'язкові Postgres та Redis.
// Повертає nil для вимкнених сервісів.
func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage.Service, *redis.Client) {
	var archive *storage.Service
	var rdb *redis.Client

	if cfg.ArchiveEnabled() {
		db, err := storage.OpenPostgres(cfg.DSN())
		if err != nil {
			log.Fatal("failed to connect PostgreSQL", zap.Error(err))
		}
		archive = storage.NewStorageService(db, nil)
		if err := archive.Migrate(); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
		log.Info("decision archive enabled", zap.String("db_host", cfg.DBHost))
	}

	if cfg.RelayEnabled() {
		var err error
		rdb, err = storage.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal("failed to connect Redis", zap.Error(err))
		}
		log.Info("feed relay enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	return archive, rdb
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Логер ще не налаштований: пишемо в stdout з рівнем за замовчуванням
		logger.New("info", "").Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.LogFile)
	defer log.Sync()
	log.Info("starting complaint bot", zap.String("lang", cfg.Lang), zap.Int64("admin_id", cfg.AdminID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Ініціалізація залежностей
	archive, rdb := setupDependencies(ctx, cfg, log)

	localizer, err := localization.Default()
	if err != nil {
		log.Fatal("failed to load message catalogs", zap.Error(err))
	}
	r := render.New(localizer, cfg.Lang)
	store := session.NewStore()

	bot, err := telegram.NewBotAPI(cfg.BotToken, log)
	if err != nil {
		log.Fatal("failed to start Telegram bot", zap.Error(err))
	}
	client := telegram.NewClient(bot, cfg.ChannelID, r, log)

	// 2. Стрічка модерації для дашбордів
	var relay hub.Relay
	if rdb != nil {
		relay = storage.NewFeedRelay(rdb, log)
	}
	feed := hub.NewFeed(relay, log)

	// 3. Модерація, анкета та маршрутизація
	sinks := moderation.Sinks{
		Admin:     client,
		Publisher: client,
		Notifier:  client,
		Feed:      feed,
	}
	var archiveAPI storage.Archive
	if archive != nil {
		sinks.Archive = archive
		archiveAPI = archive
	}
	workflow := moderation.New(store, sinks, cfg.AdminID, r, log,
		moderation.WithDescriptionMax(cfg.DescriptionMax),
		moderation.WithObjectionURL(cfg.ObjectionURL()),
	)
	machine := intake.NewMachine(store, workflow, r, log, intake.WithDescriptionMax(cfg.DescriptionMax))
	svc := complaint.NewService(machine, workflow, r, log)

	manager := hub.NewManagerService(func(ctx context.Context, ev models.Event) {
		out := svc.Handle(ctx, ev)
		client.Deliver(ctx, out.Prompts)
	}, cfg.ActorIdleTimeout, log)

	metrics.Register()
	metrics.RegisterGauges(metrics.Gauges{
		Sessions:   func() int { return store.Stats().Sessions },
		Drafts:     func() int { return store.Stats().Drafts },
		Pending:    workflow.Len,
		AdminTasks: func() int { st := store.Stats(); return st.Editing + st.Rejections },
	})

	// 4. Запуск основних Goroutines
	managerDone := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(managerDone)
	}()
	go feed.Run(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	botService := telegram.NewBotService(bot, manager.IncomingCh, client, log)
	go botService.Run(ctx, bot.GetUpdatesChan(u))

	// 5. HTTP-сервер
	h := handler.NewHandler(ctx, workflow, archiveAPI, feed, cfg.JWTSecret, cfg.AdminAPIKey, log)
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        h.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	bot.StopReceivingUpdates()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", zap.Error(err))
	}

	select {
	case <-managerDone:
	case <-shutdownCtx.Done():
		log.Warn("event workers did not drain in time")
	}
	if rdb != nil {
		rdb.Close()
	}
	log.Info("stopped")
}
