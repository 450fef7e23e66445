package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/news-relay/app/api"
	"github.com/lysyi3m/news-relay/app/cfg"
	"github.com/lysyi3m/news-relay/app/database"
	"github.com/lysyi3m/news-relay/app/events"
	"github.com/lysyi3m/news-relay/app/fcm"
	"github.com/lysyi3m/news-relay/app/news"
	"github.com/lysyi3m/news-relay/app/notify"
	"github.com/lysyi3m/news-relay/app/prefs"
	"github.com/lysyi3m/news-relay/app/push"
	"github.com/lysyi3m/news-relay/app/supabase"
	"github.com/lysyi3m/news-relay/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appConfig == nil {
		return
	}

	setupLogger(appConfig.Debug)

	slog.Info("Starting News Relay", "version", appConfig.Version, "timezone", appConfig.Timezone)

	if err := run(appConfig); err != nil {
		slog.Error("News Relay stopped with error", "error", err)
		os.Exit(1)
	}

	slog.Info("News Relay shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func run(appConfig *cfg.Cfg) error {
	source, closeSource, err := openSource(appConfig)
	if err != nil {
		return err
	}
	defer closeSource()

	if !source.Configured() {
		slog.Warn("Article backend credentials are missing, article queries will fail", "source", appConfig.Source)
	}

	storeDB, err := database.OpenSQLite(appConfig.StorePath)
	if err != nil {
		return err
	}
	defer storeDB.Close()

	store, closeStore, err := openPrefs(appConfig, storeDB)
	if err != nil {
		return err
	}
	defer closeStore()

	history, err := notify.NewHistory(storeDB)
	if err != nil {
		return err
	}

	presenter := notify.NewPresenter(buildSurfaces(appConfig, history))
	registrar := push.NewRegistrar(store, registrarOptions(appConfig)...)

	topics, err := cfg.LoadTopics(appConfig.TopicsFile)
	if err != nil {
		return err
	}

	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount, "topics", len(topics))
	scheduler := tasks.NewScheduler(registrar, topics,
		time.Duration(appConfig.SchedulerInterval)*time.Second, appConfig.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	dispatcher := push.NewDispatcher(presenter, registrar, scheduler)
	articles := news.NewService(source, nil)

	handler := api.NewHandler(articles, registrar, dispatcher, history, appConfig.BaseUrl, appConfig.Version)
	server := api.NewServer(handler, api.ServerOptions{
		APIAccessKey:  appConfig.APIAccessKey,
		PushRateLimit: appConfig.PushRateLimit,
		PushRateBurst: appConfig.PushRateBurst,
	})

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server", "port", appConfig.Port, "api_enabled", appConfig.APIAccessKey != "")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if len(appConfig.KafkaBrokers) > 0 {
		consumer := events.NewConsumer(appConfig.KafkaBrokers, appConfig.KafkaTopic, appConfig.KafkaGroup, dispatcher)
		g.Go(func() error {
			defer consumer.Close()
			return consumer.Run(gCtx)
		})
	}

	slog.Info("News Relay started, press Ctrl+C to shutdown")

	return g.Wait()
}

func openSource(appConfig *cfg.Cfg) (news.Source, func(), error) {
	if appConfig.Source != cfg.SourcePostgres {
		slog.Info("Reading articles from Supabase", "url", appConfig.SupabaseURL)
		return supabase.NewClient(appConfig.SupabaseURL, appConfig.SupabaseKey, nil), func() {}, nil
	}

	slog.Info("Connecting to database", "host", appConfig.DBHost, "name", appConfig.DBName)
	db, err := database.NewConnection(appConfig.DBHost, appConfig.DBPort, appConfig.DBUser,
		appConfig.DBPassword, appConfig.DBName)
	if err != nil {
		return nil, nil, err
	}

	if _, _, err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return database.NewArticleRepository(db), func() { db.Close() }, nil
}

func openPrefs(appConfig *cfg.Cfg, storeDB *sql.DB) (prefs.Store, func(), error) {
	if appConfig.RedisAddr != "" {
		store, err := prefs.NewRedisStore(appConfig.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Preferences stored in Redis", "addr", appConfig.RedisAddr)
		return store, func() { store.Close() }, nil
	}

	store, err := prefs.NewSQLiteStore(storeDB)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Preferences stored in SQLite", "path", appConfig.StorePath)
	return store, func() {}, nil
}

func buildSurfaces(appConfig *cfg.Cfg, history *notify.History) notify.Surface {
	surfaces := notify.MultiSurface{
		notify.NewHistorySurface(history),
		notify.NewLogSurface(slog.Default()),
	}

	if appConfig.TelegramBotToken != "" {
		slog.Info("Relaying notifications to Telegram", "chat_id", appConfig.TelegramChatID)
		surfaces = append(surfaces, notify.NewTelegramSurface(appConfig.TelegramBotToken, appConfig.TelegramChatID))
	}

	return surfaces
}

func registrarOptions(appConfig *cfg.Cfg) []push.RegistrarOption {
	var opts []push.RegistrarOption

	if appConfig.FCMServerKey != "" || appConfig.FCMDeviceToken != "" {
		opts = append(opts, push.WithPlatform(fcm.NewClient(appConfig.FCMServerKey, appConfig.FCMDeviceToken)))
	} else {
		slog.Warn("Messaging platform not configured, topic operations will be rejected")
	}

	if appConfig.NewsAPIURL != "" {
		device := push.NewDeviceClient(appConfig.NewsAPIURL, appConfig.NewsAPIToken, nil)
		opts = append(opts, push.WithDevice(device, appConfig.DeviceType, appConfig.UserID))
	} else {
		slog.Warn("News API URL not set, device tokens will not be registered")
	}

	return opts
}
