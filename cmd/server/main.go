package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"hellofeed/internal/cache"
	"hellofeed/internal/config"
	"hellofeed/internal/database"
	"hellofeed/internal/engine"
	"hellofeed/internal/feed"
	"hellofeed/internal/handlers"
	"hellofeed/internal/middleware"
	"hellofeed/internal/store"
	"hellofeed/internal/store/memory"
	"hellofeed/internal/uploader"
	"hellofeed/internal/utils"
	"hellofeed/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))

	metrics := utils.NewMetricsCollector()

	var st store.Store
	switch cfg.Database.Backend {
	case "mongo":
		db, err := database.NewMongoDB(cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			slog.Error("mongodb connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close(context.Background())
		st = db
		slog.Info("connected to mongodb", "database", cfg.Database.Name)
	case "memory":
		st = memory.NewMemoryStore()
		slog.Warn("using in-memory store, data will not survive restarts")
	}

	userCache := cache.NewUserCache(cfg.UserCacheTTL)

	var up *uploader.Uploader
	if cfg.HasCloudinary() {
		up, err = uploader.New(cfg.Cloudinary)
		if err != nil {
			slog.Error("cloudinary init failed", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("cloudinary not configured, media uploads disabled")
	}

	hub := websocket.NewHub()
	go hub.Run()

	// The notification pipeline has its own service handle; the bundled
	// services get the actor-backed notifier so fan-out never blocks them.
	notifications := feed.NewNotificationService(st, userCache, metrics)
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, notifications, hub, metrics)

	services := feed.NewServices(st, eng.Notifier(), userCache, metrics)

	// Every post change also goes out as a coarse invalidation signal so
	// idle clients know to refresh their feed.
	if cancel, err := st.Watch(context.Background(), store.ScopePosts(), func() {
		hub.BroadcastEvent([]byte(`{"type":"feed_changed"}`))
	}); err == nil {
		defer cancel()
	}

	auth := middleware.NewAuthenticator(cfg.JWTSecret)
	server := handlers.NewServer(services, eng, hub, auth, up, metrics)

	handler := middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins))(
		auth.Middleware(server.Routes()),
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("starting server", "addr", addr, "backend", cfg.Database.Backend)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
