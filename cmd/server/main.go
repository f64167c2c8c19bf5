package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyndash/combat-provider/internal/config"
	"github.com/dyndash/combat-provider/internal/dice"
	"github.com/dyndash/combat-provider/internal/domain"
	"github.com/dyndash/combat-provider/internal/handler"
	"github.com/dyndash/combat-provider/internal/hub"
	"github.com/dyndash/combat-provider/internal/scheduler"
	"github.com/dyndash/combat-provider/internal/scraper"
	"github.com/dyndash/combat-provider/internal/service"
	"github.com/dyndash/combat-provider/internal/store"
	pkgconfig "github.com/dyndash/combat-provider/pkg/config"
	pkglog "github.com/dyndash/combat-provider/pkg/log"
	"github.com/dyndash/combat-provider/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
)

var providerInfo = domain.ProviderInfo{
	Name: "5eCombatProvider",
	Info: "Serves party and encounter combat data scraped from markdown files, plus a simulated die, to dashboards.",
	Provides: domain.Provides{
		Dashboards: false,
		Components: false,
		Sources:    true,
		Types:      true,
	},
}

func main() {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	pkglog.Init(cfg.Log)
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting combat-provider")

	ctx, cancel := context.WithCancel(pkglog.WithLogger(context.Background(), logger))
	defer cancel()

	// Initialize asset store
	assets, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("failed to initialize asset store")
	}

	// Initialize hub
	wsHub := hub.NewHub()
	go wsHub.Run()
	defer wsHub.Stop()

	// Initialize service
	docs := store.NewMemoryStore()
	combatSvc := service.NewCombatService(wsHub, docs, dice.NewRoller(nil), scheduler.Real{}, service.Config{
		Info:       providerInfo,
		DiceSource: cfg.Dice.Source,
		Dice: dice.Config{
			TumbleInterval: cfg.Dice.TumbleInterval,
			TumbleCount:    cfg.Dice.TumbleCount,
			SettleDelay:    cfg.Dice.SettleDelay,
		},
	})

	// Load seed data and rosters
	loader := scraper.New(scraper.Config{
		DataDir:          cfg.Data.Dir,
		PartyDir:         cfg.Scraper.PartyDir,
		EncounterDir:     cfg.Scraper.EncounterDir,
		PartyBonuses:     cfg.Scraper.PartyBonuses,
		EncounterBonuses: cfg.Scraper.EncounterBonuses,
		DiceSource:       cfg.Dice.Source,
		Connection: domain.Connection{
			Protocol: "ws",
			Address:  cfg.Server.PublicAddress,
			Endpoint: "/ws",
		},
		Debounce: cfg.Scraper.Debounce,
	}, assets, combatSvc)
	loader.RunAll(ctx)

	if cfg.Scraper.Watch {
		go func() {
			if err := loader.Watch(ctx); err != nil {
				logger.Error().Err(err).Msg("file watcher stopped")
			}
		}()
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	handler.NewHandler(combatSvc, loader, assets).RegisterRoutes(r)
	handler.NewWSHandler(wsHub, combatSvc, cfg.WebSocket).RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     withGzip(r, cfg.HTTP.Gzip),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("combat-provider listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down combat-provider")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("combat-provider stopped")
}

// withGzip compresses REST responses. Websocket upgrades bypass it since
// they need the raw connection.
func withGzip(h http.Handler, enabled bool) http.Handler {
	if !enabled {
		return h
	}
	gz := gzhttp.GzipHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}
