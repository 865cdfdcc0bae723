package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/ambient-extractor/internal/ambient"
	"github.com/ironsheep/ambient-extractor/internal/config"
	"github.com/ironsheep/ambient-extractor/internal/httpapi"
	"github.com/ironsheep/ambient-extractor/internal/light"
	"github.com/ironsheep/ambient-extractor/internal/schedule"
	"github.com/ironsheep/ambient-extractor/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	mode := "mcp"
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("ambient-extractor %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "serve":
			mode = "serve"
		case "mcp":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q (see --help)\n", os.Args[1])
			os.Exit(2)
		}
	}

	// Logging goes to stderr; stdout is for MCP protocol
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	log.Debug().
		Str("version", Version).
		Str("built", BuildTime).
		Str("commit", GitCommit).
		Str("mode", mode).
		Msg("ambient-extractor starting")

	var hub *light.Hub
	var action ambient.LightAction
	switch cfg.LightBackend {
	case config.BackendHomeAssistant:
		action = light.NewHomeAssistant(cfg.HomeAssistant.URL, cfg.HomeAssistant.Token, cfg.HomeAssistant.Timeout)
	case config.BackendWebSocket:
		if mode != "serve" {
			log.Fatal().Msg("light backend websocket requires serve mode")
		}
		hub = light.NewHub()
		action = hub
	default:
		action = light.LogAction{}
	}
	log.Info().Str("backend", cfg.LightBackend).Msg("light backend ready")

	svc := ambient.NewService(action, ambient.Options{
		Allow:         cfg.Allow,
		FetchTimeout:  cfg.FetchTimeout,
		MaxImageBytes: cfg.MaxImageBytes,
		Quantize:      cfg.Quantize,
	})
	if len(cfg.Allow.URLs) == 0 && len(cfg.Allow.Dirs) == 0 {
		log.Warn().Msg("allow-list is empty; every image source will be denied")
	}

	if mode == "mcp" {
		// Runs until the client closes stdin.
		srv := server.New(svc, Version)
		if err := srv.Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("mcp server failed")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, svc, hub); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// serve runs the HTTP API, the light hub and the scheduler until ctx is done.
func serve(ctx context.Context, cfg *config.Config, svc *ambient.Service, hub *light.Hub) error {
	sched, err := schedule.New(svc, cfg.Schedules, 0)
	if err != nil {
		return err
	}

	if cfg.LogLevel > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	var lights http.Handler
	if hub != nil {
		lights = hub
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(svc, lights),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var wg sync.WaitGroup
	if hub != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown error")
	}
	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

func printHelp() {
	fmt.Println("ambient-extractor - extract an image's dominant color and brightness and drive a light with them")
	fmt.Println()
	fmt.Println("Usage: ambient-extractor [mcp|serve] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  mcp              Serve MCP over stdin/stdout (default)")
	fmt.Println("  serve            Serve the HTTP API, light WebSocket and schedules")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  AMBIENT_CONFIG                      Optional config file (YAML, JSON or TOML)")
	fmt.Println("  AMBIENT_LOG_LEVEL=debug             Log level (debug, info, warn, error)")
	fmt.Println("  AMBIENT_HTTP_ADDR=:8099             Listen address for serve mode")
	fmt.Println("  AMBIENT_ALLOWLIST_URLS              Comma-separated allowed URL prefixes")
	fmt.Println("  AMBIENT_ALLOWLIST_DIRS              Comma-separated allowed directories")
	fmt.Println("  AMBIENT_FETCH_TIMEOUT=10s           Image download timeout")
	fmt.Println("  AMBIENT_LIGHT_BACKEND=log           log, homeassistant or websocket")
	fmt.Println("  AMBIENT_LIGHT_HOMEASSISTANT_URL     Home Assistant base URL")
	fmt.Println("  AMBIENT_LIGHT_HOMEASSISTANT_TOKEN   Home Assistant long-lived access token")
	fmt.Println()
	fmt.Println("In mcp mode, configure it in your MCP client (e.g., Claude Desktop).")
}
