package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"call-manager/internal/audit"
	"call-manager/internal/auth"
	"call-manager/internal/batchcall"
	"call-manager/internal/config"
	"call-manager/internal/httpapi"
	"call-manager/internal/telephony"
	"call-manager/internal/throttle"
	"call-manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "call-manager",
	Short:        "Batch outbound call manager for ElevenLabs ConvAI",
	Long:         "HTTP service that submits, cancels and inspects ElevenLabs batch-calling jobs",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		return err
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	for _, w := range cfg.Warnings() {
		log.Warn(w)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	provider := telephony.NewElevenLabsProvider(telephony.ElevenLabsConfig{
		APIKey:  cfg.ElevenLabs.APIKey,
		BaseURL: cfg.ElevenLabs.BaseURL,
		Timeout: cfg.ElevenLabs.Timeout,
	})

	deps := routeDeps{
		Handlers: httpapi.Handlers{
			Batches: batchcall.NewService(provider),
			Audit:   audit.NewService(audit.NewLogRepo(log)),
		},
		Limiter:     throttle.NewLimiter(cfg.Throttle.RPS, cfg.Throttle.Burst),
		MaxInFlight: cfg.Throttle.MaxInFlight,
		CORSOrigins: cfg.CORS.AllowedOrigins,
		Version:     version,
	}

	if cfg.AuthEnabled() {
		authManager, err := auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			return err
		}
		deps.AuthMW = auth.RequireAccessToken(authManager)
	}

	if cfg.Throttle.RedisAddr != "" {
		rdb, err := throttle.OpenRedis(rootCtx, throttle.RedisConfig{Addr: cfg.Throttle.RedisAddr})
		if err != nil {
			log.Warn("redis unavailable; in-flight cap disabled", "err", err)
		} else {
			defer rdb.Close()
			deps.Redis = rdb
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(log, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ElevenLabs.Timeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"version", version,
			"health", "http://localhost"+srv.Addr+"/health",
			"api_base", "http://localhost"+srv.Addr+"/api/batch-calling",
			"auth", cfg.AuthEnabled(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}
