package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"siteauditor/internal/api/v1/handler"
	"siteauditor/internal/api/v1/router"
	"siteauditor/internal/config"
	"siteauditor/internal/debug"
	"siteauditor/internal/log"
	"siteauditor/internal/notify"
	"siteauditor/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit API and metrics servers",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	cfg := config.AppConfig

	svc := service.New(cfg)
	audit := handler.NewAuditHandler(svc, notify.NewWebhook(cfg.WebhookURL))

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router.New(audit),
	}

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           router.NewMetricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Channel to listen for interrupt or terminate signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	//Audit API server
	go func() {
		log.Logger.Info("Server started", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Pprof only enabled in dev env
	if cfg.IsDev == "true" {
		go func() {
			debug.StartPprof(":6060")
		}()
	}

	//Prometheus server
	go func() {
		log.Logger.Info("Metrics server started", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Logger.Fatal("Metrics server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	<-stop
	log.Logger.Info("Shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Logger.Info("Server exited successfully")
}
