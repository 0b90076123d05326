package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"RiskSentinel/internal/api"
	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the scheduler, HTTP API and Telegram bot until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("RiskSentinel starting...")

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		engine, reader, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer engine.Store.Close()

		var sender scheduler.Sender
		var tn *notifier.TelegramNotifier
		if cfg.TelegramEnabled() {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sender = tn
		}

		sched := scheduler.NewScheduler(ctx, engine, sender, cfg.DataSource.Symbols, cfg.DataSource.LookbackDays)
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if tn != nil {
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info("Telegram polling started")
		}

		if os.Getenv("RUN_ON_START") == "true" {
			log.Info("RUN_ON_START enabled, executing var task now")
			go sched.RunNow()
		}

		if log.GetLevel() < log.DebugLevel {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr: cfg.API.Listen,
			Handler: api.NewRouter(&api.Handler{
				Engine:       engine,
				Reports:      reader,
				LookbackDays: cfg.DataSource.LookbackDays,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infof("HTTP API listening on %s", cfg.API.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("HTTP server failed")
				cancel()
			}
		}()

		log.Info("RiskSentinel is running. Press Ctrl+C to stop.")
		<-ctx.Done()

		log.Info("shutdown signal received, stopping...")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP server shutdown")
		}
		log.Info("RiskSentinel stopped")
		return nil
	},
}
