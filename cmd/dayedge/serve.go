package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/api"
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/scheduler"
)

var templatesDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard, API and scheduled scans",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&templatesDir, "templates", "", "load dashboard templates from this directory instead of the embedded ones")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	log := c.log

	if cfg.Server.APIKey == "" {
		log.Warn("no API key configured, the API is unauthenticated")
	}

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(c.location, log.Named("scheduler"))
		job := scheduler.NewScanJob(c.scanner, cfg.Scan.RunTimeout, log.Named("scheduler"))
		if err := sched.AddJob(cfg.Scheduler.Cron, job); err != nil {
			return fmt.Errorf("scheduling scan: %w", err)
		}
		if cfg.Scheduler.MorningCron != "" {
			morning := scheduler.NewMorningJob(c.scanner, cfg.Scan.RunTimeout, log.Named("scheduler"))
			if err := sched.AddJob(cfg.Scheduler.MorningCron, morning); err != nil {
				return fmt.Errorf("scheduling morning check: %w", err)
			}
		}
		sched.Start()
		log.Info("scheduler started",
			zap.String("cron", cfg.Scheduler.Cron),
			zap.String("morning_cron", cfg.Scheduler.MorningCron),
			zap.String("timezone", c.location.String()),
			zap.Time("next_run", sched.Next()),
		)
	}

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		TemplatesDir: templatesDir,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MetricsPath:  cfg.Metrics.Path,
	}, api.Dependencies{
		Scanner: c.scanner,
		Metrics: c.metrics,
	}, log.Named("http"))
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down DayEdge")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
