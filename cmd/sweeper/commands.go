package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iliyamo/house-rental-booking/internal/app"
	"github.com/iliyamo/house-rental-booking/internal/config"
	"github.com/iliyamo/house-rental-booking/internal/service"
)

func init() {
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Duration("interval", time.Hour, "time between sweeps")
}

var rootCmd = &cobra.Command{
	Use:          "sweeper",
	Short:        "Advance bookings through their date-driven transitions",
	SilenceUsage: true,
}

// ─── sweeper once ───────────────────────────────────────────────────────────

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single sweep and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(func(ctx context.Context, svc *service.BookingService, log *logrus.Logger) error {
			res, err := svc.Sweep(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "activated=%d completed=%d failed=%d\n", res.Activated, res.Completed, res.Failed)
			return err
		})
	},
}

// ─── sweeper run ────────────────────────────────────────────────────────────

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sweep on an interval until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("--interval must be positive, got %s", interval)
		}
		return withService(func(ctx context.Context, svc *service.BookingService, log *logrus.Logger) error {
			log.WithField("interval", interval).Info("sweeper started")
			svc.RunSweeper(ctx, interval)
			log.Info("sweeper stopped")
			return nil
		})
	},
}

// withService builds the service from the environment and runs fn with a
// context cancelled on SIGINT or SIGTERM.
func withService(fn func(ctx context.Context, svc *service.BookingService, log *logrus.Logger) error) error {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.Service, log)
}
