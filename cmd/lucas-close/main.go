// Command lucas-close is the cron-style companion to the server: it
// evaluates report eligibility for the current date, runs whichever
// period closes are due and exits. Safe to run repeatedly; closed
// periods are gated by durable markers.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"lucas/internal/amqp"
	"lucas/internal/app"
	"lucas/internal/config"
	"lucas/internal/kvstore"
	"lucas/internal/log"
	"lucas/internal/report"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: log.DefaultConfig().Level, Component: log.ComponentReport})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	storeRes, err := kvstore.Open(kvstore.Config{
		Type:         kvstore.BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	var publisher report.ExportPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without export handoff", "error", err)
		} else {
			publisher = client
			defer client.Close()
		}
	}

	application := app.New(storeRes.Store, app.Options{
		StrictCategoryDelete: cfg.StrictCategoryDelete,
		Publisher:            publisher,
		Cleanup:              storeRes.Cleanup,
	})
	defer application.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	elig, err := application.Eligibility(ctx)
	if err != nil {
		logger.Error("Failed to evaluate report eligibility", "error", err)
		os.Exit(1)
	}
	logger.Info("Report eligibility", "monthly", elig.Monthly, "annual", elig.Annual)

	failed := false
	if elig.Monthly {
		snap, err := application.CloseMonth(ctx)
		if err != nil {
			logger.Error("Monthly close failed", "error", err)
			failed = true
		} else {
			logger.Info("Monthly close done", "period_label", snap.PeriodLabel)
		}
		// Closing December can open the annual gate within the same run.
		if elig, err = application.Eligibility(ctx); err != nil {
			logger.Error("Failed to re-evaluate report eligibility", "error", err)
			os.Exit(1)
		}
	}
	if elig.Annual {
		snaps, err := application.CloseYear(ctx)
		if err != nil {
			logger.Error("Annual rollup failed", "error", err)
			failed = true
		} else {
			logger.Info("Annual rollup done", "periods", len(snaps))
		}
	}

	if failed {
		os.Exit(1)
	}
}
