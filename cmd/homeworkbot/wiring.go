package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/homeworkbot/internal/adapter/driven/praktikum"
	redisadapter "github.com/ericfisherdev/homeworkbot/internal/adapter/driven/redis"
	sqliteadapter "github.com/ericfisherdev/homeworkbot/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/homeworkbot/internal/adapter/driven/telegram"
	"github.com/ericfisherdev/homeworkbot/internal/application"
	"github.com/ericfisherdev/homeworkbot/internal/config"
	"github.com/ericfisherdev/homeworkbot/internal/domain/port/driven"
)

// app holds the wired services and the cleanups that release their resources.
type app struct {
	poll    *application.PollService
	journal driven.DeliveryStore
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// openJournal opens the delivery journal and applies migrations. It returns
// nil when the journal is disabled.
func openJournal(cfg *config.Config) (*sqliteadapter.DB, error) {
	if !cfg.HasJournal() {
		slog.Info("delivery journal disabled")
		return nil, nil
	}

	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open delivery journal: %w", err)
	}
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.Info("delivery journal opened", "path", cfg.DBPath)

	return db, nil
}

// buildApp wires adapters and services from cfg.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	db, err := openJournal(cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing delivery journal", "error", closeErr)
			}
		})
		a.journal = sqliteadapter.NewDeliveryRepo(db)
	}

	reviewClient, err := praktikum.NewClient(cfg.APIURL, cfg.PraktikumToken)
	if err != nil {
		a.Close()
		return nil, err
	}

	messenger := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramParseMode)

	var mirrors []driven.Messenger
	if cfg.HasRedisMirror() {
		publisher, err := redisadapter.NewPublisher(ctx, redisadapter.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = publisher.Close() })
		mirrors = append(mirrors, publisher)
		slog.Info("redis mirror enabled", "addr", cfg.RedisAddr, "key", cfg.RedisKey)
	}

	notifier := application.NewNotifier(messenger, a.journal, mirrors...)

	backoff, err := application.NewBackoff(cfg.BackoffInitial, cfg.BackoffMax)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.poll = application.NewPollService(
		reviewClient,
		notifier,
		backoff,
		cfg.PollInterval,
		cfg.ResolveCursor(time.Now()),
		cfg.ReportErrors,
	)

	return a, nil
}
