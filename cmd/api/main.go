package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/taskcoin/backend/internal/account"
	"github.com/taskcoin/backend/internal/admin"
	"github.com/taskcoin/backend/internal/auth"
	"github.com/taskcoin/backend/internal/config"
	"github.com/taskcoin/backend/internal/escrow"
	"github.com/taskcoin/backend/internal/notify"
	"github.com/taskcoin/backend/internal/payment"
	"github.com/taskcoin/backend/internal/repository"
	"github.com/taskcoin/backend/internal/router"
	"github.com/taskcoin/backend/internal/submission"
	"github.com/taskcoin/backend/internal/withdrawal"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL. Ensure Postgres is running, e.g. make dev-up", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL")

	// River migrations (queue tables only; app schema ships in schema.sql)
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := repository.NewUserRepo(pool)
	taskRepo := repository.NewTaskRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)
	withdrawalRepo := repository.NewWithdrawalRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)

	// Notification queue
	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewWorker(notificationRepo))
	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.NotifyWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}
	emitter := notify.NewQueueEmitter(func(ctx context.Context, args notify.JobArgs) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}, logger)

	// Services
	accountSvc := account.NewService(userRepo)
	authSvc := auth.NewService(userRepo, cfg.JWTSecret)
	escrowSvc := escrow.NewService(taskRepo, taskRepo, accountSvc)
	submissionSvc := submission.NewService(submissionRepo, taskRepo, submissionRepo, accountSvc, emitter)
	withdrawalSvc := withdrawal.NewService(withdrawalRepo, withdrawalRepo, accountSvc, userRepo, emitter)
	gateway := payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey)
	paymentSvc := payment.NewService(paymentRepo, paymentRepo, accountSvc, gateway, emitter)

	handler := router.New(router.Handlers{
		Auth:        auth.NewHandler(authSvc, logger),
		Account:     account.NewHandler(userRepo, logger),
		Tasks:       escrow.NewHandler(escrowSvc, logger),
		Submissions: submission.NewHandler(submissionSvc, logger),
		Withdrawals: withdrawal.NewHandler(withdrawalSvc, logger),
		Payments:    payment.NewHandler(paymentSvc, logger),
		Notify:      notify.NewHandler(notificationRepo, logger),
		Admin:       admin.NewHandler(userRepo, logger),
	}, authSvc)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(handler)

	// Start River client (drains the notification queue)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	addr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
