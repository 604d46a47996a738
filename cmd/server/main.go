package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/fieldsync/internal/crypto"
	"github.com/iudanet/fieldsync/internal/models"
	"github.com/iudanet/fieldsync/internal/server"
	"github.com/iudanet/fieldsync/internal/server/config"
	"github.com/iudanet/fieldsync/internal/server/jwt"
	"github.com/iudanet/fieldsync/internal/server/storage/sqlite"
	"github.com/iudanet/fieldsync/internal/server/ws"
	"github.com/iudanet/fieldsync/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	provision := flag.String("provision", "", "Provision a coordinator account (coordinator-id:access-key) and exit")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger, *provision); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, provision string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	if provision != "" {
		return provisionCoordinator(ctx, logger, store, provision)
	}

	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.StepUpTokenTTL,
	)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.NewRouter(logger, cfg, store, jwtService, hub, Version),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.Server.Addr()),
			slog.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// provisionCoordinator создает учетную запись координатора.
// Регистрационного эндпоинта нет: учетки заводит оператор сервера.
func provisionCoordinator(ctx context.Context, logger *slog.Logger, store *sqlite.Storage, spec string) error {
	coordinatorID, accessKey, ok := strings.Cut(spec, ":")
	if !ok {
		return fmt.Errorf("provision spec must be coordinator-id:access-key")
	}

	if err := validation.ValidateCoordinatorID(coordinatorID); err != nil {
		return fmt.Errorf("invalid coordinator id: %w", err)
	}
	if err := validation.ValidateAccessKey(accessKey); err != nil {
		return fmt.Errorf("invalid access key: %w", err)
	}

	keyHash, err := crypto.HashAccessKey(accessKey)
	if err != nil {
		return fmt.Errorf("failed to hash access key: %w", err)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate storage salt: %w", err)
	}

	coordinator := &models.Coordinator{
		ID:            uuid.New().String(),
		CoordinatorID: coordinatorID,
		AccessKeyHash: keyHash,
		StorageSalt:   base64.StdEncoding.EncodeToString(salt),
		CreatedAt:     time.Now(),
	}

	if err := store.CreateCoordinator(ctx, coordinator); err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}

	logger.Info("coordinator provisioned",
		slog.String("coordinator_id", coordinatorID))
	fmt.Printf("Coordinator %s provisioned\n", coordinatorID)
	return nil
}

func printVersion() {
	fmt.Printf("FieldSync Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
