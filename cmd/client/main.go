package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iudanet/fieldsync/internal/client/api"
	"github.com/iudanet/fieldsync/internal/client/auth"
	"github.com/iudanet/fieldsync/internal/client/cli"
	"github.com/iudanet/fieldsync/internal/client/iocli"
	"github.com/iudanet/fieldsync/internal/client/optimistic"
	"github.com/iudanet/fieldsync/internal/client/queue"
	"github.com/iudanet/fieldsync/internal/client/storage/boltdb"
	"github.com/iudanet/fieldsync/internal/client/syncengine"
	"github.com/iudanet/fieldsync/internal/models"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "fieldsync-client.db", "Path to local database")
	accessKey := flag.String("access-key", "", "Access key (not recommended, use env var or file)")
	accessKeyFile := flag.String("access-key-file", "", "Path to file containing access key")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	// Локальное хранилище очереди, кеша сущностей и сессии
	boltStorage, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	apiClient := api.NewClient(*serverURL)
	authService := auth.NewService(apiClient, auth.NewAuthStore(boltStorage), logger)
	queueStore := queue.NewStore(boltStorage, boltStorage, logger)
	manager := optimistic.NewManager(boltStorage, boltStorage, queueStore, logger)
	engine := syncengine.NewEngine(queueStore, manager, apiClient, authService, boltStorage, boltStorage, syncengine.Config{}, logger)
	engine.SetFailureHandler(func(op *models.RollbackOperation) {
		fmt.Fprintf(os.Stderr, "Sync failed permanently: %s\n", op.ConfirmationMessage)
	})

	stdio := iocli.NewStdio()
	c := cli.New(stdio, apiClient, authService, queueStore, manager, engine, boltStorage)

	keys := cli.AccessKeys{
		FromFile: *accessKeyFile,
		FromArgs: *accessKey,
	}

	c.Run(ctx, command, args[1:], keys)
}

func printVersion() {
	fmt.Printf("FieldSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
