package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/toolshare/internal/client/avatar"
	"github.com/dmitrijs2005/toolshare/internal/client/cli"
	"github.com/dmitrijs2005/toolshare/internal/client/client"
	"github.com/dmitrijs2005/toolshare/internal/client/config"
	"github.com/dmitrijs2005/toolshare/internal/client/events"
	"github.com/dmitrijs2005/toolshare/internal/client/services"
	"github.com/dmitrijs2005/toolshare/internal/client/session"
	"github.com/dmitrijs2005/toolshare/internal/client/store"
	"github.com/dmitrijs2005/toolshare/internal/filex"
	"github.com/dmitrijs2005/toolshare/internal/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	dbPath, err := filex.EnsureParentDir(cfg.DatabasePath)
	if err != nil {
		return err
	}
	db, err := store.OpenDatabase(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var st store.Store = store.NewSQLiteStore(db)
	if cfg.StorePassphrase != "" {
		sealed, err := store.NewSealedSQLiteStore(ctx, db, []byte(cfg.StorePassphrase))
		if err != nil {
			return err
		}
		st = sealed
	}

	source := uuid.NewString()

	var broker events.Broker = events.NewLocalBroker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		rb, err := events.NewRedisBroker(ctx, rdb, cfg.RedisChannel, source, logger)
		if err != nil {
			// Without the relay other processes just miss our events.
			logger.Warn(ctx, "redis relay unavailable", "addr", cfg.RedisAddr, "error", err)
		} else {
			broker = rb
		}
	}
	defer broker.Close()

	api := client.NewHTTPClient(cfg.BackendURL, cfg.RequestTimeout, logger)
	manager := session.NewManager(st, api, broker, avatar.NewSQLiteCache(db), logger,
		session.WithSource(source),
		session.WithRequestTimeout(cfg.RequestTimeout),
		session.WithAvatarTimeout(cfg.AvatarTimeout),
	)

	accounts := services.NewAccountService(api, manager)
	directory := services.NewDirectoryService(manager)

	cli.NewApp(manager, accounts, directory, os.Stdin, os.Stdout).Run(ctx)
	return nil
}
