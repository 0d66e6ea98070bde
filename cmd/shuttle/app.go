package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dai/shuttle/store"
	redisstore "github.com/dai/shuttle/store/redis"
)

// app carries what every command needs once the root command has loaded
// configuration.
type app struct {
	cfg    config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer

	envFile string

	// openStore connects to the backend. Nil means Redis from cfg.
	openStore func(ctx context.Context) (store.Store, error)
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := loadConfig(a.envFile)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, a.errOut)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	if a.openStore == nil {
		a.openStore = a.openRedis
	}
	return nil
}

// withStore opens the store, runs fn, and closes the store.
func (a *app) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			a.logger.Warn("failed to close store", slog.String("error", cerr.Error()))
		}
	}()
	return fn(s)
}

// redisBackend closes the client it was built on.
type redisBackend struct {
	*redisstore.Store
	client *goredis.Client
}

func (b redisBackend) Close() error { return b.client.Close() }

func (a *app) openRedis(ctx context.Context) (store.Store, error) {
	opts, err := goredis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse SHUTTLE_REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)
	s := redisstore.New(client,
		redisstore.WithPrefix(a.cfg.RedisPrefix),
		redisstore.WithLogger(a.logger),
	)
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return redisBackend{Store: s, client: client}, nil
}
