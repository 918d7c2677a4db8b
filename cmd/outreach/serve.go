package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/server"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/storage/rediscache"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/storage/sqlite"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/backend"
)

func newServeCmd(a *cliApp) *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference lead service over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := a.logger
			cfg := a.cfg
			if strings.TrimSpace(bind) != "" {
				cfg.Server.Bind = bind
			}

			if err := ensureDBDir(cfg.Database.Path); err != nil {
				return fmt.Errorf("create database dir: %w", err)
			}
			logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
			repo, err := sqlite.Open(cfg.Database.Path)
			if err != nil {
				logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
				return fmt.Errorf("open sqlite repository: %w", err)
			}
			defer func() {
				if closeErr := repo.Close(); closeErr != nil {
					logger.Warn("sqlite close failed", "db_path", cfg.Database.Path, "err", closeErr)
				}
			}()

			var store backend.Repository = repo
			if redisURL := strings.TrimSpace(cfg.Cache.RedisURL); redisURL != "" {
				client, err := rediscache.Dial(ctx, redisURL)
				if err != nil {
					logger.Error("redis connect failed", "err", err)
					return fmt.Errorf("connect lead cache: %w", err)
				}
				defer func() { _ = client.Close() }()
				store = rediscache.New(repo, client, cfg.CacheTTL())
				logger.Info("lead list cache enabled", "ttl", cfg.CacheTTL())
			}

			svc, err := backend.NewService(store, a.now, backend.ServiceConfig{Logger: logger})
			if err != nil {
				return fmt.Errorf("build lead service: %w", err)
			}
			if users := cfg.SeedUsers(); len(users) > 0 {
				if err := svc.SeedUsers(ctx, users); err != nil {
					return fmt.Errorf("seed users: %w", err)
				}
				logger.Info("users seeded", "count", len(users))
			}

			logger.Info("serving lead service", "bind", cfg.Server.Bind, "api", cfg.Server.APIEndpoint)
			err = server.Run(ctx, server.Config{
				HTTPBind:    cfg.Server.Bind,
				APIEndpoint: cfg.Server.APIEndpoint,
			}, server.Dependencies{Service: svc, Logger: logger})
			if err != nil {
				logger.Error("server stopped with error", "err", err)
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address (overrides server.bind)")
	return cmd
}
