package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"library-catalog/auth"
	"library-catalog/config"
	"library-catalog/httpapi"
	"library-catalog/library"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var addr, dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LIBRARY_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path (overrides LIBRARY_DB)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log := cfg.NewLogger()

	if err := cfg.EnsureSecret(); err != nil {
		return err
	}
	if cfg.SecretGenerated {
		log.Warn("LIBRARY_JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	hasher, err := auth.NewHasher(cfg.PasswordHasher)
	if err != nil {
		return err
	}
	db, err := library.NewDatabase(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	codec, err := auth.NewTokenCodec(cfg.JWTSecret)
	if err != nil {
		return err
	}
	authn := auth.NewAuthenticator(db, hasher, codec, log)
	catalog := library.NewCatalog(db, log)
	catalog.StrictStatus = cfg.StrictStatus

	api := httpapi.New(catalog, authn, codec, db, log, httpapi.Options{
		CacheMaxAge: cfg.CacheMaxAge,
		CORSOrigins: cfg.CORSOrigins,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":   cfg.Addr,
			"db":     cfg.DBPath,
			"hasher": cfg.PasswordHasher,
		}).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
