package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parisxmas/icpform/internal/config"
	"github.com/parisxmas/icpform/internal/db"
	"github.com/parisxmas/icpform/internal/handler"
	"github.com/parisxmas/icpform/internal/metrics"
	"github.com/parisxmas/icpform/internal/repository"
	"github.com/parisxmas/icpform/internal/router"
	"github.com/parisxmas/icpform/internal/schema"
	seedpkg "github.com/parisxmas/icpform/internal/seed"
	"github.com/parisxmas/icpform/internal/service"
)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if c := setupLogging(cfg); c != nil {
		defer c.Close()
	}

	// The store connects on first use so the server starts even when the
	// database is still coming up.
	store := db.NewLazy(func(ctx context.Context) (db.Store, error) {
		s, err := db.Open(ctx, db.Options{URI: cfg.StoreURI, Database: cfg.Database, PoolSize: cfg.PoolSize})
		if err == nil {
			log.Printf("Connected to store %s", redact(cfg.StoreURI))
		}
		return s, err
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Printf("Warning: closing store: %v", err)
		}
	}()

	m := metrics.New()

	// Repositories
	subRepo := repository.NewSubmissionRepo(store, cfg.Collection)
	userRepo := repository.NewUserRepo(store)

	// Services
	subOpts := []service.SubmissionOption{service.WithMetrics(m)}
	if cfg.StrictIntake {
		v := schema.NewValidator(schema.WithStrictConditionals(cfg.StrictConditionals))
		subOpts = append(subOpts, service.WithStrictIntake(v))
	}
	subSvc := service.NewSubmissionService(subRepo, subOpts...)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)

	// Handlers
	subH := handler.NewSubmissionHandler(subSvc)
	authH := handler.NewAuthHandler(authSvc)
	healthH := handler.NewHealthHandler(store)

	r := router.New(cfg.JWTSecret, m, subH, authH, healthH)

	// Index creation and admin seeding run in the background so a slow
	// or absent store does not hold up the listener.
	go func() {
		initCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		log.Printf("Background init: creating submission indexes...")
		start := time.Now()
		if err := subRepo.EnsureIndexes(initCtx); err != nil {
			log.Printf("Warning: submission index creation failed: %v", err)
		} else {
			log.Printf("Background init: submission indexes ready (%s)", time.Since(start).Round(time.Millisecond))
		}

		if cfg.JWTSecret == "" {
			log.Printf("Background init: listing is public (no JWT secret)")
			return
		}
		if err := userRepo.EnsureIndexes(initCtx); err != nil {
			log.Printf("Warning: user index creation failed: %v", err)
		}
		if err := authSvc.SeedAdmin(initCtx, cfg.AdminEmail, cfg.AdminPass); err != nil {
			log.Printf("Warning: failed to seed admin: %v", err)
		}
		log.Printf("Background init: all done")
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("ICP form server starting on %s", cfg.HTTPAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// redact hides the password of a store URI for logging.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "<invalid uri>"
	}
	return u.Redacted()
}

func seedCmd(load loader) *cobra.Command {
	var (
		count int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated submissions straight into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			ctx := cmd.Context()
			store, err := db.Open(ctx, db.Options{URI: cfg.StoreURI, Database: cfg.Database, PoolSize: cfg.PoolSize})
			if err != nil {
				return fmt.Errorf("connect to %s: %w", redact(cfg.StoreURI), err)
			}
			defer store.Close(context.Background())

			repo := repository.NewSubmissionRepo(store, cfg.Collection)
			if err := repo.EnsureIndexes(ctx); err != nil {
				log.Printf("Warning: submission index creation failed: %v", err)
			}
			return seedpkg.Run(ctx, repo, count, seed, time.Now(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 100, "Number of submissions to insert")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	return cmd
}
