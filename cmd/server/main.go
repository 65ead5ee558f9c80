package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/UkralStul/car-reviews-service/api"
	"github.com/UkralStul/car-reviews-service/internal/access"
	"github.com/UkralStul/car-reviews-service/internal/catalog"
	"github.com/UkralStul/car-reviews-service/internal/config"
	"github.com/UkralStul/car-reviews-service/internal/logging"
	"github.com/UkralStul/car-reviews-service/internal/storage"
	"github.com/UkralStul/car-reviews-service/internal/storage/inmemory"
	"github.com/UkralStul/car-reviews-service/internal/storage/postgres"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	storage string
	seed    bool
	envFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "server",
		Short: "REST API for countries, car manufacturers, cars and their comments",
		Long: `Serves CRUD endpoints for countries, manufacturers, cars and comments,
with CSV and XLSX export of every collection.

Reads are open to everyone. Writes need "Authorization: Token <API_ACCESS_TOKEN>",
except creating a comment.

Examples:
  server --seed                                # in-memory storage with demo data
  DATABASE_URL=postgres://... server --storage postgres`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("storage") {
				// Флаг важнее переменной STORAGE
				if err := os.Setenv("STORAGE", opts.storage); err != nil {
					return err
				}
			}
			return run(opts)
		},
	}

	cmd.Flags().StringVar(&opts.storage, "storage", config.StorageInMemory, "Storage type (in-memory or postgres), overrides STORAGE")
	cmd.Flags().BoolVar(&opts.seed, "seed", false, "Fill the storage with demo data on startup")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "Optional dotenv file, its values overwrite the environment")
	return cmd
}

func run(opts options) error {
	envErr := godotenv.Overload(opts.envFile)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", opts.envFile, envErr)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envErr == nil {
		slog.Info("loaded env file (overwriting existing env vars)", "file", opts.envFile)
	}
	slog.Info("configuration loaded", "config", cfg.String())

	store, closeStore, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	service := catalog.NewService(store)
	if opts.seed {
		if err := fillWithMockData(context.Background(), service); err != nil {
			return err
		}
	}

	policy := access.Policy{Token: cfg.Auth.Token, AllowWhenUnset: cfg.Auth.AllowWhenUnset}
	switch {
	case policy.Token != "":
	case policy.AllowWhenUnset:
		slog.Warn("API_ACCESS_TOKEN is not set and AUTH_ALLOW_WHEN_UNSET=true: writes are open to everyone")
	default:
		slog.Warn("API_ACCESS_TOKEN is not set: all token-protected writes will be rejected")
	}

	server := &http.Server{
		Addr: cfg.Server.Addr(),
		Handler: api.NewServer(service, api.Options{
			Policy:         policy,
			RequestTimeout: cfg.Server.RequestTimeout,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", server.Addr, "storage", cfg.Storage.Backend)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

// openStorage создаёт хранилище и функцию для его закрытия.
func openStorage(cfg *config.Config) (storage.Storage, func(), error) {
	if cfg.Storage.Backend != config.StoragePostgres {
		return inmemory.New(), func() {}, nil
	}

	store, err := postgres.New(cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Debug:           logging.ParseLevel(cfg.Logging.Level) == slog.LevelDebug,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	slog.Info("connected to database")

	return store, func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}, nil
}
