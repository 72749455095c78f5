package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"treatment-cases/internal/config"
	"treatment-cases/internal/domain/cases"
	"treatment-cases/internal/platform/logger"
	"treatment-cases/internal/router"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "treatment-cases",
		Short:         "Treatment case API: hospital quotes, case lifecycle and patient selection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema to the configured database (postgres or sqlite)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			if cfg.DBDriver == config.DriverMemory {
				return errors.New("DB_DRIVER=memory has nothing to migrate")
			}

			// openStore ya migra
			st, err := openStore(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer st.Close()

			log.Info("migrations applied", map[string]any{"driver": cfg.DBDriver})
			return nil
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log := newLogger(cfg)

	st, err := openStore(ctx, cfg, cfg.AutoMigrate)
	if err != nil {
		return err
	}
	defer st.Close()

	lookup, err := newClinicLookup(cfg)
	if err != nil {
		return err
	}
	sender, closeSender, err := newNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeSender()

	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("auth running in dev mode: X-Debug-User-ID / X-Debug-Role are trusted", nil)
	}

	svc := cases.NewService(st.Repo, cases.Options{
		Clinics:       lookup,
		Notifier:      sender,
		Logger:        log.With(map[string]any{"component": "cases"}),
		MaxRetries:    cfg.CaseSaveRetries,
		RetryBackoff:  cfg.CaseRetryBackoff,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: router.NewRouter(router.Options{
			AuthVerifier: verifier,
			Logger:       log,
			Service:      svc,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":        srv.Addr,
			"db_driver":   cfg.DBDriver,
			"notify_mode": cfg.NotifyMode,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sigCtx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", map[string]any{"error": err})
	}

	// notificaciones en vuelo
	svc.Wait()
	return nil
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
}
