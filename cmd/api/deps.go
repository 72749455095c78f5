package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	jwtauth "treatment-cases/internal/adapters/auth/jwt"
	"treatment-cases/internal/adapters/clinics/directory"
	clinicsstatic "treatment-cases/internal/adapters/clinics/static"
	"treatment-cases/internal/adapters/notify/logsender"
	"treatment-cases/internal/adapters/notify/redisstream"
	"treatment-cases/internal/adapters/notify/webhook"
	mem "treatment-cases/internal/adapters/storage/memory"
	pg "treatment-cases/internal/adapters/storage/postgres"
	sqlitestore "treatment-cases/internal/adapters/storage/sqlite"
	"treatment-cases/internal/config"
	"treatment-cases/internal/domain/cases"
	"treatment-cases/internal/platform/logger"
	"treatment-cases/internal/ports/auth"
	"treatment-cases/internal/ports/clinics"
	"treatment-cases/internal/ports/notify"
)

type store struct {
	Repo cases.Repository
	db   *sql.DB
}

func (s *store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool) (*store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := pg.Open(cfg.DBDSN, pg.PoolOptions{
			MaxOpenConns: cfg.DBMaxOpen,
			MaxIdleConns: cfg.DBMaxIdle,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if migrate {
			if err := pg.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return &store{Repo: pg.NewCasesRepo(db), db: db}, nil

	case config.DriverSQLite:
		// sqlite siempre aplica el schema al abrir
		db, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &store{Repo: sqlitestore.NewCasesRepo(db), db: db}, nil

	default:
		return &store{Repo: mem.NewCaseRepo()}, nil
	}
}

func newClinicLookup(cfg *config.Config) (clinics.Lookup, error) {
	if strings.TrimSpace(cfg.ClinicDirectoryURL) != "" {
		return directory.NewClient(directory.Config{
			BaseURL: cfg.ClinicDirectoryURL,
			APIKey:  cfg.ClinicDirectoryKey,
		})
	}
	if strings.TrimSpace(cfg.ClinicsSeedFile) != "" {
		return clinicsstatic.LoadFile(cfg.ClinicsSeedFile)
	}
	return clinicsstatic.Demo(), nil
}

func newNotifier(cfg *config.Config, log logger.Logger) (notify.Sender, func(), error) {
	noop := func() {}

	switch cfg.NotifyMode {
	case config.NotifyWebhook:
		s, err := webhook.New(webhook.Config{
			URL:     cfg.NotifyWebhookURL,
			Secret:  cfg.NotifySecret,
			Timeout: cfg.NotifyTimeout,
		})
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case config.NotifyRedis:
		s, err := redisstream.NewFromURL(cfg.RedisURL, redisstream.Options{Stream: cfg.RedisStream})
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil

	default:
		return logsender.New(log.With(map[string]any{"component": "notify"})), noop, nil
	}
}

// newVerifier devuelve nil en dev sin JWT_SECRET (modo X-Debug-*).
func newVerifier(cfg *config.Config) (auth.AuthVerifier, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, nil
	}
	v, err := jwtauth.NewVerifier(jwtauth.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}
