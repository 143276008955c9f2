package app

import (
	"context"
	"fmt"

	"bloodconnect/internal/config"
	"bloodconnect/internal/database"
	"bloodconnect/internal/gateway"
	"bloodconnect/internal/repository"
	"bloodconnect/internal/seed"

	"go.uber.org/zap"
)

// Store is the persistence backend chosen from configuration, with the
// repositories built on top of it.
type Store struct {
	Mode    config.Mode
	Gateway gateway.Gateway
	Repos   *repository.Repositories

	close func() error
}

// OpenStore selects the gateway for cfg.Mode(). SQL schemas are migrated
// on open; demo stores are seeded when DEMO_SEED is on.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	schema := repository.Schema()
	s := &Store{Mode: cfg.Mode(), close: func() error { return nil }}

	switch s.Mode {
	case config.ModeLive:
		s.Gateway = gateway.NewREST(cfg.SupabaseURL, cfg.SupabaseKey, cfg.BackendTimeout, schema, log)

	case config.ModeSQL:
		db, err := database.Connect(cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		s.close = sqlDB.Close
		gw := gateway.NewSQL(db, schema)
		if err := gw.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		s.Gateway = gw

	default:
		s.Gateway = gateway.NewMemory(schema)
	}

	s.Repos = repository.New(s.Gateway)

	if s.Mode == config.ModeDemo && cfg.DemoSeed {
		fx, err := seed.Demo()
		if err != nil {
			return nil, err
		}
		if _, err := seed.Apply(ctx, s.Repos, fx, log); err != nil {
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	log.Info("storage ready", zap.String("mode", string(s.Mode)))
	return s, nil
}

func (s *Store) Close() error {
	return s.close()
}
