package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/invoicer-web/internal/config"
)

const connectAttempts = 5

// Open connects to the database described by cfg. Postgres connections are retried
// a few times to give the server time to start.
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	switch cfg.Driver {
	case "", "sqlite":
		log.Info().Str("path", cfg.Path).Msg("opening sqlite database")
		db, err := gorm.Open(sqlite.Open(cfg.Path), gcfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		return db, nil
	case "postgres":
		log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("dbname", cfg.DBName).Str("user", cfg.User).
			Msg("connecting to postgres")
		var db *gorm.DB
		var err error
		for i := 0; i < connectAttempts; i++ {
			db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
			if err == nil {
				return db, nil
			}
			log.Warn().Err(err).Int("attempt", i+1).Msg("database connection failed, retrying")
			time.Sleep(2 * time.Second)
		}
		return nil, fmt.Errorf("connect postgres: %w", err)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
