package persistence

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/agentrelay/config"
	"github.com/BaSui01/agentrelay/internal/database"
)

// NewStore builds a handover store from configuration. The backend is
// selected by cfg.Store.Type; an empty type falls back to the in-memory
// store.
func NewStore(cfg *config.Config, logger *zap.Logger) (HandoverStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Store.Type {
	case "", "memory":
		return NewMemoryStore(cfg.Store, logger), nil

	case "redis":
		store, err := NewRedisStore(cfg.Store, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		return store, nil

	case "database":
		db, err := openDatabase(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database store: %w", err)
		}
		return NewDatabaseStore(db)

	case "mongo":
		store, err := NewMongoStore(cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("mongo store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

func openDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "mysql":
		dialector = mysql.Open(cfg.DSN())
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	poolCfg := database.DefaultPoolConfig()
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxOpenConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MaxIdleConns = cfg.MaxIdleConns
	}
	if poolCfg.MaxIdleConns > poolCfg.MaxOpenConns {
		poolCfg.MaxIdleConns = poolCfg.MaxOpenConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.ConnMaxLifetime = cfg.ConnMaxLifetime
	}

	pm, err := database.NewPoolManager(db, poolCfg, logger)
	if err != nil {
		return nil, err
	}
	return pm.DB(), nil
}
