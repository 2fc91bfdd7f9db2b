package db

import (
	"context"
	"database/sql"

	"github.com/dailyyoga/seatsync/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type mysqlDatabase struct {
	logger logger.Logger
	gdb    *gorm.DB
}

// NewMySQL opens the event catalogue database, sizes its pool from cfg and
// checks that it answers. A nil cfg uses DefaultConfig.
func NewMySQL(log logger.Logger, cfg *Config) (Database, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger:      newGormLogger(log, cfg),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, ErrConnection(err)
	}
	pool, err := gdb.DB()
	if err != nil {
		return nil, ErrConnection(err)
	}
	cfg.applyPool(pool)
	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, ErrConnection(err)
	}

	log.Info("event database connected",
		zap.String("addr", cfg.addr()),
		zap.String("database", cfg.Database),
		zap.String("event_table", cfg.EventTable),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)
	return &mysqlDatabase{logger: log, gdb: gdb}, nil
}

func (d *mysqlDatabase) pool() (*sql.DB, error) {
	if d.gdb == nil {
		return nil, ErrConnectionNotEstablished
	}
	pool, err := d.gdb.DB()
	if err != nil {
		return nil, ErrConnection(err)
	}
	return pool, nil
}

func (d *mysqlDatabase) DB() (*gorm.DB, error) {
	if d.gdb == nil {
		return nil, ErrConnectionNotEstablished
	}
	return d.gdb, nil
}

func (d *mysqlDatabase) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (d *mysqlDatabase) Close() error {
	if d.gdb == nil {
		return nil
	}
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}
