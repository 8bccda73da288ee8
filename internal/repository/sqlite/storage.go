// Package sqlite is the single-node storage backend built on GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"todolist/internal/logger"
	repo "todolist/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Storage struct {
	db *gorm.DB
}

type txKey struct{}

// New opens the database at path (":memory:" for a throwaway one) and migrates the schema.
func New(path string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Error("Repository: failed to open sqlite database", err, zap.String("path", path))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one connection: sqlite has a single writer and ":memory:" is per connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRecord{}, &groupRecord{}, &membershipRecord{}, &taskRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	logger.Info("Repository: sqlite storage ready", zap.String("path", path))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Repository: failed to close sqlite", err)
		return
	}
	logger.Info("Repository: sqlite storage closed")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Storage) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or the database.
func (s *Storage) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return s.db.WithContext(ctx)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repo.ErrAlreadyExists
	case err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return repo.ErrAlreadyExists
	}
	return err
}
