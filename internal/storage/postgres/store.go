package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UkralStul/car-reviews-service/internal/domain"
	"github.com/UkralStul/car-reviews-service/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options - параметры пула соединений и логирования.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// Debug включает логирование всех SQL-запросов gorm.
	Debug bool
}

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	queries
}

// New создает новый экземпляр хранилища PostgreSQL.
func New(dsn string, opts Options) (*Store, error) {
	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}

	// SQL-лог gorm идёт через общий slog-обработчик
	gormLog := logger.New(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	// Выполняем миграцию схемы: внешние ключи с ON DELETE CASCADE
	// и уникальные индексы по lower(name)
	if err := db.AutoMigrate(&domain.Country{}, &domain.Manufacturer{}, &domain.Car{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{queries{db: db}}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Atomic выполняет fn в транзакции gorm. Уникальные индексы ловят гонку
// между проверкой названия и вставкой, если она всё же случится.
func (s *Store) Atomic(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&queries{db: tx})
	})
}
