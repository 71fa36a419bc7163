// Package storage persists the profile and the conversation history.
package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/easeaico/senior-acido/internal/memory"
)

// Store holds the DB handle and repositories.
type Store struct {
	db        *gorm.DB
	Profiles  memory.ProfileRepo
	Histories memory.HistoryRepo
}

// NewStore connects to PostgreSQL and builds the repositories.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:        db,
		Profiles:  NewProfileRepo(db),
		Histories: NewChatHistoryRepo(db),
	}, nil
}

// NewMemoryStore returns a Store that keeps everything in process memory.
func NewMemoryStore() *Store {
	mem := NewInMemory()
	return &Store{Profiles: mem, Histories: mem}
}

// Persistent reports whether the store is backed by a database.
func (s *Store) Persistent() bool {
	return s.db != nil
}

// Ping checks the database connection. In-memory stores are always reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Migrate enables pgvector and creates the application tables.
func (s *Store) Migrate(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return Migrate(s.db.WithContext(ctx))
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

// Migrate creates the vector extension, the tables and the similarity index.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if err := db.AutoMigrate(&profileModel{}, &chatHistoryModel{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS chat_histories_embedding_idx
		ON chat_histories USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`).Error; err != nil {
		return fmt.Errorf("failed to create embedding index: %w", err)
	}
	return nil
}

// Exec runs raw SQL, such as a migration file.
func (s *Store) Exec(ctx context.Context, sql string) error {
	if s.db == nil {
		return fmt.Errorf("exec requires a database")
	}
	if err := s.db.WithContext(ctx).Exec(sql).Error; err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// HasVectorExtension reports whether pgvector is installed.
func (s *Store) HasVectorExtension(ctx context.Context) (bool, error) {
	if s.db == nil {
		return false, nil
	}
	var exists bool
	err := s.db.WithContext(ctx).
		Raw("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')").
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("failed to check vector extension: %w", err)
	}
	return exists, nil
}
