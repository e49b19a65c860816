package glossary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrTermNotFound is returned when a term id is not in the store
var ErrTermNotFound = errors.New("term not found")

// TermRecord is the persisted form of a term. Seq keeps insertion order.
type TermRecord struct {
	Seq        uint      `gorm:"primaryKey;autoIncrement"`
	ID         string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	Term       string    `gorm:"type:varchar(255);not null"`
	Definition string    `gorm:"type:text"`
	Permalink  string    `gorm:"type:varchar(1024)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName overrides the default table name
func (TermRecord) TableName() string {
	return "terms"
}

func (r TermRecord) toTerm() model.Term {
	return model.Term{
		ID:         r.ID,
		Term:       r.Term,
		Definition: r.Definition,
		Permalink:  r.Permalink,
	}
}

// Store keeps the glossary in a SQLite database
type Store struct {
	db *gorm.DB
}

// OpenStore opens (and migrates) the SQLite database at path
func OpenStore(path string, log *logrus.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if log != nil {
		cfg.Logger = logger.New(&logrusWriter{log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		})
	}

	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open term store: %w", err)
	}
	return NewStoreWithDB(db)
}

// NewStoreWithDB wraps an existing connection and migrates the schema
func NewStoreWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&TermRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate term store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Terms implements Source
func (s *Store) Terms(ctx context.Context) ([]model.Term, error) {
	return s.List(ctx)
}

// List returns all terms in insertion order
func (s *Store) List(ctx context.Context) ([]model.Term, error) {
	var records []TermRecord
	if err := s.db.WithContext(ctx).Order("seq asc").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list terms: %w", err)
	}

	terms := make([]model.Term, 0, len(records))
	for _, r := range records {
		terms = append(terms, r.toTerm())
	}
	return terms, nil
}

// Get returns a single term by id
func (s *Store) Get(ctx context.Context, id string) (model.Term, error) {
	var r TermRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Term{}, fmt.Errorf("%w: %s", ErrTermNotFound, id)
		}
		return model.Term{}, err
	}
	return r.toTerm(), nil
}

// Create adds a new term and returns it with its assigned id
func (s *Store) Create(ctx context.Context, t model.Term) (model.Term, error) {
	t = Normalize(t)
	if err := Validate(t); err != nil {
		return model.Term{}, err
	}

	r := TermRecord{ID: t.ID, Term: t.Term, Definition: t.Definition, Permalink: t.Permalink}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return model.Term{}, fmt.Errorf("failed to create term %q: %w", t.Term, err)
	}
	return t, nil
}

// Upsert creates the term or updates the existing row with the same id.
// Updated rows keep their position.
func (s *Store) Upsert(ctx context.Context, t model.Term) (model.Term, error) {
	t = Normalize(t)
	if err := Validate(t); err != nil {
		return model.Term{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsert(tx, t)
	})
	if err != nil {
		return model.Term{}, fmt.Errorf("failed to upsert term %q: %w", t.Term, err)
	}
	return t, nil
}

// Import upserts a batch of terms in one transaction and returns how many were written
func (s *Store) Import(ctx context.Context, terms []model.Term) (int, error) {
	prepared, err := Prepare(terms)
	if err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range prepared {
			if err := upsert(tx, t); err != nil {
				return fmt.Errorf("term %q: %w", t.Term, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import terms: %w", err)
	}
	return len(prepared), nil
}

// Delete removes a term by id
func (s *Store) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&TermRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete term: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrTermNotFound, id)
	}
	return nil
}

func upsert(tx *gorm.DB, t model.Term) error {
	var existing TermRecord
	err := tx.Where("id = ?", t.ID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		r := TermRecord{ID: t.ID, Term: t.Term, Definition: t.Definition, Permalink: t.Permalink}
		return tx.Create(&r).Error
	case err != nil:
		return err
	}

	return tx.Model(&existing).Updates(map[string]interface{}{
		"term":       t.Term,
		"definition": t.Definition,
		"permalink":  t.Permalink,
	}).Error
}

// logrusWriter forwards gorm log lines to logrus
type logrusWriter struct {
	logger *logrus.Logger
}

func (w *logrusWriter) Printf(format string, args ...interface{}) {
	w.logger.Debugf(format, args...)
}
