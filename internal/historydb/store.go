package historydb

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbmodel "github.com/prodigisoftwares/ollama-agent/internal/db"
)

var ErrNotInitialized = errors.New("history store is not initialized")

// Visit is one row of the directory history.
type Visit struct {
	Path   string
	First  time.Time
	Last   time.Time
	Visits int
}

// DirStore remembers the working directories a session moved into.
type DirStore struct {
	db *gorm.DB
}

// NewDirStore shares db with the other stores; closing it is the caller's job.
func NewDirStore(db *gorm.DB) (*DirStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &DirStore{db: db}, nil
}

// Visit records dir, bumping its counter when it was seen before.
func (s *DirStore) Visit(ctx context.Context, dir string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return errors.New("directory is required")
	}
	dir = filepath.Clean(dir)
	now := time.Now().UTC().Unix()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_accessed_at": now,
			"access_count":     gorm.Expr("dir_history.access_count + 1"),
		}),
	}).Create(&dbmodel.DirHistory{
		Path:            dir,
		FirstAccessedAt: now,
		LastAccessedAt:  now,
		AccessCount:     1,
	}).Error
}

// Recent lists directories by last visit, most recent first. Ties go to the
// more frequently visited one.
func (s *DirStore) Recent(ctx context.Context, limit int) ([]Visit, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []dbmodel.DirHistory
	err := s.db.WithContext(ctx).
		Order("last_accessed_at DESC").
		Order("access_count DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Visit, len(rows))
	for i, row := range rows {
		out[i] = Visit{
			Path:   row.Path,
			First:  time.Unix(row.FirstAccessedAt, 0).UTC(),
			Last:   time.Unix(row.LastAccessedAt, 0).UTC(),
			Visits: row.AccessCount,
		}
	}
	return out, nil
}
