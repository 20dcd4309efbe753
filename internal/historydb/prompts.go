package historydb

import (
	"context"
	"errors"
	"strings"
	"time"

	dbmodel "github.com/prodigisoftwares/ollama-agent/internal/db"

	"gorm.io/gorm"
)

type PromptEntry struct {
	ID        uint
	SessionID string
	Text      string
	CreatedAt time.Time
}

// PromptStore keeps the lines typed at the interactive prompt. Conversation
// turns are never stored here.
type PromptStore struct {
	db *gorm.DB
}

func NewPromptStore(db *gorm.DB) (*PromptStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &PromptStore{db: db}, nil
}

func (s *PromptStore) Append(ctx context.Context, sessionID, text string) error {
	if s == nil || s.db == nil {
		return ErrNotInitialized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	row := dbmodel.PromptHistory{
		SessionID: strings.TrimSpace(sessionID),
		Text:      text,
		CreatedAt: time.Now().UTC().UnixNano(),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Recent returns the newest entries first.
func (s *PromptStore) Recent(ctx context.Context, limit int) ([]PromptEntry, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 20
	}
	rows := make([]dbmodel.PromptHistory, 0, limit)
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]PromptEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, PromptEntry{
			ID:        row.ID,
			SessionID: row.SessionID,
			Text:      row.Text,
			CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
		})
	}
	return out, nil
}
