package db

// DirHistory counts visits to each working directory.
type DirHistory struct {
	Path            string `gorm:"column:path;primaryKey"`
	FirstAccessedAt int64  `gorm:"column:first_accessed_at;not null"`
	LastAccessedAt  int64  `gorm:"column:last_accessed_at;not null"`
	AccessCount     int    `gorm:"column:access_count;not null"`
}

func (DirHistory) TableName() string { return "dir_history" }

// PromptHistory is one line typed at the interactive prompt.
type PromptHistory struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID string `gorm:"column:session_id;not null;default:''"`
	Text      string `gorm:"column:text;not null"`
	CreatedAt int64  `gorm:"column:created_at;not null;default:0"`
}

func (PromptHistory) TableName() string { return "prompt_history" }
