package migration

import (
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"
)

type step struct {
	name string
	run  func(*Migration) error
}

var (
	steps    []step
	initOnce sync.Once
)

// Migration is passed to each migration step. DB is set by RunAll.
type Migration struct {
	DB   *gorm.DB
	step string
}

// Log reports through the default slog logger, tagged with the running step.
func (m *Migration) Log(v ...interface{}) {
	slog.Default().Info(fmt.Sprint(v...), "module", "migration", "step", m.step)
}

func register(name string, run func(*Migration) error) {
	steps = append(steps, step{name: name, run: run})
}

// Init registers the built-in steps once per process.
func Init() {
	initOnce.Do(func() {
		register("prune_prompt_history", prunePromptHistory)
	})
}

// RunAll runs all registered migrations in order. Every step must be safe to
// run on each open; schema is synced separately by db.SyncSchema.
func RunAll(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	ctx := &Migration{DB: db}
	for _, s := range steps {
		ctx.step = s.name
		if err := s.run(ctx); err != nil {
			return fmt.Errorf("migration %s failed: %w", s.name, err)
		}
	}
	return nil
}
