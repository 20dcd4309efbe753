package historydb

import "context"

// Recall answers the /history and /dirs commands from the two stores.
type Recall struct {
	Dirs    *DirStore
	Prompts *PromptStore
}

// RecentInputs lists inputs oldest first, the way a shell prints history.
func (r Recall) RecentInputs(ctx context.Context, limit int) ([]string, error) {
	entries, err := r.Prompts.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i].Text)
	}
	return out, nil
}

func (r Recall) RecentDirs(ctx context.Context, limit int) ([]string, error) {
	entries, err := r.Dirs.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out, nil
}
