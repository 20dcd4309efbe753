package session

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ObservationTag prefixes the text of turns that carry an action result, so
// prompt construction can tell observed output from model-authored text.
const ObservationTag = "[observed output]"

type Turn struct {
	Role   Role
	Text   string
	Result *action.Result
	// Synthetic marks assistant turns written on the user's behalf by a slash
	// command rather than produced by the model.
	Synthetic bool
	At        time.Time
}

func (t Turn) IsObservation() bool {
	return t.Result != nil
}

// State is owned by exactly one interactive run; it is not safe for
// concurrent use.
type State struct {
	ID         string
	WorkingDir string
	Model      string
	History    []Turn
}

func New(workingDir, model string) (*State, error) {
	if strings.TrimSpace(workingDir) == "" {
		return nil, errors.New("working directory is required")
	}
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, err
	}
	return &State{
		ID:         uuid.NewString(),
		WorkingDir: filepath.Clean(abs),
		Model:      strings.TrimSpace(model),
	}, nil
}

// Reset drops the conversation. Working directory and model are kept.
func (s *State) Reset() {
	s.History = nil
}

// Last returns the final n turns, or fewer when the history is shorter.
func (s *State) Last(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	out := make([]Turn, n)
	copy(out, s.History[len(s.History)-n:])
	return out
}
