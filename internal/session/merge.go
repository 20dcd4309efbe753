package session

import (
	"fmt"
	"time"

	"github.com/prodigisoftwares/ollama-agent/internal/action"
)

var nowFunc = time.Now

// Merge appends user, assistant and, when an action ran, its observed result,
// always in that order.
func Merge(st *State, userText, assistantText string, result *action.Result) {
	merge(st, userText, assistantText, false, result)
}

// MergeUserAction records a slash-command action. The assistant turn holds the
// directive in marker form and is flagged synthetic.
func MergeUserAction(st *State, userText, directiveText string, result action.Result) {
	merge(st, userText, directiveText, true, &result)
}

func merge(st *State, userText, assistantText string, synthetic bool, result *action.Result) {
	if st == nil {
		return
	}
	now := nowFunc().UTC()
	st.History = append(st.History,
		Turn{Role: RoleUser, Text: userText, At: now},
		Turn{Role: RoleAssistant, Text: assistantText, Synthetic: synthetic, At: now},
	)
	if result == nil {
		return
	}
	observed := *result
	st.History = append(st.History, Turn{
		Role:   RoleSystem,
		Text:   ObservationText(observed),
		Result: &observed,
		At:     now,
	})
}

func ObservationText(r action.Result) string {
	status := "succeeded"
	if !r.Success {
		status = "failed"
	}
	return fmt.Sprintf("%s %s %s\n%s", ObservationTag, r.Kind, status, r.Text())
}
