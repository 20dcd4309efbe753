package migration

// PromptHistoryLimit is how many input lines survive between runs.
const PromptHistoryLimit = 1000

func prunePromptHistory(m *Migration) error {
	res := m.DB.Exec(`DELETE FROM prompt_history WHERE id NOT IN (
		SELECT id FROM prompt_history ORDER BY created_at DESC, id DESC LIMIT ?
	)`, PromptHistoryLimit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		m.Log("pruned ", res.RowsAffected, " prompt history rows")
	}
	return nil
}
