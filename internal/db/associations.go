package db

// LoadAssociations returns every recorded issue to task association
func (db *DB) LoadAssociations() (map[int]string, error) {
	rows, err := db.Query("SELECT issue_id, task_id FROM issue_tasks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	associations := make(map[int]string)
	for rows.Next() {
		var issueID int
		var taskID string
		if err := rows.Scan(&issueID, &taskID); err != nil {
			return nil, err
		}
		associations[issueID] = taskID
	}
	return associations, rows.Err()
}

// SaveAssociation records that issueID is backed by taskID, replacing any
// previous association of the issue
func (db *DB) SaveAssociation(issueID int, taskID string) error {
	_, err := db.Exec(`
		INSERT INTO issue_tasks (issue_id, task_id) VALUES (?, ?)
		ON CONFLICT(issue_id) DO UPDATE SET task_id = excluded.task_id
	`, issueID, taskID)
	return err
}

// DeleteAssociation removes the association of an issue
func (db *DB) DeleteAssociation(issueID int) error {
	_, err := db.Exec("DELETE FROM issue_tasks WHERE issue_id = ?", issueID)
	return err
}

// ClearAssociations removes every association
func (db *DB) ClearAssociations() error {
	_, err := db.Exec("DELETE FROM issue_tasks")
	return err
}
