package db

import (
	"database/sql"

	"github.com/tgienger/labtask/internal/models"
)

const taskColumns = "id, title, is_default, created_at, updated_at"

// CreateTask creates a new task
func (db *DB) CreateTask(id, title string, isDefault bool) (*models.Task, error) {
	_, err := db.Exec(`
		INSERT INTO tasks (id, title, is_default) VALUES (?, ?, ?)
	`, id, title, isDefault)
	if err != nil {
		return nil, err
	}
	return db.GetTask(id)
}

// GetTask retrieves a task by ID. It returns nil without error when the
// task does not exist.
func (db *DB) GetTask(id string) (*models.Task, error) {
	t := &models.Task{}
	err := db.QueryRow(`
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &t.Default, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks returns all tasks, the default task first, then in creation order
func (db *DB) ListTasks() ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT ` + taskColumns + `
		FROM tasks
		ORDER BY is_default DESC, created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Default, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// RenameTask updates the title of a task
func (db *DB) RenameTask(id, title string) error {
	_, err := db.Exec(`
		UPDATE tasks SET title = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, title, id)
	return err
}

// DeleteTask deletes a task
func (db *DB) DeleteTask(id string) error {
	_, err := db.Exec("DELETE FROM tasks WHERE id = ?", id)
	return err
}

// EnsureDefaultTask returns the default task, creating it with the given
// id and title when the database has none yet.
func (db *DB) EnsureDefaultTask(id, title string) (*models.Task, error) {
	var existing string
	err := db.QueryRow("SELECT id FROM tasks WHERE is_default = 1").Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		return db.CreateTask(id, title, true)
	case err != nil:
		return nil, err
	}
	return db.GetTask(existing)
}
