package models

import "time"

// Task is a local unit of work. Exactly one task is the permanent default
// task, which is engaged whenever no other task is.
type Task struct {
	ID        string
	Title     string
	Default   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
