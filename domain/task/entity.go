package task

import (
	"time"
)

// Default values applied when a task is created without an explicit
// category or priority.
const (
	DefaultCategory = "Personal"
	DefaultPriority = "Medium"
)

// Task represents a single to-do item owned by exactly one user.
type Task struct {
	ID          string     `gorm:"primaryKey;type:text"`
	UserID      string     `gorm:"index;not null;type:text"`
	Title       string     `gorm:"not null;type:text"`
	Description string     `gorm:"type:text"`
	DueDate     *time.Time `gorm:"column:due_date"`
	Category    string     `gorm:"type:text;default:Personal"`
	Priority    string     `gorm:"type:text;default:Medium"`
	Completed   bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// Filter narrows a task listing. Zero-value fields are inactive;
// active filters compose with AND.
type Filter struct {
	Query    string // case-insensitive substring over title OR description
	Category string // exact match
	Priority string // exact match
}

// Stats summarizes completion counts for one user.
type Stats struct {
	Total     int64   `json:"total"`
	Completed int64   `json:"completed"`
	Pending   int64   `json:"pending"`
	Percent   float64 `json:"percent"`
}
