package models

import "time"

// Activity is a class activity offered in one of the academy's areas.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Area        string    `db:"area" json:"area"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Module is a curriculum module with a difficulty level.
type Module struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Level       int       `db:"level" json:"level"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassLog records what a student worked on during a class.
type ClassLog struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	Date          time.Time `db:"date" json:"date"`
	ActivityID    *string   `db:"activity_id" json:"activity_id,omitempty"`
	ModuleID      *string   `db:"module_id" json:"module_id,omitempty"`
	ProgressLevel *int      `db:"progress_level" json:"progress_level,omitempty"`
	ProjectName   *string   `db:"project_name" json:"project_name,omitempty"`
	Description   *string   `db:"description" json:"description,omitempty"`
	WhereLeftOff  *string   `db:"where_left_off" json:"where_left_off,omitempty"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClassLogDetail joins activity and module names for display.
type ClassLogDetail struct {
	ClassLog
	ActivityName *string `db:"activity_name" json:"activity_name,omitempty"`
	ModuleName   *string `db:"module_name" json:"module_name,omitempty"`
}

// ClassLogFilter scopes class log queries.
type ClassLogFilter struct {
	StudentID string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
