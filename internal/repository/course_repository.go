package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aku-labs/academy-api/internal/models"
)

// VirtualCourseRepository manages the virtual course catalogue.
type VirtualCourseRepository struct {
	db *sqlx.DB
}

// NewVirtualCourseRepository constructs the repository.
func NewVirtualCourseRepository(db *sqlx.DB) *VirtualCourseRepository {
	return &VirtualCourseRepository{db: db}
}

// List returns courses, optionally only active ones.
func (r *VirtualCourseRepository) List(ctx context.Context, activeOnly bool) ([]models.VirtualCourse, error) {
	query := `SELECT id, code, name, description, is_active, next_course_id, created_at, updated_at FROM virtual_courses`
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY name ASC"

	var courses []models.VirtualCourse
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list virtual courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *VirtualCourseRepository) FindByID(ctx context.Context, id string) (*models.VirtualCourse, error) {
	const query = `SELECT id, code, name, description, is_active, next_course_id, created_at, updated_at
        FROM virtual_courses WHERE id = $1`
	var course models.VirtualCourse
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks code uniqueness, optionally excluding an ID.
func (r *VirtualCourseRepository) ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM virtual_courses WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a course.
func (r *VirtualCourseRepository) Create(ctx context.Context, course *models.VirtualCourse) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO virtual_courses (id, code, name, description, is_active, next_course_id, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :is_active, :next_course_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create virtual course: %w", err)
	}
	return nil
}

// Update rewrites a course.
func (r *VirtualCourseRepository) Update(ctx context.Context, course *models.VirtualCourse) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE virtual_courses SET code = :code, name = :name, description = :description,
        is_active = :is_active, next_course_id = :next_course_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update virtual course: %w", err)
	}
	return nil
}
