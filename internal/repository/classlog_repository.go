package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aku-labs/academy-api/internal/models"
)

// ClassLogRepository manages class logs plus the activity and module catalogues.
type ClassLogRepository struct {
	db *sqlx.DB
}

// NewClassLogRepository constructs the repository.
func NewClassLogRepository(db *sqlx.DB) *ClassLogRepository {
	return &ClassLogRepository{db: db}
}

const classLogColumns = `cl.id, cl.student_id, cl.date, cl.activity_id, cl.module_id,
        cl.progress_level, cl.project_name, cl.description, cl.where_left_off,
        cl.created_by, cl.created_at, cl.updated_at`

// List returns class logs with activity and module names resolved.
func (r *ClassLogRepository) List(ctx context.Context, filter models.ClassLogFilter) ([]models.ClassLogDetail, int, error) {
	base := `FROM class_logs cl
LEFT JOIN activities a ON a.id = cl.activity_id
LEFT JOIN modules m ON m.id = cl.module_id`
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("cl.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("cl.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("cl.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, a.name AS activity_name, m.name AS module_name
        %s WHERE %s ORDER BY cl.date %s LIMIT %d OFFSET %d`, classLogColumns, base, whereClause, order, size, offset)

	var logs []models.ClassLogDetail
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list class logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count class logs: %w", err)
	}
	return logs, total, nil
}

// FindByID fetches a class log by ID.
func (r *ClassLogRepository) FindByID(ctx context.Context, id string) (*models.ClassLog, error) {
	const query = `SELECT id, student_id, date, activity_id, module_id, progress_level, project_name,
        description, where_left_off, created_by, created_at, updated_at
        FROM class_logs WHERE id = $1`
	var log models.ClassLog
	if err := r.db.GetContext(ctx, &log, query, id); err != nil {
		return nil, err
	}
	return &log, nil
}

// Create inserts a class log.
func (r *ClassLogRepository) Create(ctx context.Context, log *models.ClassLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = now
	}
	log.UpdatedAt = now
	const query = `INSERT INTO class_logs (id, student_id, date, activity_id, module_id, progress_level,
        project_name, description, where_left_off, created_by, created_at, updated_at)
        VALUES (:id, :student_id, :date, :activity_id, :module_id, :progress_level,
        :project_name, :description, :where_left_off, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create class log: %w", err)
	}
	return nil
}

// Update rewrites class log fields.
func (r *ClassLogRepository) Update(ctx context.Context, log *models.ClassLog) error {
	log.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_logs SET date = :date, activity_id = :activity_id, module_id = :module_id,
        progress_level = :progress_level, project_name = :project_name, description = :description,
        where_left_off = :where_left_off, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("update class log: %w", err)
	}
	return nil
}

// Delete removes a class log.
func (r *ClassLogRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM class_logs WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete class log: %w", err)
	}
	return nil
}

// ListActivities returns the activity catalogue, optionally scoped to an area.
func (r *ClassLogRepository) ListActivities(ctx context.Context, area string) ([]models.Activity, error) {
	query := "SELECT id, name, area, description, created_at, updated_at FROM activities"
	args := []interface{}{}
	if area != "" {
		query += " WHERE area = $1"
		args = append(args, area)
	}
	query += " ORDER BY name ASC"
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// CreateActivity appends to the activity catalogue.
func (r *ClassLogRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now
	const query = `INSERT INTO activities (id, name, area, description, created_at, updated_at)
        VALUES (:id, :name, :area, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// UpdateActivity rewrites an activity.
func (r *ClassLogRepository) UpdateActivity(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET name = :name, area = :area, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// ListModules returns the curriculum module catalogue ordered by level.
func (r *ClassLogRepository) ListModules(ctx context.Context, activeOnly bool) ([]models.Module, error) {
	query := "SELECT id, name, level, is_active, description, created_at, updated_at FROM modules"
	if activeOnly {
		query += " WHERE is_active = true"
	}
	query += " ORDER BY level ASC, name ASC"
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

// CreateModule appends to the module catalogue.
func (r *ClassLogRepository) CreateModule(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}
	module.UpdatedAt = now
	const query = `INSERT INTO modules (id, name, level, is_active, description, created_at, updated_at)
        VALUES (:id, :name, :level, :is_active, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// UpdateModule rewrites a module, including retiring it.
func (r *ClassLogRepository) UpdateModule(ctx context.Context, module *models.Module) error {
	module.UpdatedAt = time.Now().UTC()
	const query = `UPDATE modules SET name = :name, level = :level, is_active = :is_active,
        description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}
