package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aku-labs/academy-api/internal/models"
)

// CourseGroupRepository manages virtual cohorts and their sessions.
type CourseGroupRepository struct {
	db *sqlx.DB
}

// NewCourseGroupRepository constructs the repository.
func NewCourseGroupRepository(db *sqlx.DB) *CourseGroupRepository {
	return &CourseGroupRepository{db: db}
}

// List returns groups with course name and enrollment counts.
func (r *CourseGroupRepository) List(ctx context.Context, filter models.CourseGroupFilter) ([]models.CourseGroupDetail, int, error) {
	base := `FROM course_groups g
JOIN virtual_courses vc ON vc.id = g.virtual_course_id
LEFT JOIN course_enrollments ce ON ce.group_id = g.id AND ce.status = 'active'`
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("g.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.CourseID != "" {
		where = append(where, fmt.Sprintf("g.virtual_course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
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

	query := fmt.Sprintf(`SELECT g.id, g.virtual_course_id, g.code, g.start_date, g.end_date, g.status,
        g.min_students, g.notes, g.created_at, g.updated_at,
        vc.name AS course_name, COUNT(ce.id) AS enrollment_count
        %s WHERE %s
        GROUP BY g.id, vc.name
        ORDER BY g.start_date %s LIMIT %d OFFSET %d`, base, whereClause, order, size, offset)

	var groups []models.CourseGroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list course groups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT g.id) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count course groups: %w", err)
	}
	return groups, total, nil
}

// FindByID fetches a group by ID.
func (r *CourseGroupRepository) FindByID(ctx context.Context, id string) (*models.CourseGroup, error) {
	const query = `SELECT id, virtual_course_id, code, start_date, end_date, status, min_students, notes, created_at, updated_at
        FROM course_groups WHERE id = $1`
	var group models.CourseGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsByCode reports whether a group code is taken.
func (r *CourseGroupRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM course_groups WHERE code = $1 LIMIT 1", code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group code: %w", err)
	}
	return true, nil
}

// CreateWithSessions inserts a group and its scheduled sessions atomically.
func (r *CourseGroupRepository) CreateWithSessions(ctx context.Context, group *models.CourseGroup, sessions []models.CourseSession) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin group create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertGroup = `INSERT INTO course_groups (id, virtual_course_id, code, start_date, end_date, status, min_students, notes, created_at, updated_at)
        VALUES (:id, :virtual_course_id, :code, :start_date, :end_date, :status, :min_students, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertGroup, group); err != nil {
		return fmt.Errorf("insert course group: %w", err)
	}

	const insertSession = `INSERT INTO course_sessions (id, group_id, session_number, scheduled_date, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range sessions {
		if sessions[i].ID == "" {
			sessions[i].ID = uuid.NewString()
		}
		sessions[i].GroupID = group.ID
		if sessions[i].CreatedAt.IsZero() {
			sessions[i].CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, insertSession, sessions[i].ID, sessions[i].GroupID, sessions[i].SessionNumber, sessions[i].ScheduledDate, sessions[i].Notes, sessions[i].CreatedAt); err != nil {
			return fmt.Errorf("insert course session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit group create: %w", err)
	}
	return nil
}

// Update rewrites group fields.
func (r *CourseGroupRepository) Update(ctx context.Context, group *models.CourseGroup) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_groups SET start_date = :start_date, end_date = :end_date, status = :status,
        min_students = :min_students, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update course group: %w", err)
	}
	return nil
}

// ListSessions returns a group's sessions ordered by number.
func (r *CourseGroupRepository) ListSessions(ctx context.Context, groupID string) ([]models.CourseSession, error) {
	const query = `SELECT id, group_id, session_number, scheduled_date, notes, created_at
        FROM course_sessions WHERE group_id = $1 ORDER BY session_number ASC`
	var sessions []models.CourseSession
	if err := r.db.SelectContext(ctx, &sessions, query, groupID); err != nil {
		return nil, fmt.Errorf("list course sessions: %w", err)
	}
	return sessions, nil
}

// FindSessionByID fetches a session by ID.
func (r *CourseGroupRepository) FindSessionByID(ctx context.Context, id string) (*models.CourseSession, error) {
	const query = `SELECT id, group_id, session_number, scheduled_date, notes, created_at
        FROM course_sessions WHERE id = $1`
	var session models.CourseSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession appends a session to a group.
func (r *CourseGroupRepository) CreateSession(ctx context.Context, session *models.CourseSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_sessions (id, group_id, session_number, scheduled_date, notes, created_at)
        VALUES (:id, :group_id, :session_number, :scheduled_date, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create course session: %w", err)
	}
	return nil
}

// UpdateSession reschedules a session.
func (r *CourseGroupRepository) UpdateSession(ctx context.Context, session *models.CourseSession) error {
	const query = `UPDATE course_sessions SET scheduled_date = :scheduled_date, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update course session: %w", err)
	}
	return nil
}
