package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aku-labs/academy-api/internal/models"
)

const enrollmentColumns = `ce.id, ce.group_id, ce.student_id, ce.enrollment_date, ce.payment_plan,
        ce.installment_1_amount, ce.installment_1_paid_at, ce.installment_2_amount,
        ce.installment_2_due_date, ce.installment_2_paid_at, ce.status, ce.notes, ce.created_at, ce.updated_at`

// EnrollmentRepository manages group enrollments and their installments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByGroup returns a group's enrollments with student names attached.
func (r *EnrollmentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.CourseEnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s, s.name AS student_name
        FROM course_enrollments ce
        JOIN students s ON s.id = ce.student_id
        WHERE ce.group_id = $1
        ORDER BY s.name ASC`, enrollmentColumns)
	var enrollments []models.CourseEnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, groupID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// FindByID fetches an enrollment by ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.CourseEnrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM course_enrollments ce WHERE ce.id = $1", enrollmentColumns)
	var enrollment models.CourseEnrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists reports whether the student already has an enrollment in the group.
func (r *EnrollmentRepository) Exists(ctx context.Context, groupID, studentID string) (bool, error) {
	var count int
	const query = `SELECT COUNT(1) FROM course_enrollments WHERE group_id = $1 AND student_id = $2`
	if err := r.db.GetContext(ctx, &count, query, groupID, studentID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return count > 0, nil
}

// Create inserts an enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.CourseEnrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now

	const query = `INSERT INTO course_enrollments (id, group_id, student_id, enrollment_date, payment_plan,
        installment_1_amount, installment_1_paid_at, installment_2_amount,
        installment_2_due_date, installment_2_paid_at, status, notes, created_at, updated_at)
        VALUES (:id, :group_id, :student_id, :enrollment_date, :payment_plan,
        :installment_1_amount, :installment_1_paid_at, :installment_2_amount,
        :installment_2_due_date, :installment_2_paid_at, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// Update rewrites enrollment fields including installment markers.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.CourseEnrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_enrollments SET payment_plan = :payment_plan,
        installment_1_amount = :installment_1_amount, installment_1_paid_at = :installment_1_paid_at,
        installment_2_amount = :installment_2_amount, installment_2_due_date = :installment_2_due_date,
        installment_2_paid_at = :installment_2_paid_at,
        status = :status, notes = :notes, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM course_enrollments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
