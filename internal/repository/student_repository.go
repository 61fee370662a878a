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

const studentColumns = `s.id, s.name, s.email, s.phone, s.parent_name, s.father_name, s.mother_name,
        s.date_of_birth, s.address, s.school_name, s.grade_level, s.medical_conditions,
        s.emergency_contact_name, s.emergency_contact_phone, s.notes, s.enrollment_date, s.modality,
        s.pack_size, s.classes_attended, s.classes_remaining, s.last_payment_date,
        s.is_active, s.archived, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.Modality != nil {
		conditions = append(conditions, fmt.Sprintf("s.modality = $%d", len(args)+1))
		args = append(args, *filter.Modality)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Archived != nil {
		conditions = append(conditions, fmt.Sprintf("s.archived = $%d", len(args)+1))
		args = append(args, *filter.Archived)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.email) LIKE $%d OR LOWER(s.parent_name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"name":              "s.name",
		"enrollment_date":   "s.enrollment_date",
		"classes_remaining": "s.classes_remaining",
		"created_at":        "s.created_at",
	}
	if sortBy == "" {
		sortBy = "name"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByEmail checks if a student with the given email exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE LOWER(email) = LOWER($1)"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student email: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, name, email, phone, parent_name, father_name, mother_name,
        date_of_birth, address, school_name, grade_level, medical_conditions,
        emergency_contact_name, emergency_contact_phone, notes, enrollment_date, modality,
        pack_size, classes_attended, classes_remaining, last_payment_date, is_active, archived, created_at, updated_at)
        VALUES (:id, :name, :email, :phone, :parent_name, :father_name, :mother_name,
        :date_of_birth, :address, :school_name, :grade_level, :medical_conditions,
        :emergency_contact_name, :emergency_contact_phone, :notes, :enrollment_date, :modality,
        :pack_size, :classes_attended, :classes_remaining, :last_payment_date, :is_active, :archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student. Pack counters are not written here;
// they belong to the ledger operations on attendance and payments.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, email = :email, phone = :phone, parent_name = :parent_name,
        father_name = :father_name, mother_name = :mother_name, date_of_birth = :date_of_birth,
        address = :address, school_name = :school_name, grade_level = :grade_level,
        medical_conditions = :medical_conditions, emergency_contact_name = :emergency_contact_name,
        emergency_contact_phone = :emergency_contact_phone, notes = :notes,
        enrollment_date = :enrollment_date, modality = :modality, pack_size = :pack_size,
        is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Archive soft-deletes a student, keeping attendance and payment history.
func (r *StudentRepository) Archive(ctx context.Context, id string) error {
	const query = `UPDATE students SET archived = true, is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive student: %w", err)
	}
	return nil
}

// CreditCounts holds aggregate counters for the dashboard.
type CreditCounts struct {
	Active    int `db:"active"`
	Due       int `db:"due"`
	LowCredit int `db:"low_credit"`
}

// CountByCreditState aggregates active students by remaining credit buckets.
func (r *StudentRepository) CountByCreditState(ctx context.Context) (*CreditCounts, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE is_active) AS active,
        COUNT(*) FILTER (WHERE is_active AND classes_remaining <= 0) AS due,
        COUNT(*) FILTER (WHERE is_active AND classes_remaining BETWEEN 1 AND 2) AS low_credit
        FROM students WHERE archived = false`
	var counts CreditCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count students by credit state: %w", err)
	}
	return &counts, nil
}

// Unarchive restores an archived student.
func (r *StudentRepository) Unarchive(ctx context.Context, id string) error {
	const query = `UPDATE students SET archived = false, is_active = true, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("unarchive student: %w", err)
	}
	return nil
}
