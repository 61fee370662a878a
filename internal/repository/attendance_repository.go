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

// AttendanceRepository persists attendance records and keeps the student
// pack-credit counters in lockstep. Every mutation that moves a counter
// runs in a single transaction with the record write, and counters are
// adjusted with relative updates so concurrent writers cannot clobber each
// other with stale reads.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	base := "FROM attendance_records a JOIN students s ON s.id = a.student_id"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseSessionID != "" {
		where = append(where, fmt.Sprintf("a.course_session_id = $%d", len(args)+1))
		args = append(args, filter.CourseSessionID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	sortBy := filter.SortBy
	allowedSort := map[string]string{
		"date":       "a.date",
		"created_at": "a.created_at",
	}
	if sortBy == "" {
		sortBy = "date"
	}
	column, ok := allowedSort[sortBy]
	if !ok {
		column = "a.date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.date, a.attended, a.is_makeup, a.makeup_reason,
        a.marked_by, a.course_session_id, a.created_at, s.name AS student_name
        %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, column, order, size, offset)

	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// FindByID fetches a single attendance record.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, date, attended, is_makeup, makeup_reason, marked_by, course_session_id, created_at
        FROM attendance_records WHERE id = $1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a record and, when it consumes a credit, moves the
// student counters in the same transaction.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO attendance_records (id, student_id, date, attended, is_makeup, makeup_reason, marked_by, course_session_id, created_at)
        VALUES (:id, :student_id, :date, :attended, :is_makeup, :makeup_reason, :marked_by, :course_session_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, record); err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}

	if record.ConsumesCredit() {
		if err := applyCreditDelta(ctx, tx, record.StudentID, 1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance create: %w", err)
	}
	return nil
}

// Update rewrites a record and reconciles the counters against the
// previous row state. Only a change in credit consumption (the attended
// flag flipping, or the make-up flag flipping on an attended record)
// moves the counters; date-only edits leave them alone.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var previous models.AttendanceRecord
	const load = `SELECT id, student_id, date, attended, is_makeup, makeup_reason, marked_by, course_session_id, created_at
        FROM attendance_records WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &previous, load, record.ID); err != nil {
		return err
	}

	const update = `UPDATE attendance_records SET date = :date, attended = :attended, is_makeup = :is_makeup,
        makeup_reason = :makeup_reason, course_session_id = :course_session_id WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}

	delta := creditValue(*record) - creditValue(previous)
	if delta != 0 {
		if err := applyCreditDelta(ctx, tx, previous.StudentID, delta); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance update: %w", err)
	}
	return nil
}

// Delete removes a record. Deleting a credit-consuming record refunds the
// credit in the same transaction; absent and make-up records are
// counter-neutral.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var record models.AttendanceRecord
	const load = `SELECT id, student_id, date, attended, is_makeup, makeup_reason, marked_by, course_session_id, created_at
        FROM attendance_records WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &record, load, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance_records WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}

	if record.ConsumesCredit() {
		if err := applyCreditDelta(ctx, tx, record.StudentID, -1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance delete: %w", err)
	}
	return nil
}

// ReplaceSessionAttendance swaps every record for a course session with the
// provided entries and applies a per-student counter delta for students
// whose present/absent state changed. Returns the number of students whose
// counters moved.
func (r *AttendanceRepository) ReplaceSessionAttendance(ctx context.Context, sessionID string, date time.Time, markedBy string, entries []models.SessionAttendanceEntry) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin session attendance: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	type prevRow struct {
		StudentID string `db:"student_id"`
		Attended  bool   `db:"attended"`
	}
	var previous []prevRow
	if err := tx.SelectContext(ctx, &previous, "SELECT student_id, attended FROM attendance_records WHERE course_session_id = $1", sessionID); err != nil {
		return 0, fmt.Errorf("load session attendance: %w", err)
	}
	prevMap := make(map[string]bool, len(previous))
	for _, row := range previous {
		prevMap[row.StudentID] = row.Attended
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM attendance_records WHERE course_session_id = $1", sessionID); err != nil {
		return 0, fmt.Errorf("clear session attendance: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO attendance_records (id, student_id, date, attended, is_makeup, marked_by, course_session_id, created_at)
        VALUES ($1, $2, $3, $4, false, $5, $6, $7)`
	newMap := make(map[string]bool, len(entries))
	for _, entry := range entries {
		newMap[entry.StudentID] = entry.Attended
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), entry.StudentID, date, entry.Attended, markedBy, sessionID, now); err != nil {
			return 0, fmt.Errorf("insert session attendance: %w", err)
		}
	}

	changed := 0
	for studentID := range union(prevMap, newMap) {
		wasPresent := prevMap[studentID]
		isPresent := newMap[studentID]
		if wasPresent == isPresent {
			continue
		}
		delta := 1
		if !isPresent {
			delta = -1
		}
		if err := applyCreditDelta(ctx, tx, studentID, delta); err != nil {
			return 0, err
		}
		changed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit session attendance: %w", err)
	}
	return changed, nil
}

// CountSince counts attended records on or after the cutoff date.
func (r *AttendanceRepository) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM attendance_records WHERE attended = true AND date >= $1", cutoff); err != nil {
		return 0, fmt.Errorf("count attendance since: %w", err)
	}
	return total, nil
}

// applyCreditDelta moves both pack counters by the signed delta: +1 means
// a credit consumed (attended up, remaining down). Relative arithmetic in
// SQL keeps the adjustment atomic under concurrent ledger writes.
func applyCreditDelta(ctx context.Context, tx *sqlx.Tx, studentID string, delta int) error {
	const query = `UPDATE students SET classes_attended = classes_attended + $1,
        classes_remaining = classes_remaining - $1, updated_at = $2 WHERE id = $3`
	res, err := tx.ExecContext(ctx, query, delta, time.Now().UTC(), studentID)
	if err != nil {
		return fmt.Errorf("adjust credits for %s: %w", studentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func creditValue(record models.AttendanceRecord) int {
	if record.ConsumesCredit() {
		return 1
	}
	return 0
}

func union(a, b map[string]bool) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}
