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

// PaymentRepository persists payments. Creating or editing a payment
// resets the student's pack inside the same transaction: pack_size takes
// the payment's pack size and classes_remaining is recomputed from the
// attended count as stored at that moment, replacing whatever balance was
// left rather than adding to it.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments matching the filter.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	base := "FROM payments p"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("p.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Year > 0 {
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM p.payment_date) = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Month > 0 {
		where = append(where, fmt.Sprintf("EXTRACT(MONTH FROM p.payment_date) = $%d", len(args)+1))
		args = append(args, filter.Month)
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

	query := fmt.Sprintf(`SELECT p.id, p.student_id, p.payment_date, p.amount, p.payment_method, p.pack_size, p.notes, p.created_at, p.updated_at
        %s WHERE %s ORDER BY p.payment_date %s LIMIT %d OFFSET %d`, base, whereClause, order, size, offset)

	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID fetches a payment by ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, student_id, payment_date, amount, payment_method, pack_size, notes, created_at, updated_at
        FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a payment and resets the student's pack in one
// transaction. The remaining counter is derived in SQL from the attended
// count the row holds at commit time, so a concurrent attendance write
// cannot leave the recompute working from a stale snapshot.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO payments (id, student_id, payment_date, amount, payment_method, pack_size, notes, created_at, updated_at)
        VALUES (:id, :student_id, :payment_date, :amount, :payment_method, :pack_size, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, payment); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	if err := resetPack(ctx, tx, payment.StudentID, payment.PackSize, &payment.PaymentDate); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment create: %w", err)
	}
	return nil
}

// Update rewrites a payment and re-applies the pack reset with the
// (possibly changed) pack size.
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE payments SET payment_date = :payment_date, amount = :amount,
        payment_method = :payment_method, pack_size = :pack_size, notes = :notes, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, update, payment); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	if err := resetPack(ctx, tx, payment.StudentID, payment.PackSize, &payment.PaymentDate); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment update: %w", err)
	}
	return nil
}

// Delete removes the payment row only. The student's pack counters are
// deliberately left untouched; see the payment-deletion policy note in
// DESIGN.md.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// SummaryByMethod aggregates payments per method for a year and optional month.
func (r *PaymentRepository) SummaryByMethod(ctx context.Context, year, month int) ([]models.PaymentMethodSummary, error) {
	query := `SELECT payment_method, COALESCE(SUM(amount), 0) AS total_amount, COUNT(*) AS count
        FROM payments WHERE EXTRACT(YEAR FROM payment_date) = $1`
	args := []interface{}{year}
	if month > 0 {
		query += " AND EXTRACT(MONTH FROM payment_date) = $2"
		args = append(args, month)
	}
	query += " GROUP BY payment_method ORDER BY total_amount DESC"

	var summaries []models.PaymentMethodSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("payment summary: %w", err)
	}
	return summaries, nil
}

// TotalSince sums payment amounts on or after the cutoff date.
func (r *PaymentRepository) TotalSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COALESCE(SUM(amount), 0) FROM payments WHERE payment_date >= $1", cutoff); err != nil {
		return 0, fmt.Errorf("sum payments since: %w", err)
	}
	return total, nil
}

// resetPack sets the student's pack size and recomputes the remaining
// balance from the attended count in a single statement. The new pack
// replaces any previous remaining credits.
func resetPack(ctx context.Context, tx *sqlx.Tx, studentID string, packSize int, paymentDate *time.Time) error {
	const query = `UPDATE students SET pack_size = $1,
        classes_remaining = $1 - classes_attended,
        last_payment_date = COALESCE($2, last_payment_date),
        updated_at = $3 WHERE id = $4`
	res, err := tx.ExecContext(ctx, query, packSize, paymentDate, time.Now().UTC(), studentID)
	if err != nil {
		return fmt.Errorf("reset pack for %s: %w", studentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("reset pack for %s: student not found", studentID)
	}
	return nil
}
