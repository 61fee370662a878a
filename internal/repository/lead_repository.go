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

const leadColumns = `id, parent_name, parent_phone, parent_email, child_name, date_of_birth,
        trial_class_date, status, calendly_uri, notes, created_by, created_at, updated_at`

// TrialLeadRepository manages persistence for trial leads.
type TrialLeadRepository struct {
	db *sqlx.DB
}

// NewTrialLeadRepository constructs the repository.
func NewTrialLeadRepository(db *sqlx.DB) *TrialLeadRepository {
	return &TrialLeadRepository{db: db}
}

// List returns leads matching the filter.
func (r *TrialLeadRepository) List(ctx context.Context, filter models.TrialLeadFilter) ([]models.TrialLead, int, error) {
	base := "FROM trial_leads"
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(parent_name) LIKE $%d OR LOWER(child_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("trial_class_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("trial_class_date <= $%d", len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY trial_class_date %s LIMIT %d OFFSET %d",
		leadColumns, base, whereClause, order, size, offset)

	var leads []models.TrialLead
	if err := r.db.SelectContext(ctx, &leads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list trial leads: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count trial leads: %w", err)
	}
	return leads, total, nil
}

// FindByID fetches a lead by ID.
func (r *TrialLeadRepository) FindByID(ctx context.Context, id string) (*models.TrialLead, error) {
	query := fmt.Sprintf("SELECT %s FROM trial_leads WHERE id = $1", leadColumns)
	var lead models.TrialLead
	if err := r.db.GetContext(ctx, &lead, query, id); err != nil {
		return nil, err
	}
	return &lead, nil
}

// Create inserts a new lead.
func (r *TrialLeadRepository) Create(ctx context.Context, lead *models.TrialLead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	const query = `INSERT INTO trial_leads (id, parent_name, parent_phone, parent_email, child_name, date_of_birth,
        trial_class_date, status, calendly_uri, notes, created_by, created_at, updated_at)
        VALUES (:id, :parent_name, :parent_phone, :parent_email, :child_name, :date_of_birth,
        :trial_class_date, :status, :calendly_uri, :notes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("create trial lead: %w", err)
	}
	return nil
}

// Update rewrites a lead.
func (r *TrialLeadRepository) Update(ctx context.Context, lead *models.TrialLead) error {
	lead.UpdatedAt = time.Now().UTC()
	const query = `UPDATE trial_leads SET parent_name = :parent_name, parent_phone = :parent_phone,
        parent_email = :parent_email, child_name = :child_name, date_of_birth = :date_of_birth,
        trial_class_date = :trial_class_date, status = :status, notes = :notes, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("update trial lead: %w", err)
	}
	return nil
}

// Delete removes a lead.
func (r *TrialLeadRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM trial_leads WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete trial lead: %w", err)
	}
	return nil
}

// UpsertByCalendlyURI inserts a lead keyed by the Calendly invitee URI or
// refreshes the booking fields when the URI is already known.
func (r *TrialLeadRepository) UpsertByCalendlyURI(ctx context.Context, lead *models.TrialLead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now
	const query = `INSERT INTO trial_leads (id, parent_name, parent_phone, parent_email, child_name, date_of_birth,
        trial_class_date, status, calendly_uri, notes, created_by, created_at, updated_at)
        VALUES (:id, :parent_name, :parent_phone, :parent_email, :child_name, :date_of_birth,
        :trial_class_date, :status, :calendly_uri, :notes, :created_by, :created_at, :updated_at)
        ON CONFLICT (calendly_uri)
        DO UPDATE SET parent_name = EXCLUDED.parent_name, parent_phone = EXCLUDED.parent_phone,
        parent_email = EXCLUDED.parent_email, child_name = EXCLUDED.child_name,
        trial_class_date = EXCLUDED.trial_class_date, status = EXCLUDED.status,
        notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, lead); err != nil {
		return fmt.Errorf("upsert trial lead: %w", err)
	}
	return nil
}

// CancelByCalendlyURI marks the lead with the given booking URI cancelled.
func (r *TrialLeadRepository) CancelByCalendlyURI(ctx context.Context, uri string) error {
	const query = `UPDATE trial_leads SET status = $1, updated_at = $2 WHERE calendly_uri = $3`
	if _, err := r.db.ExecContext(ctx, query, models.LeadStatusCancelled, time.Now().UTC(), uri); err != nil {
		return fmt.Errorf("cancel trial lead: %w", err)
	}
	return nil
}

// CountUpcoming counts scheduled leads with a trial class on or after the given date.
func (r *TrialLeadRepository) CountUpcoming(ctx context.Context, from time.Time) (int, error) {
	var total int
	const query = `SELECT COUNT(*) FROM trial_leads WHERE status = $1 AND trial_class_date >= $2`
	if err := r.db.GetContext(ctx, &total, query, models.LeadStatusScheduled, from); err != nil {
		return 0, fmt.Errorf("count upcoming leads: %w", err)
	}
	return total, nil
}
