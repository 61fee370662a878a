package models

import "time"

// Payment is a pack purchase. Each payment resets the student's pack size
// and recomputes the remaining credits from the attended count.
type Payment struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	PaymentDate   time.Time `db:"payment_date" json:"payment_date"`
	Amount        int64     `db:"amount" json:"amount"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	PackSize      int       `db:"pack_size" json:"pack_size"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentFilter scopes payment listing queries.
type PaymentFilter struct {
	StudentID string
	Year      int
	Month     int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PaymentMethodSummary aggregates payments per method in a period.
type PaymentMethodSummary struct {
	Method      string `db:"payment_method" json:"method"`
	TotalAmount int64  `db:"total_amount" json:"total_amount"`
	Count       int    `db:"count" json:"count"`
}
