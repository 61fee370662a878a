package models

import "time"

// Modality describes how a student takes classes.
type Modality string

const (
	ModalityPresencial Modality = "presencial"
	ModalityVirtual    Modality = "virtual"
	ModalityBoth       Modality = "both"
	ModalityIndividual Modality = "individual"
)

// Valid reports whether the modality is a supported value.
func (m Modality) Valid() bool {
	switch m {
	case ModalityPresencial, ModalityVirtual, ModalityBoth, ModalityIndividual:
		return true
	default:
		return false
	}
}

// PaymentStatus summarises how urgently a student needs to pay.
type PaymentStatus string

const (
	PaymentStatusGood PaymentStatus = "good"
	PaymentStatusLow  PaymentStatus = "low"
	PaymentStatusDue  PaymentStatus = "due"
)

// GetPaymentStatus derives the payment status from the remaining class
// credits: no credits left means payment is due, one or two left means it
// is coming up, anything above that is fine.
func GetPaymentStatus(classesRemaining int) PaymentStatus {
	if classesRemaining == 0 {
		return PaymentStatusDue
	}
	if classesRemaining <= 2 {
		return PaymentStatusLow
	}
	return PaymentStatusGood
}

// Student represents a learner registered at the academy together with the
// pack-credit counters the ledger maintains.
type Student struct {
	ID                    string     `db:"id" json:"id"`
	Name                  string     `db:"name" json:"name"`
	Email                 string     `db:"email" json:"email"`
	Phone                 string     `db:"phone" json:"phone"`
	ParentName            string     `db:"parent_name" json:"parent_name"`
	FatherName            *string    `db:"father_name" json:"father_name,omitempty"`
	MotherName            *string    `db:"mother_name" json:"mother_name,omitempty"`
	DateOfBirth           *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address               *string    `db:"address" json:"address,omitempty"`
	SchoolName            *string    `db:"school_name" json:"school_name,omitempty"`
	GradeLevel            *string    `db:"grade_level" json:"grade_level,omitempty"`
	MedicalConditions     *string    `db:"medical_conditions" json:"medical_conditions,omitempty"`
	EmergencyContactName  *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	EnrollmentDate        time.Time  `db:"enrollment_date" json:"enrollment_date"`
	Modality              Modality   `db:"modality" json:"modality"`
	PackSize              int        `db:"pack_size" json:"pack_size"`
	ClassesAttended       int        `db:"classes_attended" json:"classes_attended"`
	ClassesRemaining      int        `db:"classes_remaining" json:"classes_remaining"`
	LastPaymentDate       *time.Time `db:"last_payment_date" json:"last_payment_date,omitempty"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	Archived              bool       `db:"archived" json:"archived"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail augments a student with derived ledger state.
type StudentDetail struct {
	Student
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Modality  *Modality
	Active    *bool
	Archived  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
