package models

import "time"

// VirtualCourse is a course in the virtual catalogue.
type VirtualCourse struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	NextCourseID *string   `db:"next_course_id" json:"next_course_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GroupStatus tracks the cohort lifecycle.
type GroupStatus string

const (
	GroupStatusForming   GroupStatus = "forming"
	GroupStatusActive    GroupStatus = "active"
	GroupStatusCompleted GroupStatus = "completed"
	GroupStatusCancelled GroupStatus = "cancelled"
)

// Valid reports whether the status is a supported value.
func (s GroupStatus) Valid() bool {
	switch s {
	case GroupStatusForming, GroupStatusActive, GroupStatusCompleted, GroupStatusCancelled:
		return true
	default:
		return false
	}
}

// CourseGroup is a virtual cohort taking a course together.
type CourseGroup struct {
	ID              string      `db:"id" json:"id"`
	VirtualCourseID string      `db:"virtual_course_id" json:"virtual_course_id"`
	Code            string      `db:"code" json:"code"`
	StartDate       time.Time   `db:"start_date" json:"start_date"`
	EndDate         *time.Time  `db:"end_date" json:"end_date,omitempty"`
	Status          GroupStatus `db:"status" json:"status"`
	MinStudents     int         `db:"min_students" json:"min_students"`
	Notes           *string     `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// CourseGroupDetail joins the course name and enrollment count.
type CourseGroupDetail struct {
	CourseGroup
	CourseName      string `db:"course_name" json:"course_name"`
	EnrollmentCount int    `db:"enrollment_count" json:"enrollment_count"`
}

// CourseGroupFilter scopes group listing queries.
type CourseGroupFilter struct {
	Status    *GroupStatus
	CourseID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CourseSession is one scheduled meeting of a group.
type CourseSession struct {
	ID            string    `db:"id" json:"id"`
	GroupID       string    `db:"group_id" json:"group_id"`
	SessionNumber int       `db:"session_number" json:"session_number"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PaymentPlan selects how an enrollment is paid.
type PaymentPlan string

const (
	PaymentPlanFull         PaymentPlan = "full"
	PaymentPlanInstallments PaymentPlan = "installments"
)

// Valid reports whether the plan is a supported value.
func (p PaymentPlan) Valid() bool {
	return p == PaymentPlanFull || p == PaymentPlanInstallments
}

// EnrollmentStatus tracks a student's membership in a group.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusWithdrawn EnrollmentStatus = "withdrawn"
)

// CourseEnrollment links a student to a course group with its payment plan.
type CourseEnrollment struct {
	ID                 string           `db:"id" json:"id"`
	GroupID            string           `db:"group_id" json:"group_id"`
	StudentID          string           `db:"student_id" json:"student_id"`
	EnrollmentDate     time.Time        `db:"enrollment_date" json:"enrollment_date"`
	PaymentPlan        PaymentPlan      `db:"payment_plan" json:"payment_plan"`
	Installment1Amount *int64           `db:"installment_1_amount" json:"installment_1_amount,omitempty"`
	Installment1PaidAt *time.Time       `db:"installment_1_paid_at" json:"installment_1_paid_at,omitempty"`
	Installment2Amount *int64           `db:"installment_2_amount" json:"installment_2_amount,omitempty"`
	Installment2DueAt  *time.Time       `db:"installment_2_due_date" json:"installment_2_due_date,omitempty"`
	Installment2PaidAt *time.Time       `db:"installment_2_paid_at" json:"installment_2_paid_at,omitempty"`
	Status             EnrollmentStatus `db:"status" json:"status"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// CourseEnrollmentDetail joins the student name for roster views.
type CourseEnrollmentDetail struct {
	CourseEnrollment
	StudentName string `db:"student_name" json:"student_name"`
}
