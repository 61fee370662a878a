package models

import "time"

// DashboardSnapshot aggregates the front-page numbers.
type DashboardSnapshot struct {
	ActiveStudents     int       `json:"active_students"`
	DueStudents        int       `json:"due_students"`
	LowCreditStudents  int       `json:"low_credit_students"`
	AttendanceThisWeek int       `json:"attendance_this_week"`
	UpcomingTrials     int       `json:"upcoming_trials"`
	PaymentsThisMonth  int64     `json:"payments_this_month"`
	GeneratedAt        time.Time `json:"generated_at"`
}
