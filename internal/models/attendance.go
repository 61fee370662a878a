package models

import "time"

// AttendanceRecord is one attendance event for a student. Regular attended
// records consume a pack credit; make-up records and absences do not.
type AttendanceRecord struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	Date            time.Time `db:"date" json:"date"`
	Attended        bool      `db:"attended" json:"attended"`
	IsMakeup        bool      `db:"is_makeup" json:"is_makeup"`
	MakeupReason    *string   `db:"makeup_reason" json:"makeup_reason,omitempty"`
	MarkedBy        string    `db:"marked_by" json:"marked_by"`
	CourseSessionID *string   `db:"course_session_id" json:"course_session_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// ConsumesCredit reports whether the record draws down a pack credit.
func (r AttendanceRecord) ConsumesCredit() bool {
	return r.Attended && !r.IsMakeup
}

// AttendanceRecordDetail joins the student name for history views.
type AttendanceRecordDetail struct {
	AttendanceRecord
	StudentName string `db:"student_name" json:"student_name"`
}

// AttendanceFilter scopes attendance history queries.
type AttendanceFilter struct {
	StudentID       string
	CourseSessionID string
	DateFrom        *time.Time
	DateTo          *time.Time
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}

// SessionAttendanceEntry is one student's attended flag inside a bulk
// session attendance save.
type SessionAttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Attended  bool   `json:"attended"`
}
