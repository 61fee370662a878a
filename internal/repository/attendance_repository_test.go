package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRow(id, studentID string, attended, isMakeup bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "date", "attended", "is_makeup", "makeup_reason", "marked_by", "course_session_id", "created_at"}).
		AddRow(id, studentID, time.Now(), attended, isMakeup, nil, "staff-1", nil, time.Now())
}

func TestAttendanceCreateConsumesCredit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET classes_attended").
		WithArgs(1, sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.AttendanceRecord{
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  true,
		MarkedBy:  "staff-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateMakeupLeavesCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reason := "sick last week"
	err := repo.Create(context.Background(), &models.AttendanceRecord{
		StudentID:    "stu-1",
		Date:         time.Now(),
		Attended:     true,
		IsMakeup:     true,
		MakeupReason: &reason,
		MarkedBy:     "staff-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceCreateAbsentLeavesCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.AttendanceRecord{
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  false,
		MarkedBy:  "staff-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpdateFlipToAttended(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM attendance_records WHERE id = (.+) FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(attendanceRow("rec-1", "stu-1", false, false))
	mock.ExpectExec("UPDATE attendance_records SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET classes_attended").
		WithArgs(1, sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.AttendanceRecord{
		ID:        "rec-1",
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpdateFlipToMakeupRefunds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM attendance_records WHERE id = (.+) FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(attendanceRow("rec-1", "stu-1", true, false))
	mock.ExpectExec("UPDATE attendance_records SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET classes_attended").
		WithArgs(-1, sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.AttendanceRecord{
		ID:        "rec-1",
		StudentID: "stu-1",
		Date:      time.Now(),
		Attended:  true,
		IsMakeup:  true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpdateDateOnlyLeavesCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM attendance_records WHERE id = (.+) FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(attendanceRow("rec-1", "stu-1", true, false))
	mock.ExpectExec("UPDATE attendance_records SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.AttendanceRecord{
		ID:        "rec-1",
		StudentID: "stu-1",
		Date:      time.Now().AddDate(0, 0, -1),
		Attended:  true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceDeleteRefundsCredit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM attendance_records WHERE id = (.+) FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(attendanceRow("rec-1", "stu-1", true, false))
	mock.ExpectExec("DELETE FROM attendance_records WHERE id").
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET classes_attended").
		WithArgs(-1, sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceDeleteAbsentLeavesCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM attendance_records WHERE id = (.+) FOR UPDATE").
		WithArgs("rec-1").
		WillReturnRows(attendanceRow("rec-1", "stu-1", false, false))
	mock.ExpectExec("DELETE FROM attendance_records WHERE id").
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceSessionAttendanceAppliesDeltas(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT student_id, attended FROM attendance_records WHERE course_session_id").
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "attended"}).
			AddRow("stu-1", true).
			AddRow("stu-2", false))
	mock.ExpectExec("DELETE FROM attendance_records WHERE course_session_id").
		WithArgs("sess-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance_records").WillReturnResult(sqlmock.NewResult(0, 1))
	// stu-1 stays present, stu-2 flips to present: one counter moves.
	mock.ExpectExec("UPDATE students SET classes_attended").
		WithArgs(1, sqlmock.AnyArg(), "stu-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.ReplaceSessionAttendance(context.Background(), "sess-1", time.Now(), "staff-1", []models.SessionAttendanceEntry{
		{StudentID: "stu-1", Attended: true},
		{StudentID: "stu-2", Attended: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
