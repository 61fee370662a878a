package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
)

func TestPaymentCreateResetsPack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET pack_size").
		WithArgs(8, sqlmock.AnyArg(), sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.Payment{
		StudentID:     "stu-1",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Nequi",
		PackSize:      8,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentCreateRollsBackWhenStudentMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET pack_size").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Payment{
		StudentID:     "missing",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Cash",
		PackSize:      4,
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentUpdateReappliesPack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE students SET pack_size").
		WithArgs(12, sqlmock.AnyArg(), sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), &models.Payment{
		ID:            "pay-1",
		StudentID:     "stu-1",
		PaymentDate:   time.Now(),
		Amount:        600000,
		PaymentMethod: "Bancolombia",
		PackSize:      12,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentDeleteLeavesCounters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("DELETE FROM payments WHERE id").
		WithArgs("pay-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentSummaryByMethod(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	rows := sqlmock.NewRows([]string{"payment_method", "total_amount", "count"}).
		AddRow("Nequi", int64(800000), 2).
		AddRow("Cash", int64(400000), 1)
	mock.ExpectQuery("SELECT payment_method, COALESCE").
		WithArgs(2026, 8).
		WillReturnRows(rows)

	summaries, err := repo.SummaryByMethod(context.Background(), 2026, 8)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Nequi", summaries[0].Method)
	assert.Equal(t, int64(800000), summaries[0].TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
