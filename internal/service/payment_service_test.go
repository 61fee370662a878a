package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aku-labs/academy-api/internal/models"
)

type mockPaymentRepo struct {
	payments map[string]models.Payment
	err      error
}

func (m *mockPaymentRepo) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	payments := make([]models.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		payments = append(payments, p)
	}
	return payments, len(payments), nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.err != nil {
		return m.err
	}
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if payment.ID == "" {
		payment.ID = "generated"
	}
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	m.payments[payment.ID] = *payment
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id string) error {
	delete(m.payments, id)
	return nil
}

func (m *mockPaymentRepo) SummaryByMethod(ctx context.Context, year, month int) ([]models.PaymentMethodSummary, error) {
	return []models.PaymentMethodSummary{{Method: "Nequi", TotalAmount: 800000, Count: 2}}, nil
}

type mockSettingsReader struct {
	settings models.Settings
}

func (m *mockSettingsReader) Get(ctx context.Context) (*models.Settings, error) {
	s := m.settings
	return &s, nil
}

func newPaymentService(repo *mockPaymentRepo, students *mockStudentReader) *PaymentService {
	settings := &mockSettingsReader{settings: models.DefaultSettings()}
	return NewPaymentService(repo, students, settings, validator.New(), zap.NewNop())
}

func TestPaymentServiceRecord(t *testing.T) {
	repo := &mockPaymentRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newPaymentService(repo, students)

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		StudentID:     "stu-1",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Nequi",
		PackSize:      8,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, payment.PackSize)
	assert.Len(t, repo.payments, 1)
}

func TestPaymentServiceRecordDefaultsPackSize(t *testing.T) {
	repo := &mockPaymentRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newPaymentService(repo, students)

	payment, err := svc.Record(context.Background(), RecordPaymentRequest{
		StudentID:     "stu-1",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Cash",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, payment.PackSize)
}

func TestPaymentServiceRecordRejectsUnknownMethod(t *testing.T) {
	repo := &mockPaymentRepo{}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newPaymentService(repo, students)

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		StudentID:     "stu-1",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Bitcoin",
	})
	require.Error(t, err)
}

func TestPaymentServiceRecordUnknownStudent(t *testing.T) {
	repo := &mockPaymentRepo{}
	students := &mockStudentReader{}
	svc := newPaymentService(repo, students)

	_, err := svc.Record(context.Background(), RecordPaymentRequest{
		StudentID:     "ghost",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Cash",
	})
	require.Error(t, err)
}

func TestPaymentServiceUpdateCannotMoveStudents(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"pay-1": {ID: "pay-1", StudentID: "stu-1", Amount: 400000, PaymentMethod: "Cash", PackSize: 8},
	}}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newPaymentService(repo, students)

	_, err := svc.Update(context.Background(), "pay-1", RecordPaymentRequest{
		StudentID:     "stu-2",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Cash",
	})
	require.Error(t, err)
}

func TestPaymentServiceUpdateRejectsUnknownMethod(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"pay-1": {ID: "pay-1", StudentID: "stu-1", Amount: 400000, PaymentMethod: "Cash", PackSize: 8},
	}}
	students := &mockStudentReader{students: map[string]models.Student{"stu-1": {ID: "stu-1"}}}
	svc := newPaymentService(repo, students)

	_, err := svc.Update(context.Background(), "pay-1", RecordPaymentRequest{
		StudentID:     "stu-1",
		PaymentDate:   time.Now(),
		Amount:        400000,
		PaymentMethod: "Bitcoin",
	})
	require.Error(t, err)
	assert.Equal(t, "Cash", repo.payments["pay-1"].PaymentMethod)
}

func TestPaymentServiceDelete(t *testing.T) {
	repo := &mockPaymentRepo{payments: map[string]models.Payment{
		"pay-1": {ID: "pay-1", StudentID: "stu-1"},
	}}
	students := &mockStudentReader{}
	svc := newPaymentService(repo, students)

	err := svc.Delete(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Empty(t, repo.payments)
}
