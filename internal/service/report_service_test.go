package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/internal/repository"
	"github.com/aku-labs/academy-api/pkg/jobs"
)

type mockReportJobStore struct {
	jobs map[string]*models.ReportJob
}

func newMockReportJobStore() *mockReportJobStore {
	return &mockReportJobStore{jobs: make(map[string]*models.ReportJob)}
}

func (m *mockReportJobStore) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockReportJobStore) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (m *mockReportJobStore) Update(_ context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultPath != nil {
		job.ResultPath = params.ResultPath
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportJobStore) ListQueued(_ context.Context, _ int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockReportJobStore) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusFinished && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockGenerator struct {
	result *ExportResult
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, _ *models.ReportJob) (*ExportResult, error) {
	return m.result, m.err
}

func TestReportCreateJobQueues(t *testing.T) {
	store := newMockReportJobStore()
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, nil, nil, ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypePayments,
		Year:   2026,
		Month:  2,
		Format: models.ReportFormatCSV,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestReportCreateJobValidation(t *testing.T) {
	svc := NewReportService(newMockReportJobStore(), &mockDispatcher{}, nil, nil, nil, ReportServiceConfig{})

	cases := []ReportRequest{
		{Type: "grades", Format: models.ReportFormatCSV},
		{Type: models.ReportTypePayments, Format: "xlsx"},
		{Type: models.ReportTypePayments, Format: models.ReportFormatCSV, Month: 13, Year: 2026},
		{Type: models.ReportTypePayments, Format: models.ReportFormatCSV, Month: 2},
	}
	for _, req := range cases {
		_, err := svc.CreateJob(context.Background(), req, "user-1")
		require.Error(t, err, "request %+v must be rejected", req)
	}
}

func TestReportCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newMockReportJobStore()
	queue := &mockDispatcher{err: assert.AnError}
	svc := NewReportService(store, queue, nil, nil, nil, ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), ReportRequest{
		Type:   models.ReportTypeStudents,
		Format: models.ReportFormatCSV,
	}, "user-1")
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.FinishedAt)
	}
}

func TestReportGetStatusOwnership(t *testing.T) {
	store := newMockReportJobStore()
	svc := NewReportService(store, &mockDispatcher{}, nil, nil, nil, ReportServiceConfig{})

	job := &models.ReportJob{ID: "job-1", Type: models.ReportTypeStudents, Status: models.ReportStatusProcessing, CreatedBy: "staff-1"}
	require.NoError(t, store.Create(context.Background(), job))

	resp, err := svc.GetStatus(context.Background(), "job-1", "staff-1", models.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusProcessing, resp.Status)

	_, err = svc.GetStatus(context.Background(), "job-1", "staff-2", models.RoleStaff)
	require.Error(t, err, "staff cannot read another user's job")

	_, err = svc.GetStatus(context.Background(), "job-1", "admin-1", models.RoleAdmin)
	require.NoError(t, err, "admins can read any job")

	_, err = svc.GetStatus(context.Background(), "missing", "staff-1", models.RoleStaff)
	require.Error(t, err)
}

func TestReportRecoverPendingJobs(t *testing.T) {
	store := newMockReportJobStore()
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, nil, nil, ReportServiceConfig{})

	require.NoError(t, store.Create(context.Background(), &models.ReportJob{ID: "q-1", Status: models.ReportStatusQueued}))
	require.NoError(t, store.Create(context.Background(), &models.ReportJob{ID: "f-1", Status: models.ReportStatusFinished}))

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "q-1", queue.enqueued[0].ID)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := newMockReportJobStore()
	job := &models.ReportJob{ID: "job-1", Type: models.ReportTypePayments, Status: models.ReportStatusQueued}
	require.NoError(t, store.Create(context.Background(), job))

	gen := &mockGenerator{result: &ExportResult{
		RelativePath: "payments_2026_x.csv",
		URL:          "/api/v1/reports/download/tok",
	}}
	worker := NewReportWorker(store, gen, nil, 3, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1"}))

	saved := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, saved.Status)
	require.NotNil(t, saved.ResultURL)
	assert.Equal(t, "/api/v1/reports/download/tok", *saved.ResultURL)
	require.NotNil(t, saved.ResultPath)
	require.NotNil(t, saved.FinishedAt)
}

func TestReportWorkerHandleRetriesThenFails(t *testing.T) {
	store := newMockReportJobStore()
	require.NoError(t, store.Create(context.Background(), &models.ReportJob{ID: "job-1", Type: models.ReportTypePayments}))

	gen := &mockGenerator{err: assert.AnError}
	worker := NewReportWorker(store, gen, nil, 2, nil)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0}))
	assert.Equal(t, models.ReportStatusQueued, store.jobs["job-1"].Status, "early attempts go back to the queue")

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2}))
	assert.Equal(t, models.ReportStatusFailed, store.jobs["job-1"].Status)
	require.NotNil(t, store.jobs["job-1"].FinishedAt)
}
