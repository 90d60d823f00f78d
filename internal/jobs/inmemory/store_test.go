package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/profit-tracker/internal/jobs"
)

func TestStoreSaveAndGet(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	job := &jobs.ReportJob{JobID: "j1", UserID: "alice", Status: jobs.JobStatusPending}
	require.NoError(t, s.SaveJob(ctx, job))

	job.Status = jobs.JobStatusRunning
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusPending, got.Status)

	_, err = s.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)

	assert.Error(t, s.SaveJob(ctx, &jobs.ReportJob{}))
}

func TestStoreListJobs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, tc := range []struct {
		id, user string
		status   jobs.JobStatus
	}{
		{"a", "alice", jobs.JobStatusCompleted},
		{"b", "alice", jobs.JobStatusFailed},
		{"c", "bob", jobs.JobStatusCompleted},
		{"d", "alice", jobs.JobStatusCompleted},
	} {
		require.NoError(t, s.SaveJob(ctx, &jobs.ReportJob{
			JobID: tc.id, UserID: tc.user, Status: tc.status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{UserID: "alice"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "d", all[0].JobID)
	assert.Equal(t, "a", all[2].JobID)

	completed, err := s.ListJobs(ctx, jobs.JobFilter{UserID: "alice", Status: jobs.JobStatusCompleted})
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	page, err := s.ListJobs(ctx, jobs.JobFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].JobID)

	empty, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStoreUpdateJobStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.SaveJob(ctx, &jobs.ReportJob{JobID: "j1"}))

	require.NoError(t, s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"))
	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
}
