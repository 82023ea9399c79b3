package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpick/pkg/logger"
)

type fakeJob struct {
	name string
	errs []error
	runs int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return "0 0 0 * * *" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs++
	if len(j.errs) == 0 {
		return nil
	}
	err := j.errs[0]
	j.errs = j.errs[1:]
	return err
}

func TestRunJob_BlocksAndRecordsHistory(t *testing.T) {
	s := New(logger.Nop())
	job := &fakeJob{name: "sync"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("sync"))
	assert.Equal(t, 1, job.runs)

	history, err := s.GetJobHistory("sync")
	require.NoError(t, err)
	results := history.GetLatestResults(1)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "sync", results[0].JobName)
}

func TestRunJob_RetriesThenReportsFailure(t *testing.T) {
	s := New(logger.Nop())
	s.retryDelay = 0

	boom := errors.New("upstream down")
	job := &fakeJob{name: "sync", errs: []error{boom, boom, boom, boom}}
	require.NoError(t, s.AddJob(job))

	err := s.RunJob("sync")
	require.Error(t, err)
	assert.Equal(t, boom, err)
	assert.Equal(t, s.maxRetries+1, job.runs)

	history, err := s.GetJobHistory("sync")
	require.NoError(t, err)
	results := history.GetLatestResults(1)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, boom.Error(), results[0].Error)
}

func TestRunJob_RecoversWithinRetryBudget(t *testing.T) {
	s := New(logger.Nop())
	s.retryDelay = 0

	job := &fakeJob{name: "refresh", errs: []error{errors.New("transient")}}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))
	assert.Equal(t, 2, job.runs)

	history, err := s.GetJobHistory("refresh")
	require.NoError(t, err)
	assert.Equal(t, 1.0, history.GetSuccessRate())
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.RunJob("nope"))

	_, err := s.GetJobHistory("nope")
	assert.Error(t, err)
}
