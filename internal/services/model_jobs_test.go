package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/queue"
)

type fakeQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, jobID)
	return nil
}

// scriptedGenerator answers Status with the given states in order, repeating the last one
type scriptedGenerator struct {
	submits  int
	states   []ModelTask
	polls    int
	submitFn func() (string, error)
}

func (g *scriptedGenerator) Submit(ctx context.Context, imageURL string) (string, error) {
	g.submits++
	if g.submitFn != nil {
		return g.submitFn()
	}
	return "task-1", nil
}

func (g *scriptedGenerator) Status(ctx context.Context, taskID string) (*ModelTask, error) {
	i := g.polls
	if i >= len(g.states) {
		i = len(g.states) - 1
	}
	g.polls++
	t := g.states[i]
	t.ID = taskID
	return &t, nil
}

func newJobService(t *testing.T, gen ModelGenerator, q JobQueue) (*ModelJobService, func(string) *models.ModelJob) {
	t.Helper()
	database := newTestDB(t)
	svc := NewModelJobService(database, ModelJobOptions{
		Generator:    gen,
		Queue:        q,
		PollInterval: time.Millisecond,
		MaxPolls:     5,
	})
	get := func(id string) *models.ModelJob {
		job, err := database.GetModelJob(context.Background(), id)
		require.NoError(t, err)
		return job
	}
	return svc, get
}

func TestModelJobReady(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{states: []ModelTask{
		{Status: TaskPending},
		{Status: TaskRunning},
		{Status: TaskSucceeded, ModelURL: "https://gen.example.com/out.glb"},
	}}
	q := &fakeQueue{}
	svc, get := newJobService(t, gen, q)

	job, err := svc.Submit(ctx, ModelJobInput{ImageURL: "https://img.example.com/chair.jpg", PartnerID: "p1", Name: "Chair"})
	require.NoError(t, err)
	assert.Equal(t, models.ModelJobSubmitted, job.Status)
	require.Equal(t, []string{job.ID}, q.ids)

	require.NoError(t, svc.Process(ctx, queue.Message{JobID: job.ID, Attempt: 1}))
	done := get(job.ID)
	assert.Equal(t, models.ModelJobReady, done.Status)
	assert.Equal(t, "https://gen.example.com/out.glb", done.ModelFile)
	assert.Equal(t, "task-1", done.UpstreamTaskID)
	assert.NotEmpty(t, done.AssetID)
	assert.Equal(t, 1, done.Attempts)

	// terminal jobs are left alone on redelivery
	require.NoError(t, svc.Process(ctx, queue.Message{JobID: job.ID, Attempt: 2}))
	assert.Equal(t, 1, gen.submits)
}

func TestModelJobUpstreamFailureIsFinal(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{states: []ModelTask{{Status: TaskFailed, Error: "no object detected"}}}
	svc, get := newJobService(t, gen, &fakeQueue{})

	job, err := svc.Submit(ctx, ModelJobInput{ImageURL: "https://img.example.com/blank.jpg"})
	require.NoError(t, err)
	require.NoError(t, svc.Process(ctx, queue.Message{JobID: job.ID, Attempt: 1}))

	failed := get(job.ID)
	assert.Equal(t, models.ModelJobFailed, failed.Status)
	assert.Contains(t, failed.Error, "no object detected")
	assert.Empty(t, failed.AssetID)
}

func TestModelJobRetriesThenGivesUp(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{
		states:   []ModelTask{{Status: TaskRunning}},
		submitFn: func() (string, error) { return "", upstream("modelgen", errors.New("status 503: busy")) },
	}
	svc, get := newJobService(t, gen, &fakeQueue{})

	job, err := svc.Submit(ctx, ModelJobInput{ImageURL: "https://img.example.com/chair.jpg"})
	require.NoError(t, err)

	err = svc.Process(ctx, queue.Message{JobID: job.ID, Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ModelJobRunning, get(job.ID).Status)

	svc.GiveUp(ctx, queue.Message{JobID: job.ID, Attempt: 3}, err)
	failed := get(job.ID)
	assert.Equal(t, models.ModelJobFailed, failed.Status)
	assert.Contains(t, failed.Error, "busy")
}

func TestModelJobPollsExhausted(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{states: []ModelTask{{Status: TaskRunning}}}
	svc, get := newJobService(t, gen, &fakeQueue{})

	job, err := svc.Submit(ctx, ModelJobInput{ImageURL: "https://img.example.com/chair.jpg"})
	require.NoError(t, err)
	assert.Error(t, svc.Process(ctx, queue.Message{JobID: job.ID, Attempt: 1}))
	assert.Equal(t, 5, gen.polls)

	// the next attempt resumes the same upstream task
	assert.Error(t, svc.Process(ctx, queue.Message{JobID: job.ID, Attempt: 2}))
	assert.Equal(t, 1, gen.submits)
	assert.Equal(t, "task-1", get(job.ID).UpstreamTaskID)
}

func TestModelJobSubmitUnavailable(t *testing.T) {
	svc := NewModelJobService(newTestDB(t), ModelJobOptions{})
	_, err := svc.Submit(context.Background(), ModelJobInput{ImageURL: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestModelJobEnqueueFailureMarksFailed(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{states: []ModelTask{{Status: TaskRunning}}}
	svc, _ := newJobService(t, gen, &fakeQueue{err: errors.New("redis down")})

	_, err := svc.Submit(ctx, ModelJobInput{ImageURL: "https://img.example.com/chair.jpg"})
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)

	jobs, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, models.ModelJobFailed, jobs[0].Status)
}
