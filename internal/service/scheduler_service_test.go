package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type schedulerFixture struct {
	*fixture
	svc      *schedulerService
	notifier *recordingNotifier
	events   *fakePublisher
}

func newSchedulerFixture(now time.Time) *schedulerFixture {
	f := newFixture()
	gen := NewGenerationService(f.factory, f.source, memory.NewCursorRepository(), genConfig(), f.log)
	notifier := &recordingNotifier{}
	pub := &fakePublisher{}
	syncSvc := NewSyncService(f.factory, &fakePairPublisher{}, nil, similarityConfig(), f.log)

	svc := NewSchedulerService(f.factory, gen, pub, syncSvc, notifier, genConfig(), f.log).(*schedulerService)
	svc.now = func() time.Time { return now }
	return &schedulerFixture{fixture: f, svc: svc, notifier: notifier, events: pub}
}

func TestScheduledCycle(t *testing.T) {
	sf := newSchedulerFixture(t0.Add(600 * time.Second))
	ctx := context.Background()

	// No active configs means no job.
	job, err := sf.svc.runScheduled(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)

	sf.addConfig(t, "five-minute", 300, 0, 3)
	sf.source.Add(series("mintA", t0, 20, 30*time.Second)...)
	// Force a reload on the next cycle.
	sf.svc.cycles = 0
	sf.svc.snapshot = ConfigSnapshot{}

	job, err = sf.svc.runScheduled(ctx)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "COMPLETED", string(job.Status))
	assert.Equal(t, 2, job.EmbeddingsCreated)

	stored, err := sf.svc.GetJob(ctx, job.Id)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", stored.JobType)
	assert.Equal(t, 2, stored.EmbeddingsCreated)

	require.Len(t, sf.events.payloads, 1)
	var msg dto.EmbeddingsCreatedMessage
	require.NoError(t, json.Unmarshal(sf.events.payloads[0], &msg))
	assert.Equal(t, job.Id, msg.JobId)
	assert.Len(t, msg.EmbeddingIds, 2)

	statuses := sf.notifier.statuses()
	assert.Equal(t, "RUNNING", statuses[0])
	assert.Equal(t, "COMPLETED", statuses[len(statuses)-1])

	st := sf.svc.Status()
	assert.Equal(t, "IDLE", st.State)
	assert.EqualValues(t, 1, st.Cycles)
	assert.Equal(t, job.Id, *st.LastJobId)
	assert.Equal(t, 1, st.ActiveConfigs)

	// The cursor moved, so the next cycle finds nothing new.
	job, err = sf.svc.runScheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, job.EmbeddingsCreated)
}

func TestManualJob(t *testing.T) {
	sf := newSchedulerFixture(t0.Add(time.Hour))
	ctx := context.Background()
	cfg := sf.addConfig(t, "five-minute", 300, 0, 3)
	sf.source.Add(series("mintA", t0, 20, 30*time.Second)...)

	res, err := sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0.Add(600 * time.Second), ConfigId: &cfg.Id})
	require.NoError(t, err)

	pending, err := sf.svc.GetJob(ctx, res.JobId)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", pending.Status)

	require.NoError(t, sf.svc.runManual(ctx, <-sf.svc.commands))

	done, err := sf.svc.GetJob(ctx, res.JobId)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", done.Status)
	assert.Equal(t, 2, done.EmbeddingsCreated)
	assert.NotNil(t, done.CompletedAt)

	// A rerun over the same range adds nothing.
	res, err = sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0.Add(600 * time.Second)})
	require.NoError(t, err)
	require.NoError(t, sf.svc.runManual(ctx, <-sf.svc.commands))
	rerun, err := sf.svc.GetJob(ctx, res.JobId)
	require.NoError(t, err)
	assert.Equal(t, 0, rerun.EmbeddingsCreated)
	assert.Equal(t, 2, rerun.Stats.WindowsDuplicate)

	jobs, err := sf.svc.ListJobs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestCancelPendingJob(t *testing.T) {
	sf := newSchedulerFixture(t0.Add(time.Hour))
	ctx := context.Background()
	sf.addConfig(t, "five-minute", 300, 0, 3)

	res, err := sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0.Add(600 * time.Second)})
	require.NoError(t, err)
	require.NoError(t, sf.svc.Cancel(ctx, res.JobId))
	require.NoError(t, sf.svc.runManual(ctx, <-sf.svc.commands))

	job, err := sf.svc.GetJob(ctx, res.JobId)
	require.NoError(t, err)
	assert.Equal(t, "FAILED", job.Status)
	assert.Equal(t, "cancelled before start", job.ErrorMessage)

	assert.ErrorIs(t, sf.svc.Cancel(ctx, res.JobId), apperror.ErrBadRequest)
	assert.ErrorIs(t, sf.svc.Cancel(ctx, uuid.New()), apperror.ErrNotFound)
}

func TestCancelRejectsJobsItCannotStop(t *testing.T) {
	tests := []struct {
		name    string
		jobType entity.JobType
	}{
		{name: "running scheduled cycle", jobType: entity.JobTypeScheduled},
		{name: "manual job running elsewhere", jobType: entity.JobTypeManual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := newSchedulerFixture(t0.Add(time.Hour))
			ctx := context.Background()

			job := &entity.GenerationJob{
				JobType:      tt.jobType,
				ProcessStart: t0,
				ProcessEnd:   t0.Add(time.Hour),
				Status:       entity.JobStatusRunning,
			}
			require.NoError(t, sf.uow().GenerationJobRepository().Create(ctx, job))

			assert.ErrorIs(t, sf.svc.Cancel(ctx, job.Id), apperror.ErrBadRequest)
			sf.svc.mu.Lock()
			assert.Empty(t, sf.svc.cancelled)
			sf.svc.mu.Unlock()
		})
	}
}

func TestTriggerRejects(t *testing.T) {
	sf := newSchedulerFixture(t0.Add(time.Hour))
	ctx := context.Background()

	_, err := sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	missing := uuid.New()
	_, err = sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0.Add(time.Minute), ConfigId: &missing})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	for i := 0; i < commandQueueSize; i++ {
		_, err := sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0.Add(time.Minute)})
		require.NoError(t, err)
	}
	_, err = sf.svc.Trigger(ctx, &dto.GenerateRequest{Start: t0, End: t0.Add(time.Minute)})
	assert.ErrorIs(t, err, apperror.ErrInternal)
}

func TestStartRunsQueuedJobs(t *testing.T) {
	sf := newSchedulerFixture(t0.Add(time.Hour))
	sf.svc.cfg.Interval = time.Hour
	sf.addConfig(t, "five-minute", 300, 0, 3)
	sf.source.Add(series("mintA", t0, 20, 30*time.Second)...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sf.svc.Start(ctx)
		close(done)
	}()

	res, err := sf.svc.Trigger(context.Background(), &dto.GenerateRequest{Start: t0, End: t0.Add(600 * time.Second)})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		job, err := sf.svc.GetJob(context.Background(), res.JobId)
		return err == nil && job.Status == "COMPLETED"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}
