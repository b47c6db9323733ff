package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/dto"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type SchedulerState string

const (
	StateIdle           SchedulerState = "IDLE"
	StateLoadingConfigs SchedulerState = "LOADING_CONFIGS"
	StateGenerating     SchedulerState = "GENERATING"
	StateSyncing        SchedulerState = "SYNCING"
	StateFailed         SchedulerState = "FAILED"
)

const commandQueueSize = 16

// IJobNotifier receives job lifecycle events for live subscribers.
type IJobNotifier interface {
	NotifyJob(event events.BaseEvent)
}

type ISchedulerService interface {
	// Start runs the cycle loop until ctx is done.
	Start(ctx context.Context)
	Trigger(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateResponse, error)
	Cancel(ctx context.Context, jobId uuid.UUID) error
	GetJob(ctx context.Context, jobId uuid.UUID) (*dto.JobResponse, error)
	ListJobs(ctx context.Context, limit int) ([]*dto.JobResponse, error)
	Status() *dto.SchedulerStatusResponse
}

type schedulerService struct {
	uowFactory  unitofwork.RepositoryFactory
	generator   IGenerationService
	publisher   IPublisherService
	syncService ISyncService
	notifier    IJobNotifier
	cfg         config.GenerationConfig
	logger      logger.ILogger
	tracer      trace.Tracer
	now         func() time.Time

	commands chan uuid.UUID

	mu          sync.RWMutex
	state       SchedulerState
	cycles      int64
	snapshot    ConfigSnapshot
	lastCycleAt *time.Time
	lastJobId   *uuid.UUID
	running     map[uuid.UUID]context.CancelFunc
	cancelled   map[uuid.UUID]struct{}
}

// NewSchedulerService wires the cycle executor. publisher, syncService and
// notifier may be nil.
func NewSchedulerService(
	uowFactory unitofwork.RepositoryFactory,
	generator IGenerationService,
	publisher IPublisherService,
	syncService ISyncService,
	notifier IJobNotifier,
	cfg config.GenerationConfig,
	log logger.ILogger,
) ISchedulerService {
	return &schedulerService{
		uowFactory:  uowFactory,
		generator:   generator,
		publisher:   publisher,
		syncService: syncService,
		notifier:    notifier,
		cfg:         cfg,
		logger:      log,
		tracer:      otel.Tracer("token-pattern-be/scheduler"),
		now:         time.Now,
		commands:    make(chan uuid.UUID, commandQueueSize),
		state:       StateIdle,
		running:     make(map[uuid.UUID]context.CancelFunc),
		cancelled:   make(map[uuid.UUID]struct{}),
	}
}

func (s *schedulerService) Start(ctx context.Context) {
	s.logger.Info("SCHEDULER", "Scheduler started", map[string]interface{}{
		"interval":   s.cfg.Interval.String(),
		"batch_size": s.cfg.BatchSize,
		"workers":    s.cfg.Workers,
	})

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	// Ticks and manual jobs share this loop, so cycles never overlap.
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SCHEDULER", "Scheduler stopped", nil)
			return
		case <-ticker.C:
			if _, err := s.runScheduled(ctx); err != nil {
				s.logger.Error("SCHEDULER", "Scheduled cycle failed", map[string]interface{}{"error": err.Error()})
			}
		case jobId := <-s.commands:
			if err := s.runManual(ctx, jobId); err != nil {
				s.logger.Error("SCHEDULER", "Manual job failed", map[string]interface{}{"job_id": jobId, "error": err.Error()})
			}
		}
	}
}

func (s *schedulerService) setState(st SchedulerState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *schedulerService) notify(job *entity.GenerationJob, details map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyJob(events.NewJobProgress(job.Id.String(), string(job.Status), details))
}

// configSnapshot returns the active configs, reloading every ReloadEvery
// scheduled cycles.
func (s *schedulerService) configSnapshot(ctx context.Context) (ConfigSnapshot, error) {
	s.mu.RLock()
	snap, cycles := s.snapshot, s.cycles
	s.mu.RUnlock()

	every := int64(max(s.cfg.ReloadEvery, 1))
	if !snap.LoadedAt.IsZero() && cycles%every != 0 {
		return snap, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	configs, err := uow.EmbeddingConfigRepository().List(ctx, true)
	if err != nil {
		return snap, err
	}
	snap = ConfigSnapshot{Configs: configs, LoadedAt: s.now().UTC()}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.logger.Info("SCHEDULER", "Active configs reloaded", map[string]interface{}{"configs": len(configs)})
	return snap, nil
}

func (s *schedulerService) runScheduled(ctx context.Context) (*entity.GenerationJob, error) {
	now := s.now().UTC()
	ctx, span := s.tracer.Start(ctx, "generation.cycle", trace.WithAttributes(attribute.String("job.type", string(entity.JobTypeScheduled))))
	defer span.End()

	defer func() {
		s.mu.Lock()
		s.cycles++
		s.lastCycleAt = &now
		s.mu.Unlock()
	}()

	s.setState(StateLoadingConfigs)
	snap, err := s.configSnapshot(ctx)
	if err != nil {
		s.setState(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(snap.Configs) == 0 {
		s.setState(StateIdle)
		return nil, nil
	}

	job := &entity.GenerationJob{
		JobType:      entity.JobTypeScheduled,
		ProcessStart: now.Add(-s.cfg.InitialLookback),
		ProcessEnd:   now,
		Status:       entity.JobStatusRunning,
		StartedAt:    &now,
	}
	if err := s.uowFactory.NewUnitOfWork(ctx).GenerationJobRepository().Create(ctx, job); err != nil {
		s.setState(StateFailed)
		return nil, err
	}
	span.SetAttributes(attribute.String("job.id", job.Id.String()))

	err = s.execute(ctx, job, GenerationPlan{
		Configs:    snap.Configs,
		Start:      job.ProcessStart,
		End:        now,
		UseCursors: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return job, err
}

func (s *schedulerService) Trigger(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if !req.End.After(req.Start) {
		return nil, apperror.ErrBadRequest.WithMessage("end must be after start")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if req.ConfigId != nil {
		c, err := uow.EmbeddingConfigRepository().FindById(ctx, *req.ConfigId)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, apperror.ErrNotFound.WithMessage("config %s not found", *req.ConfigId)
		}
	}

	job := &entity.GenerationJob{
		JobType:      entity.JobTypeManual,
		ConfigId:     req.ConfigId,
		ProcessStart: req.Start.UTC(),
		ProcessEnd:   req.End.UTC(),
		Status:       entity.JobStatusPending,
	}
	if err := uow.GenerationJobRepository().Create(ctx, job); err != nil {
		return nil, err
	}

	select {
	case s.commands <- job.Id:
	default:
		job.Status = entity.JobStatusFailed
		job.ErrorMessage = "generation queue is full"
		now := s.now().UTC()
		job.CompletedAt = &now
		if err := uow.GenerationJobRepository().Update(ctx, job); err != nil {
			return nil, err
		}
		return nil, apperror.ErrInternal.WithMessage("generation queue is full, retry later")
	}

	s.notify(job, nil)
	return &dto.GenerateResponse{JobId: job.Id}, nil
}

func (s *schedulerService) Cancel(ctx context.Context, jobId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.GenerationJobRepository().FindById(ctx, jobId)
	if err != nil {
		return err
	}
	if job == nil {
		return apperror.ErrNotFound.WithMessage("job %s not found", jobId)
	}
	if job.Status.Terminal() {
		return apperror.ErrBadRequest.WithMessage("job %s already %s", jobId, job.Status)
	}

	if job.JobType == entity.JobTypeScheduled {
		return apperror.ErrBadRequest.WithMessage("job %s is a scheduled cycle and cannot be cancelled", jobId)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.running[jobId]; ok {
		cancel()
		return nil
	}
	if job.Status != entity.JobStatusPending {
		return apperror.ErrBadRequest.WithMessage("job %s is %s but not running on this instance", jobId, job.Status)
	}
	s.cancelled[jobId] = struct{}{}
	return nil
}

func (s *schedulerService) failJob(ctx context.Context, job *entity.GenerationJob, msg string) error {
	now := s.now().UTC()
	job.Status = entity.JobStatusFailed
	job.ErrorMessage = msg
	job.CompletedAt = &now
	err := s.uowFactory.NewUnitOfWork(ctx).GenerationJobRepository().Update(context.WithoutCancel(ctx), job)
	s.notify(job, map[string]interface{}{"error": msg})
	return err
}

func (s *schedulerService) runManual(ctx context.Context, jobId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	job, err := uow.GenerationJobRepository().FindById(ctx, jobId)
	if err != nil {
		return err
	}
	if job == nil || job.Status.Terminal() {
		return nil
	}

	s.mu.Lock()
	_, wasCancelled := s.cancelled[jobId]
	delete(s.cancelled, jobId)
	s.mu.Unlock()
	if wasCancelled {
		return s.failJob(ctx, job, "cancelled before start")
	}

	var configs []*entity.EmbeddingConfig
	if job.ConfigId != nil {
		c, err := uow.EmbeddingConfigRepository().FindById(ctx, *job.ConfigId)
		if err != nil {
			return s.failJob(ctx, job, err.Error())
		}
		if c == nil {
			return s.failJob(ctx, job, "config not found")
		}
		configs = []*entity.EmbeddingConfig{c}
	} else {
		configs, err = uow.EmbeddingConfigRepository().List(ctx, true)
		if err != nil {
			return s.failJob(ctx, job, err.Error())
		}
	}

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.running[jobId] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.running, jobId)
		s.mu.Unlock()
	}()

	jobCtx, span := s.tracer.Start(jobCtx, "generation.job", trace.WithAttributes(
		attribute.String("job.type", string(entity.JobTypeManual)),
		attribute.String("job.id", jobId.String()),
	))
	defer span.End()

	now := s.now().UTC()
	job.Status = entity.JobStatusRunning
	job.StartedAt = &now
	if err := uow.GenerationJobRepository().Update(jobCtx, job); err != nil {
		return err
	}

	end := job.ProcessEnd
	if end.After(now) {
		end = now
	}
	err = s.execute(jobCtx, job, GenerationPlan{Configs: configs, Start: job.ProcessStart, End: end})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// execute runs the GENERATING and SYNCING steps for a running job and
// records its terminal state.
func (s *schedulerService) execute(ctx context.Context, job *entity.GenerationJob, plan GenerationPlan) error {
	s.setState(StateGenerating)
	s.notify(job, map[string]interface{}{"configs": len(plan.Configs)})
	startedAt := time.Now()

	res, genErr := s.generator.Generate(ctx, plan, func(cfgName string, processed, total int) {
		s.notify(job, map[string]interface{}{"config": cfgName, "processed": processed, "total": total})
	})
	if res != nil {
		job.EmbeddingsCreated = res.Created
		job.WindowsSkipped = res.Skipped
		job.EntitiesFailed = res.EntitiesFailed
		job.Stats = res.Stats
	}

	if genErr == nil {
		s.setState(StateSyncing)
		job.Stats.PairsPublished = s.syncNew(ctx, job, res.NewIds)
	}

	job.Stats.DurationMillis = time.Since(startedAt).Milliseconds()
	completed := s.now().UTC()
	job.CompletedAt = &completed
	if genErr != nil {
		job.Status = entity.JobStatusFailed
		job.ErrorMessage = genErr.Error()
		if errors.Is(genErr, context.Canceled) {
			job.ErrorMessage = "cancelled"
		}
	} else {
		job.Status = entity.JobStatusCompleted
	}

	// The job row is written even when ctx was cancelled.
	updErr := s.uowFactory.NewUnitOfWork(ctx).GenerationJobRepository().Update(context.WithoutCancel(ctx), job)

	s.mu.Lock()
	id := job.Id
	s.lastJobId = &id
	if genErr != nil {
		s.state = StateFailed
	} else {
		s.state = StateIdle
	}
	s.mu.Unlock()

	s.notify(job, map[string]interface{}{
		"embeddings_created": job.EmbeddingsCreated,
		"windows_skipped":    job.WindowsSkipped,
		"entities_failed":    job.EntitiesFailed,
	})
	s.logger.Info("SCHEDULER", "Job finished", map[string]interface{}{
		"job_id":             job.Id,
		"job_type":           job.JobType,
		"status":             job.Status,
		"embeddings_created": job.EmbeddingsCreated,
		"windows_skipped":    job.WindowsSkipped,
		"entities_failed":    job.EntitiesFailed,
		"duration_ms":        job.Stats.DurationMillis,
	})

	if genErr != nil {
		return genErr
	}
	return updErr
}

// syncNew hands the new embeddings to the similarity consumer and flushes
// pending pairs to the mirror. Failures here never fail the job; pairs stay
// pending and go out on a later cycle.
func (s *schedulerService) syncNew(ctx context.Context, job *entity.GenerationJob, ids []uuid.UUID) int {
	if s.publisher != nil && len(ids) > 0 {
		payload, err := json.Marshal(dto.EmbeddingsCreatedMessage{JobId: job.Id, EmbeddingIds: ids})
		if err == nil {
			err = s.publisher.Publish(ctx, payload)
		}
		if err != nil {
			s.logger.Warn("SCHEDULER", "Failed to publish EMBEDDINGS_CREATED", map[string]interface{}{"job_id": job.Id, "error": err.Error()})
		}
	}

	if s.syncService == nil {
		return 0
	}
	res, err := s.syncService.Sync(ctx)
	if err != nil {
		if !errors.Is(err, apperror.ErrMirrorUnavailable) {
			s.logger.Warn("SCHEDULER", "Mirror sync failed", map[string]interface{}{"error": err.Error()})
		}
		if res == nil {
			return 0
		}
	}
	return res.Published
}

func toJobResponse(j *entity.GenerationJob) *dto.JobResponse {
	return &dto.JobResponse{
		Id:                j.Id,
		JobType:           string(j.JobType),
		ConfigId:          j.ConfigId,
		ProcessStart:      j.ProcessStart,
		ProcessEnd:        j.ProcessEnd,
		Status:            string(j.Status),
		EmbeddingsCreated: j.EmbeddingsCreated,
		WindowsSkipped:    j.WindowsSkipped,
		EntitiesFailed:    j.EntitiesFailed,
		ErrorMessage:      j.ErrorMessage,
		Stats:             j.Stats,
		CreatedAt:         j.CreatedAt,
		StartedAt:         j.StartedAt,
		CompletedAt:       j.CompletedAt,
	}
}

func (s *schedulerService) GetJob(ctx context.Context, jobId uuid.UUID) (*dto.JobResponse, error) {
	job, err := s.uowFactory.NewUnitOfWork(ctx).GenerationJobRepository().FindById(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperror.ErrNotFound.WithMessage("job %s not found", jobId)
	}
	return toJobResponse(job), nil
}

func (s *schedulerService) ListJobs(ctx context.Context, limit int) ([]*dto.JobResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	jobs, err := s.uowFactory.NewUnitOfWork(ctx).GenerationJobRepository().ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out, nil
}

func (s *schedulerService) Status() *dto.SchedulerStatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &dto.SchedulerStatusResponse{
		State:         string(s.state),
		Cycles:        s.cycles,
		LastCycleAt:   s.lastCycleAt,
		LastJobId:     s.lastJobId,
		ActiveConfigs: len(s.snapshot.Configs),
		Halted:        s.generator.Halted(),
	}
}
