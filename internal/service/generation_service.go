package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"token-pattern-be/internal/config"
	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/pkg/logger"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/unitofwork"
	"token-pattern-be/pkg/ingestion"
	"token-pattern-be/pkg/vectorizer"
	"token-pattern-be/pkg/window"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ConfigSnapshot is the set of configs one cycle works from. It is replaced
// wholesale on reload and never mutated.
type ConfigSnapshot struct {
	Configs  []*entity.EmbeddingConfig
	LoadedAt time.Time
}

// GenerationPlan describes one run. Scheduled runs resume each entity from
// its cursor; manual runs cover [Start, End) and leave cursors alone.
type GenerationPlan struct {
	Configs    []*entity.EmbeddingConfig
	Start      time.Time
	End        time.Time
	UseCursors bool
}

type GenerationResult struct {
	Stats          entity.JobStats
	Created        int
	Skipped        int
	EntitiesFailed int
	NewIds         []uuid.UUID
}

// ProgressFunc is called after every batch with the entities processed so
// far for the current config and that config's total.
type ProgressFunc func(config string, processed, total int)

type IGenerationService interface {
	Generate(ctx context.Context, plan GenerationPlan, progress ProgressFunc) (*GenerationResult, error)
	// Halted lists strategies stopped after a dimension mismatch. They stay
	// halted until restart.
	Halted() []string
}

type generationService struct {
	uowFactory unitofwork.RepositoryFactory
	source     ingestion.Source
	cursors    contract.CursorRepository
	cfg        config.GenerationConfig
	logger     logger.ILogger

	haltMu sync.RWMutex
	halted map[string]string // strategy -> reason
}

func NewGenerationService(
	uowFactory unitofwork.RepositoryFactory,
	source ingestion.Source,
	cursors contract.CursorRepository,
	cfg config.GenerationConfig,
	log logger.ILogger,
) IGenerationService {
	return &generationService{
		uowFactory: uowFactory,
		source:     source,
		cursors:    cursors,
		cfg:        cfg,
		logger:     log,
		halted:     make(map[string]string),
	}
}

func (g *generationService) Halted() []string {
	g.haltMu.RLock()
	defer g.haltMu.RUnlock()
	out := make([]string, 0, len(g.halted))
	for s := range g.halted {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func (g *generationService) isHalted(strategy string) bool {
	g.haltMu.RLock()
	defer g.haltMu.RUnlock()
	_, ok := g.halted[strategy]
	return ok
}

func (g *generationService) halt(strategy string, err error) {
	g.haltMu.Lock()
	_, already := g.halted[strategy]
	g.halted[strategy] = err.Error()
	g.haltMu.Unlock()

	if !already {
		g.logger.Error("GENERATION", "Strategy halted after dimension mismatch", map[string]interface{}{
			"strategy": strategy,
			"error":    err.Error(),
		})
	}
}

// tally aggregates per-entity outcomes across workers.
type tally struct {
	mu  sync.Mutex
	res GenerationResult
}

func (t *tally) add(fn func(r *GenerationResult)) {
	t.mu.Lock()
	fn(&t.res)
	t.mu.Unlock()
}

func (t *tally) snapshot() *GenerationResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := t.res
	r.NewIds = slices.Clone(t.res.NewIds)
	r.Stats.HaltedStrategies = slices.Clone(t.res.Stats.HaltedStrategies)
	if t.res.Stats.CreatedByConfig != nil {
		r.Stats.CreatedByConfig = make(map[string]int, len(t.res.Stats.CreatedByConfig))
		for k, v := range t.res.Stats.CreatedByConfig {
			r.Stats.CreatedByConfig[k] = v
		}
	}
	return &r
}

func (g *generationService) Generate(ctx context.Context, plan GenerationPlan, progress ProgressFunc) (*GenerationResult, error) {
	t := &tally{}
	t.res.Stats.CreatedByConfig = make(map[string]int)

	batchSize := max(g.cfg.BatchSize, 1)
	workers := max(g.cfg.Workers, 1)

	for _, cfg := range plan.Configs {
		if err := ctx.Err(); err != nil {
			return t.snapshot(), err
		}
		if g.isHalted(cfg.Strategy) {
			continue
		}
		strategy, err := vectorizer.Lookup(cfg.Strategy)
		if err != nil {
			g.logger.Error("GENERATION", "Config references unknown strategy", map[string]interface{}{
				"config": cfg.Name,
				"error":  err.Error(),
			})
			continue
		}
		t.add(func(r *GenerationResult) { r.Stats.Configs++ })

		entities, err := g.listEntities(ctx, plan)
		if err != nil {
			return t.snapshot(), err
		}
		t.add(func(r *GenerationResult) { r.Stats.Entities = max(r.Stats.Entities, len(entities)) })

		for from := 0; from < len(entities); from += batchSize {
			if err := ctx.Err(); err != nil {
				return t.snapshot(), err
			}
			batch := entities[from:min(from+batchSize, len(entities))]

			eg, gctx := errgroup.WithContext(ctx)
			eg.SetLimit(workers)
			for _, entityId := range batch {
				eg.Go(func() error {
					return g.processEntity(gctx, cfg, strategy, entityId, plan, t)
				})
			}
			if err := eg.Wait(); err != nil {
				return t.snapshot(), err
			}

			if progress != nil {
				progress(cfg.Name, from+len(batch), len(entities))
			}
		}
	}

	res := t.snapshot()
	res.Stats.HaltedStrategies = g.Halted()
	return res, nil
}

func (g *generationService) listEntities(ctx context.Context, plan GenerationPlan) ([]string, error) {
	cctx, cancel := context.WithTimeout(ctx, g.cfg.CollaboratorTimeout)
	defer cancel()

	start := plan.Start
	if plan.UseCursors {
		start = plan.End.Add(-g.cfg.InitialLookback)
	}
	ids, err := g.source.ListEntities(cctx, start, plan.End)
	if err != nil {
		return nil, apperror.ErrIndexUnavailable.WithMessage("listing entities failed").WithInternal(err)
	}
	return ids, nil
}

// startCursor is where an entity's windows begin for this run.
func (g *generationService) startCursor(ctx context.Context, cfg *entity.EmbeddingConfig, entityId string, plan GenerationPlan) time.Time {
	spec := cfg.WindowSpec()
	if !plan.UseCursors {
		return window.AlignDown(spec, plan.Start)
	}
	if c, ok, err := g.cursors.Get(ctx, cfg.Id, entityId); err == nil && ok {
		return c
	} else if err != nil {
		g.logger.Warn("GENERATION", "Cursor lookup failed, rescanning lookback", map[string]interface{}{
			"entity": entityId,
			"error":  err.Error(),
		})
	}
	return window.AlignDown(spec, plan.End.Add(-g.cfg.InitialLookback))
}

// windowSnapshots returns the sub-slice of the time-ordered snaps inside w.
func windowSnapshots(snaps []vectorizer.Snapshot, w window.Window) []vectorizer.Snapshot {
	lo := sort.Search(len(snaps), func(i int) bool { return !snaps[i].Timestamp.Before(w.Start) })
	hi := sort.Search(len(snaps), func(i int) bool { return !snaps[i].Timestamp.Before(w.End) })
	return snaps[lo:hi]
}

// processEntity generates the pending windows of one entity under one
// config. Only errors that should fail the whole run are returned; anything
// else is counted and the entity is retried next cycle.
func (g *generationService) processEntity(
	ctx context.Context,
	cfg *entity.EmbeddingConfig,
	strategy vectorizer.Strategy,
	entityId string,
	plan GenerationPlan,
	t *tally,
) error {
	if g.isHalted(cfg.Strategy) {
		return nil
	}

	spec := cfg.WindowSpec()
	cursor := g.startCursor(ctx, cfg, entityId, plan)
	n := window.Count(spec, cursor, plan.End)
	if n == 0 {
		return nil
	}
	windows, err := window.Generate(spec, cursor, plan.End)
	if err != nil {
		g.logger.Error("GENERATION", "Invalid window spec", map[string]interface{}{"config": cfg.Name, "error": err.Error()})
		return nil
	}

	fetchEnd := cursor.Add(time.Duration(n-1)*spec.Step() + spec.Duration)
	fctx, cancel := context.WithTimeout(ctx, g.cfg.CollaboratorTimeout)
	snaps, err := g.source.GetSnapshots(fctx, entityId, cursor, fetchEnd)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		timedOut := errors.Is(err, context.DeadlineExceeded)
		t.add(func(r *GenerationResult) {
			r.EntitiesFailed++
			if timedOut {
				r.Stats.WindowsTimedOut += n
			}
		})
		g.logger.Warn("GENERATION", "Snapshot fetch failed", map[string]interface{}{
			"entity":    entityId,
			"config":    cfg.Name,
			"timed_out": timedOut,
			"error":     err.Error(),
		})
		return nil
	}

	repo := g.uowFactory.NewUnitOfWork(ctx).EmbeddingRepository()
	opts := cfg.VectorizeOptions()
	next := cursor

	defer func() {
		if plan.UseCursors && next.After(cursor) {
			if err := g.cursors.Set(ctx, cfg.Id, entityId, next); err != nil {
				g.logger.Warn("GENERATION", "Cursor store failed", map[string]interface{}{"entity": entityId, "error": err.Error()})
			}
		}
	}()

	for w := range windows {
		t.add(func(r *GenerationResult) { r.Stats.WindowsSeen++ })

		key := entity.DedupKey{EntityId: entityId, ConfigId: cfg.Id, WindowStart: w.Start.UTC()}
		exists, err := repo.Exists(ctx, key)
		if err != nil {
			return err
		}
		if exists {
			t.add(func(r *GenerationResult) { r.Stats.WindowsDuplicate++ })
			next = w.Start.Add(spec.Step())
			continue
		}

		res, err := vectorizer.Vectorize(strategy, vectorizer.Input{
			EntityId:    entityId,
			WindowStart: w.Start,
			WindowEnd:   w.End,
			Snapshots:   windowSnapshots(snaps, w),
		}, opts)
		switch {
		case errors.Is(err, vectorizer.ErrInsufficientData):
			g.logger.Debug("GENERATION", "Window skipped", map[string]interface{}{"entity": entityId, "window_start": w.Start, "reason": err.Error()})
			t.add(func(r *GenerationResult) { r.Skipped++ })
			next = w.Start.Add(spec.Step())
			continue
		case errors.Is(err, vectorizer.ErrDimensionMismatch):
			g.halt(cfg.Strategy, err)
			return nil
		case err != nil:
			t.add(func(r *GenerationResult) { r.EntitiesFailed++ })
			g.logger.Error("GENERATION", "Vectorization failed", map[string]interface{}{"entity": entityId, "error": err.Error()})
			return nil
		}

		e := &entity.Embedding{
			EntityId:      entityId,
			ConfigId:      cfg.Id,
			Strategy:      res.Strategy,
			LayoutVersion: res.LayoutVersion,
			PhaseId:       res.PhaseId,
			Vector:        res.Vector,
			WindowStart:   w.Start.UTC(),
			WindowEnd:     w.End.UTC(),
			NumSnapshots:  res.NumSnapshots,
			QualityScore:  res.QualityScore,
		}
		created, err := repo.Upsert(ctx, e)
		if errors.Is(err, apperror.ErrDimensionMismatch) {
			g.halt(cfg.Strategy, err)
			return nil
		}
		if err != nil {
			return err
		}

		if created {
			t.add(func(r *GenerationResult) {
				r.Created++
				r.NewIds = append(r.NewIds, e.Id)
				r.Stats.CreatedByConfig[cfg.Name]++
			})
		} else {
			t.add(func(r *GenerationResult) { r.Stats.WindowsDuplicate++ })
		}
		next = w.Start.Add(spec.Step())
	}
	return nil
}
