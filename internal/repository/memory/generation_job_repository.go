package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"

	"github.com/google/uuid"
)

type GenerationJobRepository struct {
	store *Store
}

func NewGenerationJobRepository(store *Store) contract.GenerationJobRepository {
	return &GenerationJobRepository{store: store}
}

func copyJob(j *entity.GenerationJob) *entity.GenerationJob {
	out := *j
	out.Stats.HaltedStrategies = slices.Clone(j.Stats.HaltedStrategies)
	out.Stats.CreatedByConfig = maps.Clone(j.Stats.CreatedByConfig)
	return &out
}

func (r *GenerationJobRepository) Create(ctx context.Context, j *entity.GenerationJob) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.Id == uuid.Nil {
		j.Id = uuid.New()
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	s.jobs[j.Id] = copyJob(j)
	return nil
}

func (r *GenerationJobRepository) Update(ctx context.Context, j *entity.GenerationJob) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[j.Id]; !ok {
		return apperror.ErrNotFound.WithMessage("job %s not found", j.Id)
	}
	s.jobs[j.Id] = copyJob(j)
	return nil
}

func (r *GenerationJobRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.GenerationJob, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	j, ok := r.store.jobs[id]
	if !ok {
		return nil, nil
	}
	return copyJob(j), nil
}

func (r *GenerationJobRepository) ListRecent(ctx context.Context, limit int) ([]*entity.GenerationJob, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*entity.GenerationJob, 0, len(r.store.jobs))
	for _, j := range r.store.jobs {
		out = append(out, copyJob(j))
	}
	slices.SortFunc(out, func(a, b *entity.GenerationJob) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
