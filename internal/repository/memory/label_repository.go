package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"

	"github.com/google/uuid"
)

type LabelRepository struct {
	store *Store
}

func NewLabelRepository(store *Store) contract.LabelRepository {
	return &LabelRepository{store: store}
}

func stampLabel(l *entity.Label) {
	now := time.Now()
	if l.Id == uuid.Nil {
		l.Id = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = now
	}
}

// put stores l and its history row. Callers hold the write lock.
func (r *LabelRepository) put(l *entity.Label) {
	stored := *l
	r.store.labels[l.EmbeddingId] = &stored
	r.store.history = append(r.store.history, l.History())
}

func (r *LabelRepository) Upsert(ctx context.Context, l *entity.Label) error {
	stampLabel(l)

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.embeddings[l.EmbeddingId]; !ok {
		return apperror.ErrNotFound.WithMessage("embedding %s not found", l.EmbeddingId)
	}
	if current, ok := s.labels[l.EmbeddingId]; ok {
		l.Id = current.Id
		l.CreatedAt = current.CreatedAt
	}
	r.put(l)
	return nil
}

func (r *LabelRepository) AssignIfUnlabeled(ctx context.Context, l *entity.Label) (bool, error) {
	stampLabel(l)

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.embeddings[l.EmbeddingId]; !ok {
		return false, apperror.ErrNotFound.WithMessage("embedding %s not found", l.EmbeddingId)
	}
	if _, ok := s.labels[l.EmbeddingId]; ok {
		return false, nil
	}
	r.put(l)
	return true, nil
}

func (r *LabelRepository) FindByEmbeddingId(ctx context.Context, embeddingId uuid.UUID) (*entity.Label, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.labels[embeddingId]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *LabelRepository) FindByEmbeddingIds(ctx context.Context, embeddingIds []uuid.UUID) (map[uuid.UUID]*entity.Label, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make(map[uuid.UUID]*entity.Label, len(embeddingIds))
	for _, id := range embeddingIds {
		if l, ok := r.store.labels[id]; ok {
			c := *l
			out[id] = &c
		}
	}
	return out, nil
}

func (r *LabelRepository) FindHolders(ctx context.Context, label string) ([]*entity.Label, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*entity.Label
	for _, l := range r.store.labels {
		if l.Label == label {
			c := *l
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Label) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.EmbeddingId.String(), b.EmbeddingId.String())
	})
	return out, nil
}

func (r *LabelRepository) History(ctx context.Context, embeddingId uuid.UUID) ([]*entity.LabelHistory, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*entity.LabelHistory{}
	for _, h := range r.store.history {
		if h.EmbeddingId == embeddingId {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}
