package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/repository/contract"
)

type SimilarityPairRepository struct {
	store *Store
}

func NewSimilarityPairRepository(store *Store) contract.SimilarityPairRepository {
	return &SimilarityPairRepository{store: store}
}

func (r *SimilarityPairRepository) UpsertBulk(ctx context.Context, pairs []*entity.SimilarityPair) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	created := 0
	for _, p := range pairs {
		key := entity.NewPairKey(p.EmbeddingIdA, p.EmbeddingIdB)
		if _, ok := s.pairs[key]; ok {
			continue
		}
		stored := *p
		stored.EmbeddingIdA, stored.EmbeddingIdB = key.A, key.B
		s.pairs[key] = &stored
		created++
	}
	return created, nil
}

func (r *SimilarityPairRepository) FindPending(ctx context.Context, limit int) ([]*entity.SimilarityPair, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := []*entity.SimilarityPair{}
	for _, p := range r.store.pairs {
		if !p.Synced {
			c := *p
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.SimilarityPair) int {
		if c := a.ComputedAt.Compare(b.ComputedAt); c != 0 {
			return c
		}
		if c := strings.Compare(a.EmbeddingIdA.String(), b.EmbeddingIdA.String()); c != 0 {
			return c
		}
		return strings.Compare(a.EmbeddingIdB.String(), b.EmbeddingIdB.String())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SimilarityPairRepository) MarkSynced(ctx context.Context, keys []entity.PairKey, at time.Time) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, k := range keys {
		p, ok := s.pairs[entity.NewPairKey(k.A, k.B)]
		if !ok || p.Synced {
			continue
		}
		synced := at
		p.Synced = true
		p.SyncedAt = &synced
		n++
	}
	return n, nil
}

func (r *SimilarityPairRepository) Status(ctx context.Context) (*entity.SyncStatus, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	st := &entity.SyncStatus{TotalPairs: int64(len(r.store.pairs))}
	for _, p := range r.store.pairs {
		if p.Synced {
			st.Synced++
		}
	}
	st.Pending = st.TotalPairs - st.Synced
	return st, nil
}
