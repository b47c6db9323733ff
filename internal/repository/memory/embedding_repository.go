package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"time"

	"token-pattern-be/internal/entity"
	"token-pattern-be/internal/pkg/apperror"
	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/pkg/hnsw"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
)

type EmbeddingRepository struct {
	store *Store
}

func NewEmbeddingRepository(store *Store) contract.EmbeddingRepository {
	return &EmbeddingRepository{store: store}
}

func (r *EmbeddingRepository) Upsert(ctx context.Context, e *entity.Embedding) (bool, error) {
	if err := vectorizer.ValidateVector(e.Strategy, e.Vector); err != nil {
		return false, apperror.ErrDimensionMismatch.WithInternal(err)
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.DedupKey()
	created := false
	if id, ok := s.dedup[key]; ok {
		e.Id = id
		e.CreatedAt = s.embeddings[id].CreatedAt
	} else {
		created = true
		if e.Id == uuid.Nil {
			e.Id = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		s.dedup[key] = e.Id
	}

	stored := *e
	stored.Vector = append([]float32(nil), e.Vector...)
	stored.WindowStart = e.WindowStart.UTC()
	stored.WindowEnd = e.WindowEnd.UTC()
	stored.Label = nil
	s.embeddings[e.Id] = &stored

	if err := s.graph.Add(s.nodeFor(e.Id), stored.Vector); err != nil {
		return false, apperror.ErrDimensionMismatch.WithInternal(err)
	}
	return created, nil
}

func (r *EmbeddingRepository) Exists(ctx context.Context, key entity.DedupKey) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	key.WindowStart = key.WindowStart.UTC()
	_, ok := r.store.dedup[key]
	return ok, nil
}

func (r *EmbeddingRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Embedding, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.embeddings[id]
	if !ok {
		return nil, nil
	}
	return r.store.withLabel(e), nil
}

func (r *EmbeddingRepository) FindLatestByEntity(ctx context.Context, entityId string, strategy *string) (*entity.Embedding, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var latest *entity.Embedding
	for _, e := range r.store.embeddings {
		if e.EntityId != entityId || (strategy != nil && e.Strategy != *strategy) {
			continue
		}
		if latest == nil || e.WindowStart.After(latest.WindowStart) ||
			(e.WindowStart.Equal(latest.WindowStart) && e.CreatedAt.After(latest.CreatedAt)) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	return r.store.withLabel(latest), nil
}

func (r *EmbeddingRepository) matches(e *entity.Embedding, f contract.EmbeddingFilter) bool {
	if f.PhaseId != nil && e.PhaseId != *f.PhaseId {
		return false
	}
	if f.Strategy != nil && e.Strategy != *f.Strategy {
		return false
	}
	if f.Label != nil {
		l, ok := r.store.labels[e.Id]
		if !ok || l.Label != *f.Label {
			return false
		}
	}
	return true
}

// Search walks the HNSW graph when the query has no filters. Filtered
// queries scan every vector so a selective filter cannot starve the result.
func (r *EmbeddingRepository) Search(ctx context.Context, q contract.SearchQuery) ([]*entity.ScoredEmbedding, error) {
	if len(q.Vector) != vectorizer.Dimension {
		return nil, apperror.ErrDimensionMismatch.WithMessage("query vector has %d dimensions, index holds %d", len(q.Vector), vectorizer.Dimension)
	}
	if q.K <= 0 {
		return []*entity.ScoredEmbedding{}, nil
	}

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	unfiltered := q.Filter.PhaseId == nil && q.Filter.Label == nil && q.Filter.Strategy == nil

	var hits []*entity.ScoredEmbedding
	if unfiltered {
		fetch := max(q.K, q.EfSearch) + len(q.ExcludeIds)
		results, err := s.graph.Search(q.Vector, fetch, max(q.EfSearch, fetch))
		if err != nil {
			return nil, apperror.ErrDimensionMismatch.WithInternal(err)
		}
		for _, res := range results {
			id := s.nodeRev[res.ID]
			if slices.Contains(q.ExcludeIds, id) || res.Similarity() < q.MinSimilarity {
				continue
			}
			hits = append(hits, &entity.ScoredEmbedding{Embedding: s.withLabel(s.embeddings[id]), Similarity: res.Similarity()})
		}
	} else {
		for id, e := range s.embeddings {
			if slices.Contains(q.ExcludeIds, id) || !r.matches(e, q.Filter) {
				continue
			}
			sim := hnsw.Cosine(q.Vector, e.Vector)
			if sim < q.MinSimilarity {
				continue
			}
			hits = append(hits, &entity.ScoredEmbedding{Embedding: s.withLabel(e), Similarity: sim})
		}
	}
	return entity.RankScored(hits, q.K), nil
}

func (r *EmbeddingRepository) SearchByID(ctx context.Context, id uuid.UUID, q contract.SearchQuery) ([]*entity.ScoredEmbedding, error) {
	r.store.mu.RLock()
	e, ok := r.store.embeddings[id]
	var vec []float32
	if ok {
		vec = append([]float32(nil), e.Vector...)
	}
	r.store.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrNotFound.WithMessage("embedding %s not found", id)
	}
	q.Vector = vec
	q.ExcludeIds = append(q.ExcludeIds, id)
	return r.Search(ctx, q)
}

func (r *EmbeddingRepository) Sample(ctx context.Context, q contract.SampleQuery) ([]*entity.Embedding, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.Embedding, 0, len(s.embeddings))
	for _, e := range s.embeddings {
		if q.Strategy != nil && e.Strategy != *q.Strategy {
			continue
		}
		out = append(out, s.withLabel(e))
	}

	if q.Seed != nil {
		keys := make(map[uuid.UUID]uint64, len(out))
		for _, e := range out {
			h := fnv.New64a()
			fmt.Fprintf(h, "%s:%d", e.Id, *q.Seed)
			keys[e.Id] = h.Sum64()
		}
		slices.SortFunc(out, func(a, b *entity.Embedding) int {
			ka, kb := keys[a.Id], keys[b.Id]
			switch {
			case ka < kb:
				return -1
			case ka > kb:
				return 1
			}
			return strings.Compare(a.Id.String(), b.Id.String())
		})
	} else {
		slices.SortFunc(out, func(a, b *entity.Embedding) int {
			if c := b.WindowStart.Compare(a.WindowStart); c != 0 {
				return c
			}
			return strings.Compare(a.Id.String(), b.Id.String())
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *EmbeddingRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.embeddings)), nil
}

func (r *EmbeddingRepository) DimensionReport(ctx context.Context) ([]contract.DimensionStat, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	type key struct {
		strategy, layout string
		dim              int
	}
	counts := make(map[key]int64)
	for _, e := range r.store.embeddings {
		counts[key{e.Strategy, e.LayoutVersion, len(e.Vector)}]++
	}

	out := make([]contract.DimensionStat, 0, len(counts))
	for k, n := range counts {
		out = append(out, contract.DimensionStat{Strategy: k.strategy, LayoutVersion: k.layout, Dimension: k.dim, Count: n})
	}
	slices.SortFunc(out, func(a, b contract.DimensionStat) int {
		if c := strings.Compare(a.Strategy, b.Strategy); c != 0 {
			return c
		}
		if c := strings.Compare(a.LayoutVersion, b.LayoutVersion); c != 0 {
			return c
		}
		return a.Dimension - b.Dimension
	})
	return out, nil
}
