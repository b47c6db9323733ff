// Package memory is the in-process backend: every repository contract over
// one shared Store, with an HNSW graph for vector search. It serves
// deployments without a database DSN and the service tests.
package memory

import (
	"sync"

	"token-pattern-be/internal/entity"
	"token-pattern-be/pkg/hnsw"
	"token-pattern-be/pkg/vectorizer"

	"github.com/google/uuid"
)

// Store holds all rows. A single RWMutex serializes writers, so a write is
// visible to readers only once it is complete.
type Store struct {
	mu sync.RWMutex

	configs    map[uuid.UUID]*entity.EmbeddingConfig
	embeddings map[uuid.UUID]*entity.Embedding
	dedup      map[entity.DedupKey]uuid.UUID
	labels     map[uuid.UUID]*entity.Label // by embedding id
	history    []*entity.LabelHistory
	jobs       map[uuid.UUID]*entity.GenerationJob
	pairs      map[entity.PairKey]*entity.SimilarityPair

	graph   *hnsw.Index
	nodeIds map[uuid.UUID]int64
	nodeRev map[int64]uuid.UUID
	nextSeq int64
}

func NewStore(cfg hnsw.Config) *Store {
	return &Store{
		configs:    make(map[uuid.UUID]*entity.EmbeddingConfig),
		embeddings: make(map[uuid.UUID]*entity.Embedding),
		dedup:      make(map[entity.DedupKey]uuid.UUID),
		labels:     make(map[uuid.UUID]*entity.Label),
		jobs:       make(map[uuid.UUID]*entity.GenerationJob),
		pairs:      make(map[entity.PairKey]*entity.SimilarityPair),
		graph:      hnsw.New(vectorizer.Dimension, cfg),
		nodeIds:    make(map[uuid.UUID]int64),
		nodeRev:    make(map[int64]uuid.UUID),
	}
}

// nodeFor returns the graph id of an embedding, allocating one on first use.
// Callers hold the write lock.
func (s *Store) nodeFor(id uuid.UUID) int64 {
	if n, ok := s.nodeIds[id]; ok {
		return n
	}
	s.nextSeq++
	s.nodeIds[id] = s.nextSeq
	s.nodeRev[s.nextSeq] = id
	return s.nextSeq
}

// withLabel returns a copy of e with its current label attached. Callers
// hold at least the read lock.
func (s *Store) withLabel(e *entity.Embedding) *entity.Embedding {
	c := *e
	c.Vector = append([]float32(nil), e.Vector...)
	c.Label = nil
	if l, ok := s.labels[e.Id]; ok {
		name := l.Label
		c.Label = &name
	}
	return &c
}
