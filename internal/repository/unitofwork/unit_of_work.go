package unitofwork

import (
	"context"

	"token-pattern-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	EmbeddingRepository() contract.EmbeddingRepository
	LabelRepository() contract.LabelRepository
	EmbeddingConfigRepository() contract.EmbeddingConfigRepository
	GenerationJobRepository() contract.GenerationJobRepository
	SimilarityPairRepository() contract.SimilarityPairRepository
}

// RepositoryFactory hands out units of work bound to one storage backend,
// either postgres or the in-process store.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
