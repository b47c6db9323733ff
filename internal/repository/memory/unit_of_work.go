package memory

import (
	"context"

	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/unitofwork"
)

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork over the Store. Transactions are no-ops: each repository write
// is atomic under the store lock, and nothing is undone on Rollback.
type UnitOfWork struct {
	store *Store
}

func (u *UnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *UnitOfWork) Commit() error                   { return nil }
func (u *UnitOfWork) Rollback() error                 { return nil }

func (u *UnitOfWork) EmbeddingRepository() contract.EmbeddingRepository {
	return NewEmbeddingRepository(u.store)
}

func (u *UnitOfWork) LabelRepository() contract.LabelRepository {
	return NewLabelRepository(u.store)
}

func (u *UnitOfWork) EmbeddingConfigRepository() contract.EmbeddingConfigRepository {
	return NewEmbeddingConfigRepository(u.store)
}

func (u *UnitOfWork) GenerationJobRepository() contract.GenerationJobRepository {
	return NewGenerationJobRepository(u.store)
}

func (u *UnitOfWork) SimilarityPairRepository() contract.SimilarityPairRepository {
	return NewSimilarityPairRepository(u.store)
}
