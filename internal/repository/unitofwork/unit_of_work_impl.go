package unitofwork

import (
	"context"
	"fmt"

	"token-pattern-be/internal/repository/contract"
	"token-pattern-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // set between Begin and Commit/Rollback
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is safe to defer after a successful Commit.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) EmbeddingRepository() contract.EmbeddingRepository {
	return implementation.NewPatternEmbeddingRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LabelRepository() contract.LabelRepository {
	return implementation.NewEmbeddingLabelRepository(u.getDB())
}

func (u *UnitOfWorkImpl) EmbeddingConfigRepository() contract.EmbeddingConfigRepository {
	return implementation.NewEmbeddingConfigRepository(u.getDB())
}

func (u *UnitOfWorkImpl) GenerationJobRepository() contract.GenerationJobRepository {
	return implementation.NewGenerationJobRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SimilarityPairRepository() contract.SimilarityPairRepository {
	return implementation.NewSimilarityPairRepository(u.getDB())
}
