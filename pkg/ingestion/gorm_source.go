package ingestion

import (
	"context"
	"time"

	"token-pattern-be/internal/model"
	"token-pattern-be/pkg/vectorizer"

	"gorm.io/gorm"
)

// GormSource reads the token_snapshots table.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

func (s *GormSource) GetSnapshots(ctx context.Context, entityId string, start, end time.Time) ([]vectorizer.Snapshot, error) {
	var rows []model.TokenSnapshot
	err := s.db.WithContext(ctx).
		Where("entity_id = ? AND timestamp >= ? AND timestamp < ?", entityId, start, end).
		Order("timestamp ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]vectorizer.Snapshot, len(rows))
	for i, r := range rows {
		out[i] = vectorizer.Snapshot{
			EntityId:       r.EntityId,
			Timestamp:      r.Timestamp.UTC(),
			PhaseId:        r.PhaseId,
			Price:          r.Price,
			VolumeBuy:      r.VolumeBuy,
			VolumeSell:     r.VolumeSell,
			BuyCount:       r.BuyCount,
			SellCount:      r.SellCount,
			UniqueWallets:  r.UniqueWallets,
			Top10HolderPct: r.Top10HolderPct,
			DevHoldingPct:  r.DevHoldingPct,
			SniperPct:      r.SniperPct,
			Liquidity:      r.Liquidity,
		}
	}
	return out, nil
}

func (s *GormSource) ListEntities(ctx context.Context, start, end time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&model.TokenSnapshot{}).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Distinct("entity_id").
		Order("entity_id ASC").
		Pluck("entity_id", &ids).Error
	return ids, err
}
