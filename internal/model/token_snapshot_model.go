package model

import "time"

// TokenSnapshot is owned by the ingestion service; this service only reads
// it. The model exists so local databases can be seeded and migrated.
type TokenSnapshot struct {
	Id             int64     `gorm:"primaryKey;autoIncrement"`
	EntityId       string    `gorm:"type:varchar(64);not null;index:idx_snapshot_entity_ts,priority:1"`
	Timestamp      time.Time `gorm:"not null;index:idx_snapshot_entity_ts,priority:2;index"`
	PhaseId        int       `gorm:"not null;default:0"`
	Price          float64   `gorm:"not null"`
	VolumeBuy      float64   `gorm:"not null;default:0"`
	VolumeSell     float64   `gorm:"not null;default:0"`
	BuyCount       int       `gorm:"not null;default:0"`
	SellCount      int       `gorm:"not null;default:0"`
	UniqueWallets  int       `gorm:"not null;default:0"`
	Top10HolderPct float64   `gorm:"column:top10_holder_pct;not null;default:0"`
	DevHoldingPct  float64   `gorm:"not null;default:0"`
	SniperPct      float64   `gorm:"not null;default:0"`
	Liquidity      float64   `gorm:"not null;default:0"`
}

func (TokenSnapshot) TableName() string {
	return "token_snapshots"
}
