package specification

import "gorm.io/gorm"

// Specification narrows a gorm query. Filters compose by chaining Apply.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// All is a Specification that applies each member in order. Nil members
// are skipped so optional filters can be passed straight through.
type All []Specification

func (a All) Apply(db *gorm.DB) *gorm.DB {
	for _, spec := range a {
		if spec == nil {
			continue
		}
		db = spec.Apply(db)
	}
	return db
}
