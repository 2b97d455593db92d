package entity

import "gorm.io/datatypes"

// LookupCacheEntry stores a provider answer for a CNPJ.
type LookupCacheEntry struct {
	CNPJ string `gorm:"primaryKey;column:cnpj;size:14"`

	// Found controls the negative caching strategy for provider lookups:
	//
	// - true: The CNPJ exists and Payload holds the provider answer.
	//
	// - false: The CNPJ was queried, returned a 404, and is cached as absent.
	//
	// This prevents repeated provider calls for CNPJs we already know do not exist.
	Found    bool           `gorm:"not null"`
	Payload  datatypes.JSON `gorm:"type:text"`
	CachedAt int64          `gorm:"not null;index;autoUpdateTime:false"`
}

func (LookupCacheEntry) TableName() string {
	return "lookup_cache"
}
