package scope

import "gorm.io/gorm"

// OrderByCreatedDesc puts the newest row first. Rows created in the same
// instant fall back to id so repeated reads agree.
func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// OrderBySortOrder is the default stall display order. Id breaks ties so the
// order is stable across reads.
func OrderBySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("id ASC")
}
