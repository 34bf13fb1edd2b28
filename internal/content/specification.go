package content

import (
	"time"

	"gorm.io/gorm"
)

// Specification narrows a content_items query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

func applySpecifications(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type OwnedBy struct {
	UserID int64
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_items.user_id = ?", s.UserID)
}

type ByStatus struct {
	Status Status
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_items.status = ?", s.Status)
}

type ByContentType struct {
	ContentType string
}

func (s ByContentType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_items.content_type = ?", s.ContentType)
}

// HasTags keeps items linked to the given tags: every one of them when All
// is set, otherwise at least one.
type HasTags struct {
	TagIDs []uint64
	All    bool
}

func (s HasTags) Apply(db *gorm.DB) *gorm.DB {
	ids := uniqueIDs(s.TagIDs)
	linked := db.Session(&gorm.Session{NewDB: true}).
		Model(&ContentItemTag{}).
		Select("content_item_id").
		Where("tag_id IN ?", ids)
	if s.All && len(ids) > 1 {
		linked = linked.Group("content_item_id").Having("COUNT(DISTINCT tag_id) = ?", len(ids))
	}
	return db.Where("content_items.id IN (?)", linked)
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AddedBetween bounds date_added inclusively. A nil bound is open.
type AddedBetween struct {
	From *time.Time
	To   *time.Time
}

func (s AddedBetween) Apply(db *gorm.DB) *gorm.DB {
	if s.From != nil {
		db = db.Where("content_items.date_added >= ?", s.From.UTC())
	}
	if s.To != nil {
		db = db.Where("content_items.date_added <= ?", s.To.UTC())
	}
	return db
}

// ReadAfter keeps items whose date_read is strictly after Since.
type ReadAfter struct {
	Since time.Time
}

func (s ReadAfter) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content_items.date_read > ?", s.Since.UTC())
}

// OrderByDateAdded sorts newest first unless Ascending; id breaks ties.
type OrderByDateAdded struct {
	Ascending bool
}

func (s OrderByDateAdded) Apply(db *gorm.DB) *gorm.DB {
	if s.Ascending {
		return db.Order("content_items.date_added ASC, content_items.id ASC")
	}
	return db.Order("content_items.date_added DESC, content_items.id DESC")
}

type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}
