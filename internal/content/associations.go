package content

import (
	"context"

	apperrors "readlater/internal/errors"
	"readlater/internal/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Associations owns the item <-> tag links. Both endpoints must exist and
// belong to the caller; a link never outlives either of them.
type Associations struct {
	DB   *gorm.DB
	Tags *TagRegistry
	Log  *zap.Logger
}

func NewAssociations(db *gorm.DB, tags *TagRegistry, log *zap.Logger) *Associations {
	return &Associations{DB: db, Tags: tags, Log: logger.OrNop(log).Named("associations")}
}

// Attach links the tag to the item. Attaching an existing pair is a no-op.
func (a *Associations) Attach(ctx context.Context, userID int64, itemID, tagID uint64) error {
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireItem(tx, userID, itemID); err != nil {
			return err
		}
		if err := requireTag(tx, userID, tagID); err != nil {
			return err
		}

		link := ContentItemTag{ContentItemID: itemID, TagID: tagID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit(clause.Associations).
			Create(&link).Error; err != nil {
			return apperrors.Internal("attach tag", err)
		}
		return nil
	})
	if err != nil {
		return passThrough("attach tag", err)
	}

	a.Log.Debug("tag attached", zap.Int64("user_id", userID), zap.Uint64("item_id", itemID), zap.Uint64("tag_id", tagID))
	return nil
}

// AttachByName resolves each name through the tag registry, creating tags
// on first use, and links them to the item. The result holds each tag once,
// in the order first named.
func (a *Associations) AttachByName(ctx context.Context, userID int64, itemID uint64, names ...string) ([]Tag, error) {
	if err := requireItem(a.DB.WithContext(ctx), userID, itemID); err != nil {
		return nil, err
	}

	tags := make([]Tag, 0, len(names))
	seen := make(map[uint64]struct{}, len(names))
	for _, name := range names {
		tag, err := a.Tags.GetOrCreate(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}

		if err := a.Attach(ctx, userID, itemID, tag.ID); err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// Detach removes the link if present. A missing link is not an error.
func (a *Associations) Detach(ctx context.Context, userID int64, itemID, tagID uint64) error {
	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireItem(tx, userID, itemID); err != nil {
			return err
		}
		if err := requireTag(tx, userID, tagID); err != nil {
			return err
		}

		if err := tx.Where("content_item_id = ? AND tag_id = ?", itemID, tagID).
			Delete(&ContentItemTag{}).Error; err != nil {
			return apperrors.Internal("detach tag", err)
		}
		return nil
	})
	return passThrough("detach tag", err)
}

// TagsFor returns the tags linked to the item, ordered by name.
func (a *Associations) TagsFor(ctx context.Context, userID int64, itemID uint64) ([]Tag, error) {
	db := a.DB.WithContext(ctx)
	if err := requireItem(db, userID, itemID); err != nil {
		return nil, err
	}

	tags := []Tag{}
	if err := db.Model(&Tag{}).
		Joins("JOIN content_item_tags ON content_item_tags.tag_id = tags.id").
		Where("content_item_tags.content_item_id = ? AND tags.user_id = ?", itemID, userID).
		Order("tags.name asc, tags.id asc").
		Find(&tags).Error; err != nil {
		return nil, apperrors.Internal("list item tags", err)
	}
	return tags, nil
}

// ItemsFor returns the items linked to the tag, most recently added first.
func (a *Associations) ItemsFor(ctx context.Context, userID int64, tagID uint64) ([]ContentItem, error) {
	db := a.DB.WithContext(ctx)
	if err := requireTag(db, userID, tagID); err != nil {
		return nil, err
	}

	items := []ContentItem{}
	query := applySpecifications(db.Model(&ContentItem{}),
		OwnedBy{UserID: userID},
		HasTags{TagIDs: []uint64{tagID}},
		OrderByDateAdded{},
	)
	if err := query.Find(&items).Error; err != nil {
		return nil, apperrors.Internal("list tag items", err)
	}
	return items, nil
}

func (a *Associations) withDB(db *gorm.DB) *Associations {
	c := *a
	c.DB = db
	c.Tags = a.Tags.withDB(db)
	return &c
}
