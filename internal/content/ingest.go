package content

import (
	"context"

	"gorm.io/gorm"
)

// Ingest stores a new item together with its tags. Either the item and all
// of its links are committed, or nothing is.
type Ingest struct {
	DB    *gorm.DB
	Items *ItemStore
	Links *Associations
}

func NewIngest(db *gorm.DB, items *ItemStore, links *Associations) *Ingest {
	return &Ingest{DB: db, Items: items, Links: links}
}

// Save creates the item and attaches the named tags, creating tags on first
// use. Tag names are checked before anything is written.
func (i *Ingest) Save(ctx context.Context, in CreateItemInput, tagNames ...string) (*ContentItem, []Tag, error) {
	for _, name := range tagNames {
		if _, err := NormalizeTagName(name); err != nil {
			return nil, nil, err
		}
	}

	var (
		item *ContentItem
		tags []Tag
	)
	err := i.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		item, err = i.Items.withDB(tx).Create(ctx, in)
		if err != nil {
			return err
		}
		if len(tagNames) == 0 {
			return nil
		}
		tags, err = i.Links.withDB(tx).AttachByName(ctx, in.UserID, item.ID, tagNames...)
		return err
	})
	if err != nil {
		return nil, nil, passThrough("save content item", err)
	}
	return item, tags, nil
}
