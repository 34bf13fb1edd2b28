package content

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	apperrors "readlater/internal/errors"
	"readlater/internal/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxTagNameLen = 64

// TagRegistry owns tag identity. Names are matched byte for byte after
// trimming surrounding whitespace, so "Work" and "work" are different tags.
type TagRegistry struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewTagRegistry(db *gorm.DB, log *zap.Logger) *TagRegistry {
	return &TagRegistry{DB: db, Log: logger.OrNop(log).Named("tags")}
}

func NormalizeTagName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
	}
	if utf8.RuneCountInString(name) > maxTagNameLen {
		return "", apperrors.ValidationWithDetails("validation failed", map[string]string{"name": "must not exceed 64 characters"})
	}
	return name, nil
}

func requireUser(userID int64) error {
	if userID == 0 {
		return apperrors.ValidationWithDetails("validation failed", map[string]string{"user_id": "is required"})
	}
	return nil
}

// GetOrCreate returns the user's tag with this name, creating it on first
// use. Two callers racing on the same name both get the single row that won
// the (user_id, name) unique index: the loser's insert does nothing and it
// reads the winner back. The insert never fails on the conflict, so it is
// safe inside an enclosing transaction.
func (r *TagRegistry) GetOrCreate(ctx context.Context, userID int64, name string) (*Tag, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name, err := NormalizeTagName(name)
	if err != nil {
		return nil, err
	}

	db := r.DB.WithContext(ctx)

	if tag, err := findTagByName(db, userID, name); err != nil || tag != nil {
		return tag, err
	}

	tag := Tag{UserID: userID, Name: name}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&tag)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return nil, apperrors.Internal("create tag", res.Error)
	}
	if res.Error == nil && res.RowsAffected == 1 {
		r.Log.Info("tag created", zap.Int64("user_id", userID), zap.Uint64("tag_id", tag.ID), zap.String("name", name))
		return &tag, nil
	}

	r.Log.Debug("tag create lost race, reading winner", zap.Int64("user_id", userID), zap.String("name", name))
	winner, err := findTagByName(db, userID, name)
	if err != nil {
		return nil, err
	}
	if winner == nil {
		return nil, apperrors.Internal("resolve tag", errors.New("conflict reported but no row found"))
	}
	return winner, nil
}

func findTagByName(db *gorm.DB, userID int64, name string) (*Tag, error) {
	var tag Tag
	err := db.Where("user_id = ? AND name = ?", userID, name).Take(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("load tag", err)
	}
	return &tag, nil
}

func (r *TagRegistry) Get(ctx context.Context, userID int64, id uint64) (*Tag, error) {
	return findTag(r.DB.WithContext(ctx), userID, id)
}

// List returns the user's tags ordered by name.
func (r *TagRegistry) List(ctx context.Context, userID int64) ([]Tag, error) {
	tags := []Tag{}
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc, id asc").
		Find(&tags).Error; err != nil {
		return nil, apperrors.Internal("list tags", err)
	}
	return tags, nil
}

// Rename fails with a conflict when the user already has another tag with
// newName.
func (r *TagRegistry) Rename(ctx context.Context, userID int64, id uint64, newName string) (*Tag, error) {
	newName, err := NormalizeTagName(newName)
	if err != nil {
		return nil, err
	}

	var tag *Tag
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tag, err = findTag(tx, userID, id)
		if err != nil {
			return err
		}
		if tag.Name == newName {
			return nil
		}

		other, err := findTagByName(tx, userID, newName)
		if err != nil {
			return err
		}
		if other != nil {
			return apperrors.Conflictf("tag %q already exists", newName)
		}

		err = tx.Model(tag).Update("name", newName).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Conflictf("tag %q already exists", newName)
		}
		if err != nil {
			return apperrors.Internal("rename tag", err)
		}
		tag.Name = newName
		return nil
	})
	if err != nil {
		return nil, passThrough("rename tag", err)
	}

	r.Log.Info("tag renamed", zap.Int64("user_id", userID), zap.Uint64("tag_id", id), zap.String("name", newName))
	return tag, nil
}

// Delete removes the tag. Its item links go with it through the
// content_item_tags foreign key; the items stay.
func (r *TagRegistry) Delete(ctx context.Context, userID int64, id uint64) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Tag{})
	if res.Error != nil {
		return apperrors.Internal("delete tag", res.Error)
	}
	if res.RowsAffected == 0 {
		return tagNotFound(id)
	}

	r.Log.Info("tag deleted", zap.Int64("user_id", userID), zap.Uint64("tag_id", id))
	return nil
}

func (r *TagRegistry) withDB(db *gorm.DB) *TagRegistry {
	c := *r
	c.DB = db
	return &c
}
