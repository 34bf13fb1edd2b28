// Package content holds the read-later data model: content items, per-user
// tags, the links between them, and the list queries over all three.
//
// Every operation takes the caller's user id and treats rows owned by a
// different user exactly like missing rows.
package content

import (
	"errors"
	"time"

	apperrors "readlater/internal/errors"

	"gorm.io/gorm"
)

// now is truncated to the precision postgres keeps for timestamptz.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func itemNotFound(id uint64) error {
	return apperrors.NotFoundf("content item %d not found", id)
}

func tagNotFound(id uint64) error {
	return apperrors.NotFoundf("tag %d not found", id)
}

func findItem(tx *gorm.DB, userID int64, id uint64) (*ContentItem, error) {
	var item ContentItem
	err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, itemNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Internal("load content item", err)
	}
	return &item, nil
}

func findTag(tx *gorm.DB, userID int64, id uint64) (*Tag, error) {
	var tag Tag
	err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, tagNotFound(id)
	}
	if err != nil {
		return nil, apperrors.Internal("load tag", err)
	}
	return &tag, nil
}

func requireItem(tx *gorm.DB, userID int64, id uint64) error {
	_, err := findItem(tx, userID, id)
	return err
}

func requireTag(tx *gorm.DB, userID int64, id uint64) error {
	_, err := findTag(tx, userID, id)
	return err
}

// passThrough keeps domain errors intact and wraps anything else.
func passThrough(msg string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.Internal(msg, err)
}
