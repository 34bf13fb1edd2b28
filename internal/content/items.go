package content

import (
	"context"
	"strings"
	"time"

	apperrors "readlater/internal/errors"
	"readlater/internal/logger"
	"readlater/internal/validation"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ItemStore owns content item records and their unread -> processed lifecycle.
type ItemStore struct {
	DB  *gorm.DB
	Log *zap.Logger
	// Now stamps date_added and date_read. Defaults to the wall clock.
	Now func() time.Time

	validate *validation.Validator
}

func NewItemStore(db *gorm.DB, log *zap.Logger) *ItemStore {
	return &ItemStore{
		DB:       db,
		Log:      logger.OrNop(log).Named("items"),
		Now:      now,
		validate: validation.New(),
	}
}

type CreateItemInput struct {
	UserID           int64   `json:"user_id" validate:"required"`
	Source           string  `json:"source" validate:"required,max=1024"`
	Content          string  `json:"content" validate:"required"`
	MessageID        *int64  `json:"message_id" validate:"required_with=ChatID"`
	ChatID           *int64  `json:"chat_id" validate:"required_with=MessageID"`
	ContentType      *string `json:"content_type" validate:"omitempty,max=32"`
	ShortDescription string  `json:"short_description" validate:"max=1024"`
}

func (in *CreateItemInput) normalize() {
	in.Source = strings.TrimSpace(in.Source)
	if strings.TrimSpace(in.Content) == "" {
		in.Content = ""
	}
	if in.ContentType != nil {
		ct := strings.TrimSpace(*in.ContentType)
		if ct == "" {
			in.ContentType = nil
		} else {
			in.ContentType = &ct
		}
	}
	in.ShortDescription = strings.TrimSpace(in.ShortDescription)
}

// Create stores a new unread item.
func (s *ItemStore) Create(ctx context.Context, in CreateItemInput) (*ContentItem, error) {
	in.normalize()
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	item := ContentItem{
		UserID:           in.UserID,
		Source:           in.Source,
		Content:          in.Content,
		MessageID:        in.MessageID,
		ChatID:           in.ChatID,
		ContentType:      in.ContentType,
		ShortDescription: in.ShortDescription,
		Status:           StatusUnread,
		DateAdded:        s.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, apperrors.Internal("create content item", err)
	}

	s.Log.Info("content item created",
		zap.Int64("user_id", item.UserID),
		zap.Uint64("item_id", item.ID),
		zap.Stringp("content_type", item.ContentType),
	)
	return &item, nil
}

func (s *ItemStore) Get(ctx context.Context, userID int64, id uint64) (*ContentItem, error) {
	return findItem(s.DB.WithContext(ctx), userID, id)
}

// MarkProcessed moves an unread item to processed and stamps date_read.
// Calling it on an already processed item changes nothing: date_read keeps
// the time of the first transition.
func (s *ItemStore) MarkProcessed(ctx context.Context, userID int64, id uint64) (*ContentItem, error) {
	var (
		item    *ContentItem
		changed bool
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ContentItem{}).
			Where("id = ? AND user_id = ? AND status = ?", id, userID, StatusUnread).
			Updates(map[string]any{
				"status":    StatusProcessed,
				"date_read": s.Now(),
			})
		if res.Error != nil {
			return apperrors.Internal("mark content item processed", res.Error)
		}

		changed = res.RowsAffected == 1

		var err error
		item, err = findItem(tx, userID, id)
		return err
	})
	if err != nil {
		return nil, passThrough("mark content item processed", err)
	}

	if changed {
		s.Log.Info("content item processed", zap.Int64("user_id", userID), zap.Uint64("item_id", id))
	}
	return item, nil
}

// Delete removes the item. Its tag links go with it through the
// content_item_tags foreign key in the same statement.
func (s *ItemStore) Delete(ctx context.Context, userID int64, id uint64) error {
	res := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&ContentItem{})
	if res.Error != nil {
		return apperrors.Internal("delete content item", res.Error)
	}
	if res.RowsAffected == 0 {
		return itemNotFound(id)
	}

	s.Log.Info("content item deleted", zap.Int64("user_id", userID), zap.Uint64("item_id", id))
	return nil
}

func (s *ItemStore) withDB(db *gorm.DB) *ItemStore {
	c := *s
	c.DB = db
	return &c
}
