package content

import "time"

type Status string

const (
	StatusUnread    Status = "unread"
	StatusProcessed Status = "processed"
)

func (s Status) Valid() bool {
	return s == StatusUnread || s == StatusProcessed
}

// ContentItem is one saved piece of forwarded or entered content.
// DateRead is set exactly once, when Status becomes processed.
type ContentItem struct {
	ID               uint64     `gorm:"primaryKey" json:"id"`
	UserID           int64      `gorm:"index;not null" json:"user_id"`
	Source           string     `gorm:"size:1024;not null" json:"source"`
	Content          string     `gorm:"type:text;not null" json:"content"`
	MessageID        *int64     `json:"message_id,omitempty"`
	ChatID           *int64     `json:"chat_id,omitempty"`
	ContentType      *string    `gorm:"size:32;index" json:"content_type,omitempty"`
	ShortDescription string     `gorm:"size:1024;not null;default:''" json:"short_description"`
	Status           Status     `gorm:"size:16;index;not null;default:'unread';check:chk_content_items_status,status IN ('unread','processed')" json:"status"`
	DateAdded        time.Time  `gorm:"index;not null" json:"date_added"`
	DateRead         *time.Time `json:"date_read,omitempty"`
}

// Tag names are unique per user.
type Tag struct {
	ID     uint64 `gorm:"primaryKey" json:"id"`
	UserID int64  `gorm:"index;uniqueIndex:uq_tags_user_name,priority:1;not null" json:"user_id"`
	Name   string `gorm:"size:64;uniqueIndex:uq_tags_user_name,priority:2;not null" json:"name"`
}

// ContentItemTag links one item to one tag. Rows are removed by the store
// when either endpoint is deleted.
type ContentItemTag struct {
	ContentItemID uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	TagID         uint64 `gorm:"primaryKey;autoIncrement:false;index"`

	ContentItem ContentItem `gorm:"foreignKey:ContentItemID;constraint:OnDelete:CASCADE"`
	Tag         Tag         `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

// Models lists every table in migration order.
func Models() []any {
	return []any{&ContentItem{}, &Tag{}, &ContentItemTag{}}
}
