package content

import (
	"context"
	"errors"
	"time"

	apperrors "readlater/internal/errors"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TagMatch says how a multi-tag filter combines its tags.
type TagMatch string

const (
	TagMatchAll TagMatch = "all"
	TagMatchAny TagMatch = "any"
)

// Filter options combine with AND. Nil or empty fields do not filter.
type Filter struct {
	Status      *Status
	ContentType *string
	// TagIDs keeps items linked to these tags, combined per TagMatch.
	// An empty TagMatch means all.
	TagIDs   []uint64
	TagMatch TagMatch
	// From and To bound date_added inclusively.
	From *time.Time
	To   *time.Time
}

type Page struct {
	Limit  int
	Offset int
	// Ascending lists oldest first. The default is newest first.
	Ascending bool
}

// Query answers the filtered, paginated read paths. Every query is scoped to
// one user.
type Query struct {
	DB *gorm.DB
	// Now anchors the read windows in Stats.
	Now func() time.Time
}

func NewQuery(db *gorm.DB) *Query {
	return &Query{DB: db, Now: now}
}

func (f Filter) validate() error {
	details := map[string]string{}
	if f.Status != nil && !f.Status.Valid() {
		details["status"] = "must be one of: unread processed"
	}
	switch f.TagMatch {
	case "", TagMatchAll, TagMatchAny:
	default:
		details["tag_match"] = "must be one of: all any"
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		details["from"] = "must not be after to"
	}
	if len(details) > 0 {
		return apperrors.ValidationWithDetails("validation failed", details)
	}
	return nil
}

func (f Filter) specifications(userID int64) []Specification {
	specs := []Specification{OwnedBy{UserID: userID}}
	if f.Status != nil {
		specs = append(specs, ByStatus{Status: *f.Status})
	}
	if f.ContentType != nil {
		specs = append(specs, ByContentType{ContentType: *f.ContentType})
	}
	if len(f.TagIDs) > 0 {
		specs = append(specs, HasTags{TagIDs: f.TagIDs, All: f.TagMatch != TagMatchAny})
	}
	if f.From != nil || f.To != nil {
		specs = append(specs, AddedBetween{From: f.From, To: f.To})
	}
	return specs
}

// Normalize applies the default page size and caps it.
func (p Page) Normalize() (Page, error) {
	if p.Offset < 0 {
		return p, apperrors.ValidationWithDetails("validation failed", map[string]string{"offset": "must not be negative"})
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p, nil
}

// List returns one page of the user's items matching f.
func (q *Query) List(ctx context.Context, userID int64, f Filter, p Page) ([]ContentItem, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	p, err := p.Normalize()
	if err != nil {
		return nil, err
	}

	specs := append(f.specifications(userID),
		OrderByDateAdded{Ascending: p.Ascending},
		Pagination{Limit: p.Limit, Offset: p.Offset},
	)

	items := []ContentItem{}
	if err := applySpecifications(q.DB.WithContext(ctx).Model(&ContentItem{}), specs...).
		Find(&items).Error; err != nil {
		return nil, apperrors.Internal("list content items", err)
	}
	return items, nil
}

// Count returns how many of the user's items match f.
func (q *Query) Count(ctx context.Context, userID int64, f Filter) (int64, error) {
	if err := f.validate(); err != nil {
		return 0, err
	}

	var n int64
	if err := applySpecifications(q.DB.WithContext(ctx).Model(&ContentItem{}), f.specifications(userID)...).
		Count(&n).Error; err != nil {
		return 0, apperrors.Internal("count content items", err)
	}
	return n, nil
}

// Last returns the user's most recently added item matching f.
func (q *Query) Last(ctx context.Context, userID int64, f Filter) (*ContentItem, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	return q.first(ctx, "no content items",
		append(f.specifications(userID), OrderByDateAdded{})...,
	)
}

// RandomUnread picks one of the user's unread items matching f at random.
// f.Status is ignored.
func (q *Query) RandomUnread(ctx context.Context, userID int64, f Filter) (*ContentItem, error) {
	unread := StatusUnread
	f.Status = &unread
	if err := f.validate(); err != nil {
		return nil, err
	}
	return q.first(ctx, "no unread content items",
		append(f.specifications(userID), randomOrder{})...,
	)
}

func (q *Query) first(ctx context.Context, missing string, specs ...Specification) (*ContentItem, error) {
	var item ContentItem
	err := applySpecifications(q.DB.WithContext(ctx).Model(&ContentItem{}), specs...).
		Limit(1).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundf("%s", missing)
	}
	if err != nil {
		return nil, apperrors.Internal("load content item", err)
	}
	return &item, nil
}

// RANDOM() is understood by both postgres and sqlite.
type randomOrder struct{}

func (randomOrder) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("RANDOM()")
}

// Stats summarizes a user's reading.
type Stats struct {
	Total     int64 `json:"total"`
	Unread    int64 `json:"unread"`
	Processed int64 `json:"processed"`
	// Items processed within the last 7 and 30 days, by date_read.
	ReadLastWeek  int64 `json:"read_last_week"`
	ReadLastMonth int64 `json:"read_last_month"`
	// Items per content type. Untyped items are left out.
	ContentTypes map[string]int64 `json:"content_types"`
}

type statusCount struct {
	Status Status
	N      int64
}

type contentTypeCount struct {
	ContentType string
	N           int64
}

func (q *Query) Stats(ctx context.Context, userID int64) (*Stats, error) {
	db := q.DB.WithContext(ctx)
	stats := Stats{ContentTypes: map[string]int64{}}

	var byStatus []statusCount
	if err := db.Model(&ContentItem{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, apperrors.Internal("count items by status", err)
	}
	for _, row := range byStatus {
		switch row.Status {
		case StatusUnread:
			stats.Unread = row.N
		case StatusProcessed:
			stats.Processed = row.N
		}
		stats.Total += row.N
	}

	current := q.Now()
	windows := []struct {
		dst   *int64
		since time.Time
	}{
		{&stats.ReadLastWeek, current.AddDate(0, 0, -7)},
		{&stats.ReadLastMonth, current.AddDate(0, 0, -30)},
	}
	for _, w := range windows {
		if err := applySpecifications(db.Model(&ContentItem{}),
			OwnedBy{UserID: userID},
			ByStatus{Status: StatusProcessed},
			ReadAfter{Since: w.since},
		).Count(w.dst).Error; err != nil {
			return nil, apperrors.Internal("count recently read items", err)
		}
	}

	var byType []contentTypeCount
	if err := db.Model(&ContentItem{}).
		Select("content_type, COUNT(*) AS n").
		Where("user_id = ? AND content_type IS NOT NULL", userID).
		Group("content_type").
		Scan(&byType).Error; err != nil {
		return nil, apperrors.Internal("count items by content type", err)
	}
	for _, row := range byType {
		stats.ContentTypes[row.ContentType] = row.N
	}

	return &stats, nil
}
