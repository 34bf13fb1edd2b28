package content_test

import (
	"context"
	"errors"
	"testing"

	"readlater/internal/content"
	apperrors "readlater/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, f *fixture, model any) int64 {
	t.Helper()

	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func TestIngestSavesItemWithTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ingest := content.NewIngest(f.db, f.items, f.links)

	item, tags, err := ingest.Save(ctx,
		content.CreateItemInput{UserID: 7, Source: "https://x", Content: "hello"},
		"work", " later ", "work",
	)
	require.NoError(t, err)
	assert.Equal(t, content.StatusUnread, item.Status)
	require.Len(t, tags, 2)
	assert.Equal(t, "work", tags[0].Name)
	assert.Equal(t, "later", tags[1].Name)

	linked, err := f.links.TagsFor(ctx, 7, item.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 2)
}

func TestIngestWithoutTags(t *testing.T) {
	f := newFixture(t)
	ingest := content.NewIngest(f.db, f.items, f.links)

	item, tags, err := ingest.Save(context.Background(),
		content.CreateItemInput{UserID: 7, Source: "https://x", Content: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Empty(t, tags)
}

func TestIngestRejectsBadTagNamesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ingest := content.NewIngest(f.db, f.items, f.links)

	_, _, err := ingest.Save(context.Background(),
		content.CreateItemInput{UserID: 7, Source: "https://x", Content: "hello"},
		"work", "   ",
	)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, countRows(t, f, &content.ContentItem{}))
	assert.Zero(t, countRows(t, f, &content.Tag{}))
}

func TestIngestRollsBackWhenTaggingFails(t *testing.T) {
	f := newFixture(t)
	ingest := content.NewIngest(f.db, f.items, f.links)

	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_links", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*content.ContentItemTag); ok {
			_ = tx.AddError(errors.New("link insert failed"))
		}
	}))

	_, _, err := ingest.Save(context.Background(),
		content.CreateItemInput{UserID: 7, Source: "https://x", Content: "hello"},
		"work",
	)
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	assert.Zero(t, countRows(t, f, &content.ContentItem{}))
	assert.Zero(t, countRows(t, f, &content.Tag{}))
	assert.Zero(t, countRows(t, f, &content.ContentItemTag{}))
}
