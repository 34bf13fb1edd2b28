package content_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"readlater/internal/content"
	apperrors "readlater/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countTags(t *testing.T, f *fixture, userID int64, name string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&content.Tag{}).Where("user_id = ? AND name = ?", userID, name).Count(&n).Error)
	return n
}

func TestGetOrCreateReturnsSameTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tags.GetOrCreate(ctx, 7, "foo")
	require.NoError(t, err)
	second, err := f.tags.GetOrCreate(ctx, 7, "  foo ")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "foo", second.Name)
	assert.Equal(t, int64(1), countTags(t, f, 7, "foo"))
}

func TestGetOrCreateIsScopedPerUserAndCaseSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.tags.GetOrCreate(ctx, 7, "work")
	require.NoError(t, err)
	theirs, err := f.tags.GetOrCreate(ctx, 8, "work")
	require.NoError(t, err)
	upper, err := f.tags.GetOrCreate(ctx, 7, "Work")
	require.NoError(t, err)

	assert.NotEqual(t, mine.ID, theirs.ID)
	assert.NotEqual(t, mine.ID, upper.ID)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	f := newFixture(t)

	const callers = 8
	ids := make([]uint64, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, err := f.tags.GetOrCreate(context.Background(), 7, "foo")
			errs[i] = err
			if tag != nil {
				ids[i] = tag.ID
			}
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), countTags(t, f, 7, "foo"))
}

func TestGetOrCreateResolvesLostRace(t *testing.T) {
	f := newFixture(t)

	// Another writer inserts the same tag between our lookup and our insert.
	var winnerID uint64
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:race", func(tx *gorm.DB) {
		tag, ok := tx.Statement.Dest.(*content.Tag)
		if !ok || winnerID != 0 {
			return
		}
		winner := content.Tag{UserID: tag.UserID, Name: tag.Name}
		if err := f.db.Session(&gorm.Session{NewDB: true}).Table("tags").Create(map[string]any{
			"user_id": winner.UserID,
			"name":    winner.Name,
		}).Error; err != nil {
			t.Errorf("insert winner: %v", err)
			return
		}
		var row content.Tag
		if err := f.db.Session(&gorm.Session{NewDB: true}).Where("user_id = ? AND name = ?", winner.UserID, winner.Name).Take(&row).Error; err != nil {
			t.Errorf("load winner: %v", err)
			return
		}
		winnerID = row.ID
	}))

	tag, err := f.tags.GetOrCreate(context.Background(), 7, "raced")
	require.NoError(t, err)

	assert.NotZero(t, winnerID)
	assert.Equal(t, winnerID, tag.ID)
	assert.Equal(t, int64(1), countTags(t, f, 7, "raced"))
}

func TestGetOrCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tags.GetOrCreate(ctx, 7, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.tags.GetOrCreate(ctx, 7, strings.Repeat("x", 65))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.tags.GetOrCreate(ctx, 0, "work")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestListTagsIsScopedAndOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"video", "article", "podcast"} {
		_, err := f.tags.GetOrCreate(ctx, 7, name)
		require.NoError(t, err)
	}
	_, err := f.tags.GetOrCreate(ctx, 8, "elsewhere")
	require.NoError(t, err)

	tags, err := f.tags.List(ctx, 7)
	require.NoError(t, err)

	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		assert.Equal(t, int64(7), tag.UserID)
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"article", "podcast", "video"}, names)

	empty, err := f.tags.List(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRenameTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	work, err := f.tags.GetOrCreate(ctx, 7, "work")
	require.NoError(t, err)
	personal, err := f.tags.GetOrCreate(ctx, 7, "personal")
	require.NoError(t, err)

	t.Run("conflict with another tag", func(t *testing.T) {
		_, err := f.tags.Rename(ctx, 7, work.ID, "personal")
		assert.ErrorIs(t, err, apperrors.ErrConflict)

		got, err := f.tags.Get(ctx, 7, work.ID)
		require.NoError(t, err)
		assert.Equal(t, "work", got.Name)
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		got, err := f.tags.Rename(ctx, 7, personal.ID, "personal")
		require.NoError(t, err)
		assert.Equal(t, "personal", got.Name)
	})

	t.Run("renames", func(t *testing.T) {
		got, err := f.tags.Rename(ctx, 7, work.ID, " job ")
		require.NoError(t, err)
		assert.Equal(t, "job", got.Name)

		again, err := f.tags.GetOrCreate(ctx, 7, "job")
		require.NoError(t, err)
		assert.Equal(t, work.ID, again.ID)
	})

	t.Run("other user's tag", func(t *testing.T) {
		_, err := f.tags.Rename(ctx, 8, work.ID, "stolen")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("name taken by another user is fine", func(t *testing.T) {
		_, err := f.tags.GetOrCreate(ctx, 8, "shared")
		require.NoError(t, err)

		got, err := f.tags.Rename(ctx, 7, personal.ID, "shared")
		require.NoError(t, err)
		assert.Equal(t, "shared", got.Name)
	})
}

func TestDeleteTagCascadesLinksAndKeepsItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, 7, "a", "")
	b := f.create(t, 7, "b", "")
	work, err := f.tags.GetOrCreate(ctx, 7, "work")
	require.NoError(t, err)
	require.NoError(t, f.links.Attach(ctx, 7, a.ID, work.ID))
	require.NoError(t, f.links.Attach(ctx, 7, b.ID, work.ID))

	require.NoError(t, f.tags.Delete(ctx, 7, work.ID))

	_, err = f.tags.Get(ctx, 7, work.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	for _, item := range []*content.ContentItem{a, b} {
		_, err := f.items.Get(ctx, 7, item.ID)
		assert.NoError(t, err)

		tags, err := f.links.TagsFor(ctx, 7, item.ID)
		require.NoError(t, err)
		assert.Empty(t, tags)
	}

	assert.ErrorIs(t, f.tags.Delete(ctx, 7, work.ID), apperrors.ErrNotFound)
}
