package memory

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/unisync-api/internal/models"
)

func TestAnnouncementStoreRoundTrip(t *testing.T) {
	store := NewAnnouncementStore()
	ctx := context.Background()
	name := "brochure.pdf"

	for i, category := range models.AnnouncementCategories {
		item := &models.Announcement{
			Title:     fmt.Sprintf("title %d", i),
			Content:   "content",
			Category:  category,
			CreatedBy: "Staff",
			CreatorID: "staff-1",
			FileName:  &name,
		}
		require.NoError(t, store.Add(ctx, item))
		got, err := store.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, *item, *got)
	}

	all, total, err := store.GetAll(ctx, models.AnnouncementFilter{})
	require.NoError(t, err)
	assert.Equal(t, len(models.AnnouncementCategories), total)
	assert.Len(t, all, total)
}

func TestAnnouncementStoreGetAllReturnsCopies(t *testing.T) {
	store := NewAnnouncementStore()
	ctx := context.Background()
	name := "a.pdf"
	item := &models.Announcement{Title: "t", Category: models.CategoryEvent, CreatorID: "u", FileName: &name}
	require.NoError(t, store.Add(ctx, item))

	all, _, err := store.GetAll(ctx, models.AnnouncementFilter{})
	require.NoError(t, err)
	all[0].Title = "mutated"
	*all[0].FileName = "mutated.pdf"

	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "a.pdf", *got.FileName)
}

func TestAnnouncementStoreFilterAndOrder(t *testing.T) {
	store := NewAnnouncementStore()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.Add(ctx, &models.Announcement{ID: "old", Category: models.CategoryEvent, CreatedAt: base}))
	require.NoError(t, store.Add(ctx, &models.Announcement{ID: "new", Category: models.CategoryEvent, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, store.Add(ctx, &models.Announcement{ID: "other", Category: models.CategoryPlacement, CreatedAt: base}))

	category := models.CategoryEvent
	items, total, err := store.GetAll(ctx, models.AnnouncementFilter{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "new", items[0].ID)
	assert.Equal(t, "old", items[1].ID)

	counts, err := store.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.CategoryEvent])
	assert.Equal(t, 0, counts[models.CategoryEmergency])
}

func TestAnnouncementStoreUpdateKeepsCreator(t *testing.T) {
	store := NewAnnouncementStore()
	ctx := context.Background()
	item := &models.Announcement{Title: "t", Category: models.CategoryGeneral, CreatorID: "staff-1", CreatedBy: "Staff"}
	require.NoError(t, store.Add(ctx, item))

	update := item.Clone()
	update.Title = "changed"
	update.CreatorID = "someone-else"
	require.NoError(t, store.Update(ctx, &update))

	got, err := store.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
	assert.Equal(t, "staff-1", got.CreatorID)

	require.NoError(t, store.Delete(ctx, item.ID))
	_, err = store.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, store.Delete(ctx, item.ID), sql.ErrNoRows)
}
