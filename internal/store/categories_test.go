package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distype/distype/internal/model"
)

const uncategorized = model.DefaultUncategorizedID

func TestCreateCategory_AppendsAfterUncategorized(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, "id-4", work.ID)
	assert.Equal(t, "Work", work.Name)
	assert.Empty(t, work.Messages)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, uncategorized, categories[0].ID)
	assert.Equal(t, model.DefaultUncategorizedName, categories[0].Name)
	assert.Equal(t, work, categories[1])
}

func TestListCategories_UncategorizedStaysFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.CreateCategory(ctx, "A")
	require.NoError(t, err)
	b, err := s.CreateCategory(ctx, "B")
	require.NoError(t, err)
	require.NoError(t, s.DeleteCategory(ctx, a.ID))
	c, err := s.CreateCategory(ctx, "C")
	require.NoError(t, err)

	assert.Equal(t, []string{uncategorized, b.ID, c.ID}, categoryIDs(t, s))
}

func TestListCategories_AdoptedUncategorizedIsPinned(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	// Delete and recreate under the reserved id so it sorts last by insertion.
	first, err := s.CreateCategory(ctx, "First")
	require.NoError(t, err)
	require.NoError(t, s.DeleteCategory(ctx, uncategorized))
	_, err = s.createCategory(ctx, "create category", uncategorized, "Recreated")
	require.NoError(t, err)

	assert.Equal(t, []string{uncategorized, first.ID}, categoryIDs(t, s))
}

func TestUpdateCategoryName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, "Work")
	require.NoError(t, err)

	require.NoError(t, s.UpdateCategoryName(ctx, uncategorized, "Разное"))
	require.NoError(t, s.UpdateCategoryName(ctx, work.ID, "Job"))

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, uncategorized, categories[0].ID)
	assert.Equal(t, "Разное", categories[0].Name)
	assert.Equal(t, "Job", categories[1].Name)
}

func TestUpdateCategoryName_NotFound(t *testing.T) {
	s := createTestStore(t)

	err := s.UpdateCategoryName(context.Background(), "missing", "x")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestCreateCategoryWithID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategoryWithID(ctx, "greetings", "Приветствия")
	require.NoError(t, err)
	assert.Equal(t, "greetings", c.ID)

	_, err = s.CreateCategoryWithID(ctx, "greetings", "Again")
	assert.True(t, IsDuplicate(err), "got %v", err)

	_, err = s.CreateCategoryWithID(ctx, uncategorized, "Mine")
	assert.True(t, IsReserved(err), "got %v", err)

	generated, err := s.CreateCategoryWithID(ctx, "", "Generated")
	require.NoError(t, err)
	assert.Equal(t, "id-4", generated.ID)

	assert.Equal(t, []string{uncategorized, "greetings", "id-4"}, categoryIDs(t, s))
}

func TestDeleteCategory_RemovesMessages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, "Work")
	require.NoError(t, err)
	m1, err := s.AppendMessage(ctx, work.ID, "hello")
	require.NoError(t, err)
	kept, err := s.AppendMessage(ctx, uncategorized, "kept")
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, work.ID))

	_, err = s.GetMessage(ctx, m1.ID)
	assert.True(t, IsNotFound(err), "got %v", err)
	_, err = s.GetCategory(ctx, work.ID)
	assert.True(t, IsNotFound(err), "got %v", err)

	got, err := s.GetMessage(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, kept, got)

	// Chats are untouched.
	assert.Equal(t, []string{"ЧАТ1", "ЧАТ2", "ЧАТ3"}, chatNames(t, s))
}

func TestDeleteCategory_FailureRollsBackMessages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, "Work")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, work.ID, "first")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, work.ID, "second")
	require.NoError(t, err)

	beforeMessages, err := s.ListMessages(ctx, work.ID)
	require.NoError(t, err)
	beforeCategory, err := s.GetCategory(ctx, work.ID)
	require.NoError(t, err)
	beforeList, err := s.ListCategories(ctx)
	require.NoError(t, err)

	// The messages delete succeeds; the category delete that follows it
	// in the same transaction does not.
	abortDeletesOn(t, s, "categories")

	err = s.DeleteCategory(ctx, work.ID)
	require.Error(t, err)
	assert.True(t, IsStorageFault(err), "got %v", err)

	afterMessages, err := s.ListMessages(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, beforeMessages, afterMessages)

	afterCategory, err := s.GetCategory(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, beforeCategory, afterCategory)

	afterList, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, beforeList, afterList)
}

func TestDeleteCategory_Uncategorized(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.CreateCategory(ctx, "A")
	require.NoError(t, err)
	b, err := s.CreateCategory(ctx, "B")
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, uncategorized))

	assert.Equal(t, []string{a.ID, b.ID}, categoryIDs(t, s))
}

func TestDeleteCategory_ProtectedUncategorized(t *testing.T) {
	s := createTestStore(t, func(o *Options) { o.ProtectUncategorized = true })

	err := s.DeleteCategory(context.Background(), uncategorized)
	assert.True(t, IsReserved(err), "got %v", err)
	assert.Equal(t, []string{uncategorized}, categoryIDs(t, s))
}

func TestDeleteCategory_NotFound(t *testing.T) {
	s := createTestStore(t)

	err := s.DeleteCategory(context.Background(), "missing")
	assert.True(t, IsNotFound(err), "got %v", err)
	assert.Equal(t, []string{uncategorized}, categoryIDs(t, s))
}

func TestGetCategory_IncludesMessages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m1, err := s.AppendMessage(ctx, uncategorized, "one")
	require.NoError(t, err)
	m2, err := s.AppendMessage(ctx, uncategorized, "two")
	require.NoError(t, err)

	c, err := s.GetCategory(ctx, uncategorized)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{m1, m2}, c.Messages)
}
