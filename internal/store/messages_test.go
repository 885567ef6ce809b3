package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distype/distype/internal/model"
)

func TestAppendMessage_AddsToEnd(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.AppendMessage(ctx, uncategorized, "Привет")
	require.NoError(t, err)
	second, err := s.AppendMessage(ctx, uncategorized, "Как дела?")
	require.NoError(t, err)

	assert.Equal(t, model.Message{ID: "id-5", CategoryID: uncategorized, Text: "Как дела?"}, second)

	messages, err := s.ListMessages(ctx, uncategorized)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{first, second}, messages)
}

func TestAppendMessage_MissingCategory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, "Work")
	require.NoError(t, err)
	require.NoError(t, s.DeleteCategory(ctx, work.ID))

	_, err = s.AppendMessage(ctx, work.ID, "late")
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "got %v", err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "append message", se.Op)
	assert.Equal(t, work.ID, se.ID)
}

func TestAppendMessage_EmptyTextAllowed(t *testing.T) {
	s := createTestStore(t)

	m, err := s.AppendMessage(context.Background(), uncategorized, "")
	require.NoError(t, err)
	assert.Equal(t, "", m.Text)
}

func TestUpdateMessageText(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	m, err := s.AppendMessage(ctx, uncategorized, "draft")
	require.NoError(t, err)

	require.NoError(t, s.UpdateMessageText(ctx, m.ID, "final"))

	got, err := s.GetMessage(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.Equal(t, uncategorized, got.CategoryID)

	err = s.UpdateMessageText(ctx, "missing", "x")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestDeleteMessage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a, err := s.AppendMessage(ctx, uncategorized, "a")
	require.NoError(t, err)
	b, err := s.AppendMessage(ctx, uncategorized, "b")
	require.NoError(t, err)
	c, err := s.AppendMessage(ctx, uncategorized, "c")
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessage(ctx, b.ID))

	messages, err := s.ListMessages(ctx, uncategorized)
	require.NoError(t, err)
	assert.Equal(t, []model.Message{a, c}, messages)

	err = s.DeleteMessage(ctx, b.ID)
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestListMessages_MissingCategory(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ListMessages(context.Background(), "missing")
	assert.True(t, IsNotFound(err), "got %v", err)
}

func TestListCategories_MessagesGroupedInAppendOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	work, err := s.CreateCategory(ctx, "Work")
	require.NoError(t, err)

	w1, err := s.AppendMessage(ctx, work.ID, "w1")
	require.NoError(t, err)
	u1, err := s.AppendMessage(ctx, uncategorized, "u1")
	require.NoError(t, err)
	w2, err := s.AppendMessage(ctx, work.ID, "w2")
	require.NoError(t, err)

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, []model.Message{u1}, categories[0].Messages)
	assert.Equal(t, []model.Message{w1, w2}, categories[1].Messages)
}
