package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distype/distype/internal/model"
	"github.com/distype/distype/internal/testutil"
)

func TestBootstrap_FreshStore(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	chats, err := s.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 3)
	assert.Equal(t, model.Chat{ID: "id-1", Name: "ЧАТ1"}, chats[0])
	assert.Equal(t, model.Chat{ID: "id-2", Name: "ЧАТ2"}, chats[1])
	assert.Equal(t, model.Chat{ID: "id-3", Name: "ЧАТ3"}, chats[2])

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, model.DefaultUncategorizedID, categories[0].ID)
	assert.Equal(t, model.DefaultUncategorizedName, categories[0].Name)
	assert.Empty(t, categories[0].Messages)
	assert.NotNil(t, categories[0].Messages)

	var rows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&rows))
	assert.Equal(t, 1, rows, "bootstrap creates the settings row")
}

func TestBootstrap_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path, testOptions())
		require.NoError(t, err, "open #%d", i)
		require.NoError(t, s.Close())
	}

	s := openTestStore(t, path)

	assert.Equal(t, []string{"ЧАТ1", "ЧАТ2", "ЧАТ3"}, chatNames(t, s))
	assert.Equal(t, []string{model.DefaultUncategorizedID}, categoryIDs(t, s))

	var settingsRows, uncategorizedRows int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM settings`).Scan(&settingsRows))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM categories WHERE id = ?`, model.DefaultUncategorizedID).Scan(&uncategorizedRows))
	assert.Equal(t, 1, settingsRows)
	assert.Equal(t, 1, uncategorizedRows)
}

func TestBootstrap_TopsUpChatsFromCurrentCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path, testOptions())
	require.NoError(t, err)
	// Rename so the next ordinals are visibly not reused.
	require.NoError(t, s1.RenameChat(ctx, "id-1", "Заметки"))
	_, err = s1.db.Exec(`DELETE FROM chats WHERE id IN ('id-2', 'id-3')`)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2 := openTestStore(t, path, func(o *Options) {
		o.IDs = testutil.NewSequentialIDs("reopen")
	})

	assert.Equal(t, []string{"Заметки", "ЧАТ2", "ЧАТ3"}, chatNames(t, s2))
	assert.Equal(t, "reopen-1", findChat(t, s2, "ЧАТ2").ID)
}

func TestBootstrap_RecreatesDeletedUncategorizedFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := Open(path, testOptions())
	require.NoError(t, err)
	work, err := s1.CreateCategory(ctx, "Work")
	require.NoError(t, err)
	require.NoError(t, s1.DeleteCategory(ctx, model.DefaultUncategorizedID))
	require.NoError(t, s1.Close())

	s2 := openTestStore(t, path)

	assert.Equal(t, []string{model.DefaultUncategorizedID, work.ID}, categoryIDs(t, s2))
}

func TestBootstrap_CustomOptions(t *testing.T) {
	s := createTestStore(t, func(o *Options) {
		o.ChatPrefix = "chat-"
		o.MinChatCount = 5
		o.UncategorizedID = "inbox"
		o.UncategorizedName = "Inbox"
		o.DefaultSettings = model.Settings{SpeakEveryWord: true, VoiceID: "milena"}
	})
	ctx := context.Background()

	assert.Equal(t, []string{"chat-1", "chat-2", "chat-3", "chat-4", "chat-5"}, chatNames(t, s))

	categories, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "inbox", categories[0].ID)
	assert.Equal(t, "Inbox", categories[0].Name)

	settings, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Settings{SpeakEveryWord: true, VoiceID: "milena"}, settings)
}
