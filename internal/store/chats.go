package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/distype/distype/internal/model"
)

// ListChats returns all chats sorted by name (byte order), ties broken by
// creation order.
//
// Returns an empty slice (not nil) if there are no chats.
func (s *Store) ListChats(ctx context.Context) ([]model.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats, err := listChats(ctx, s.db)
	if err != nil {
		return nil, storageFault("list chats", err)
	}
	return chats, nil
}

// GetChat retrieves a chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (model.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var chat model.Chat
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, text FROM chats WHERE id = ?`, id,
	).Scan(&chat.ID, &chat.Name, &chat.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chat{}, notFound("get chat", id)
	}
	if err != nil {
		return model.Chat{}, storageFault("get chat", err)
	}
	return chat, nil
}

// CreateChat inserts a new chat. An empty name is replaced by the prefix
// followed by the current chat count plus one.
func (s *Store) CreateChat(ctx context.Context, name string) (model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := model.Chat{
		ID:   s.opts.IDs.Generate(),
		Name: model.NormalizeName(name),
	}

	err := s.withTx(ctx, "create chat", func(tx *sql.Tx) error {
		if chat.Name == "" {
			count, err := countChats(ctx, tx)
			if err != nil {
				return err
			}
			chat.Name = model.ChatName(s.opts.ChatPrefix, count+1)
		}
		return insertChat(ctx, tx, chat)
	})
	if err != nil {
		return model.Chat{}, err
	}

	s.logger.Debug("created chat", "id", chat.ID, "name", chat.Name)
	return chat, nil
}

// UpdateChatText replaces the body text of a chat.
func (s *Store) UpdateChatText(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, "update chat text", func(tx *sql.Tx) error {
		return updateOne(ctx, tx, "update chat text", id,
			`UPDATE chats SET text = ? WHERE id = ?`, text, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("updated chat text", "id", id, "length", len(text))
	return nil
}

// RenameChat changes the display name of a chat.
func (s *Store) RenameChat(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = model.NormalizeName(name)
	err := s.withTx(ctx, "rename chat", func(tx *sql.Tx) error {
		return updateOne(ctx, tx, "rename chat", id,
			`UPDATE chats SET name = ? WHERE id = ?`, name, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("renamed chat", "id", id, "name", name)
	return nil
}

// DeleteChat deletes a chat unless it is protected.
//
// A chat is protected while its index in the name-sorted listing is below
// MinChatCount. Deleting a protected chat is a silent no-op: it reports
// deleted=false and a nil error. A chat that does not exist is NOT_FOUND.
func (s *Store) DeleteChat(ctx context.Context, id string) (deleted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := -1
	err = s.withTx(ctx, "delete chat", func(tx *sql.Tx) error {
		chats, err := listChats(ctx, tx)
		if err != nil {
			return err
		}

		index = slices.IndexFunc(chats, func(c model.Chat) bool { return c.ID == id })
		if index < 0 {
			return notFound("delete chat", id)
		}
		if index < s.opts.MinChatCount {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete chat: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if !deleted {
		s.logger.Debug("skipped protected chat", "id", id, "index", index)
		return false, nil
	}
	s.logger.Debug("deleted chat", "id", id)
	return true, nil
}

// listChats returns chats in listing order.
func listChats(ctx context.Context, q querier) ([]model.Chat, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, text
		FROM chats
		ORDER BY name COLLATE BINARY ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	chats := []model.Chat{}
	for rows.Next() {
		var c model.Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.Text); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

func countChats(ctx context.Context, q querier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return count, nil
}

func insertChat(ctx context.Context, q querier, chat model.Chat) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO chats (id, name, text) VALUES (?, ?, ?)`,
		chat.ID, chat.Name, chat.Text,
	)
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// updateOne executes an UPDATE or DELETE that must touch exactly one row.
// Zero affected rows is reported as NOT_FOUND for id.
func updateOne(ctx context.Context, q querier, op, id, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return notFound(op, id)
	}
	return nil
}
