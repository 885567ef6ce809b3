package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/distype/distype/internal/model"
)

// AppendMessage creates a message at the end of a category's messages.
// Fails with NOT_FOUND if the category no longer exists.
func (s *Store) AppendMessage(ctx context.Context, categoryID, text string) (model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := model.Message{
		ID:         s.opts.IDs.Generate(),
		CategoryID: categoryID,
		Text:       text,
	}

	err := s.withTx(ctx, "append message", func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, "append message", categoryID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, category_id, text) VALUES (?, ?, ?)`,
			msg.ID, msg.CategoryID, msg.Text,
		)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Message{}, err
	}

	s.logger.Debug("appended message", "id", msg.ID, "category", categoryID)
	return msg, nil
}

// GetMessage retrieves a message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var m model.Message
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category_id, text FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.CategoryID, &m.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Message{}, notFound("get message", id)
	}
	if err != nil {
		return model.Message{}, storageFault("get message", err)
	}
	return m, nil
}

// ListMessages returns the messages of a category in append order.
func (s *Store) ListMessages(ctx context.Context, categoryID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := requireCategory(ctx, s.db, "list messages", categoryID); err != nil {
		return nil, storageFault("list messages", err)
	}

	messages, err := listMessages(ctx, s.db, categoryID)
	if err != nil {
		return nil, storageFault("list messages", err)
	}
	return messages, nil
}

// UpdateMessageText replaces the text of a message.
func (s *Store) UpdateMessageText(ctx context.Context, id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, "update message text", func(tx *sql.Tx) error {
		return updateOne(ctx, tx, "update message text", id,
			`UPDATE messages SET text = ? WHERE id = ?`, text, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("updated message text", "id", id, "length", len(text))
	return nil
}

// DeleteMessage removes a message from its owning category.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withTx(ctx, "delete message", func(tx *sql.Tx) error {
		return updateOne(ctx, tx, "delete message", id,
			`DELETE FROM messages WHERE id = ?`, id)
	})
	if err != nil {
		return err
	}

	s.logger.Debug("deleted message", "id", id)
	return nil
}

func listMessages(ctx context.Context, q querier, categoryID string) ([]model.Message, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, category_id, text
		FROM messages
		WHERE category_id = ?
		ORDER BY seq ASC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return scanMessages(rows)
}

func listAllMessages(ctx context.Context, q querier) ([]model.Message, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, category_id, text
		FROM messages
		ORDER BY category_id, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return scanMessages(rows)
}

// scanMessages drains and closes rows.
func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.CategoryID, &m.Text); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}
