package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/distype/distype/internal/model"
)

// bootstrap establishes a usable initial state. It runs once per Open:
//
//  1. bump the schema version and apply the schema
//  2. adopt or create the uncategorized category under its reserved id
//  3. recompute the category view
//  4. top the chats up to MinChatCount
//  5. make sure the settings row exists
//
// All steps share one transaction.
func (s *Store) bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		version int
		order   []string
	)
	err := s.withTx(ctx, "bootstrap", func(tx *sql.Tx) error {
		var err error
		version, err = migrateSchema(ctx, tx, s.logger)
		if err != nil {
			return err
		}

		if err := s.ensureUncategorized(ctx, tx); err != nil {
			return err
		}

		order, err = loadCategoryOrder(ctx, tx, s.opts.UncategorizedID)
		if err != nil {
			return err
		}

		if err := s.ensureChats(ctx, tx); err != nil {
			return err
		}

		created, err := ensureSettings(ctx, tx, s.opts.DefaultSettings)
		if created {
			s.logger.Debug("created settings row")
		}
		return err
	})
	if err != nil {
		return err
	}

	s.version = version
	s.order = order
	return nil
}

// ensureUncategorized creates the distinguished category unless a category
// with the reserved id already exists.
func (s *Store) ensureUncategorized(ctx context.Context, tx *sql.Tx) error {
	id := s.opts.UncategorizedID

	var found string
	err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = ?`, id).Scan(&found)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lookup uncategorized category: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES (?, ?)`, id, s.opts.UncategorizedName,
	); err != nil {
		return fmt.Errorf("insert uncategorized category: %w", err)
	}
	s.logger.Info("created uncategorized category", "id", id)
	return nil
}

// ensureChats creates sequentially named chats until MinChatCount exist.
// Ordinals continue from the current count, so a lower ordinal is never reused.
func (s *Store) ensureChats(ctx context.Context, tx *sql.Tx) error {
	count, err := countChats(ctx, tx)
	if err != nil {
		return err
	}

	for n := count + 1; n <= s.opts.MinChatCount; n++ {
		chat := model.Chat{
			ID:   s.opts.IDs.Generate(),
			Name: model.ChatName(s.opts.ChatPrefix, n),
		}
		if err := insertChat(ctx, tx, chat); err != nil {
			return err
		}
		s.logger.Info("seeded default chat", "id", chat.ID, "name", chat.Name)
	}
	return nil
}
