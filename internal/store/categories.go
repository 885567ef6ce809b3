package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/distype/distype/internal/model"
)

// ListCategories returns every category with its messages, in view order:
// the uncategorized category first, the rest in insertion order.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories, err := s.listCategories(ctx, s.db)
	if err != nil {
		return nil, storageFault("list categories", err)
	}
	return categories, nil
}

// GetCategory retrieves a category and its messages by id.
func (s *Store) GetCategory(ctx context.Context, id string) (model.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c model.Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, notFound("get category", id)
	}
	if err != nil {
		return model.Category{}, storageFault("get category", err)
	}

	c.Messages, err = listMessages(ctx, s.db, id)
	if err != nil {
		return model.Category{}, storageFault("get category", err)
	}
	return c, nil
}

// CreateCategory inserts a category with a generated id.
func (s *Store) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	return s.createCategory(ctx, "create category", s.opts.IDs.Generate(), name)
}

// CreateCategoryWithID inserts a category with a caller-assigned id.
// An empty id is generated. The id must be unused (DUPLICATE otherwise)
// and must not be the reserved uncategorized id (RESERVED).
func (s *Store) CreateCategoryWithID(ctx context.Context, id, name string) (model.Category, error) {
	if id == "" {
		id = s.opts.IDs.Generate()
	}
	if id == s.opts.UncategorizedID {
		return model.Category{}, reserved("create category", id)
	}
	return s.createCategory(ctx, "create category", id, name)
}

func (s *Store) createCategory(ctx context.Context, op, id, name string) (model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Category{
		ID:       id,
		Name:     model.NormalizeName(name),
		Messages: []model.Message{},
	}

	var order []string
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`, c.ID, c.Name)
		if isConstraintViolation(err) {
			return duplicate(op, c.ID)
		}
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}

		order, err = loadCategoryOrder(ctx, tx, s.opts.UncategorizedID)
		return err
	})
	if err != nil {
		return model.Category{}, err
	}

	s.order = order
	s.logger.Debug("created category", "id", c.ID, "name", c.Name)
	return c, nil
}

// UpdateCategoryName renames a category and recomputes the category view.
func (s *Store) UpdateCategoryName(ctx context.Context, id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = model.NormalizeName(name)

	var order []string
	err := s.withTx(ctx, "update category name", func(tx *sql.Tx) error {
		err := updateOne(ctx, tx, "update category name", id,
			`UPDATE categories SET name = ? WHERE id = ?`, name, id)
		if err != nil {
			return err
		}

		order, err = loadCategoryOrder(ctx, tx, s.opts.UncategorizedID)
		return err
	})
	if err != nil {
		return err
	}

	s.order = order
	s.logger.Debug("renamed category", "id", id, "name", name)
	return nil
}

// DeleteCategory deletes a category together with all of its messages and
// recomputes the category view. Chats are not affected.
//
// The uncategorized category may be deleted unless ProtectUncategorized is
// set, in which case the call fails with RESERVED. Once deleted, the view
// has no pinned category until the next Open recreates it.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	if id == s.opts.UncategorizedID && s.opts.ProtectUncategorized {
		return reserved("delete category", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		order    []string
		messages int64
	)
	err := s.withTx(ctx, "delete category", func(tx *sql.Tx) error {
		if err := requireCategory(ctx, tx, "delete category", id); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE category_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete category messages: %w", err)
		}
		if messages, err = res.RowsAffected(); err != nil {
			return fmt.Errorf("delete category messages: rows affected: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}

		order, err = loadCategoryOrder(ctx, tx, s.opts.UncategorizedID)
		return err
	})
	if err != nil {
		return err
	}

	s.order = order
	s.logger.Debug("deleted category", "id", id, "messages", messages)
	return nil
}

// listCategories loads categories and messages and arranges them in the
// cached view order. Callers must hold s.mu.
func (s *Store) listCategories(ctx context.Context, q querier) ([]model.Category, error) {
	byID, err := loadCategories(ctx, q)
	if err != nil {
		return nil, err
	}

	owned, err := listAllMessages(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, m := range owned {
		c, ok := byID[m.CategoryID]
		if !ok {
			continue
		}
		c.Messages = append(c.Messages, m)
		byID[m.CategoryID] = c
	}

	categories := make([]model.Category, 0, len(s.order))
	for _, id := range s.order {
		if c, ok := byID[id]; ok {
			categories = append(categories, c)
		}
	}
	return categories, nil
}

func loadCategories(ctx context.Context, q querier) (map[string]model.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	byID := map[string]model.Category{}
	for rows.Next() {
		c := model.Category{Messages: []model.Message{}}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return byID, nil
}

// requireCategory returns NOT_FOUND for op if no category has id.
func requireCategory(ctx context.Context, q querier, op, id string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(op, id)
	}
	if err != nil {
		return fmt.Errorf("%s: lookup category: %w", op, err)
	}
	return nil
}
