package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/distype/distype/internal/model"
)

// Snapshot exports the whole store as of a single point in time.
func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chats, err := listChats(ctx, s.db)
	if err != nil {
		return model.Snapshot{}, storageFault("snapshot", err)
	}

	categories, err := s.listCategories(ctx, s.db)
	if err != nil {
		return model.Snapshot{}, storageFault("snapshot", err)
	}

	settings, err := readSettings(ctx, s.db)
	if errors.Is(err, sql.ErrNoRows) {
		// Not yet materialized; report what Settings would create.
		settings, err = s.opts.DefaultSettings, nil
	}
	if err != nil {
		return model.Snapshot{}, storageFault("snapshot", err)
	}

	return model.Snapshot{
		SchemaVersion: s.version,
		Chats:         chats,
		Categories:    categories,
		Settings:      settings,
	}, nil
}
