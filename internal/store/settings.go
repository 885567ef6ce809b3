package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/distype/distype/internal/model"
)

// Settings returns the singleton settings record, creating it with the
// configured defaults if it does not exist yet.
func (s *Store) Settings(ctx context.Context) (model.Settings, error) {
	s.mu.RLock()
	settings, err := readSettings(ctx, s.db)
	s.mu.RUnlock()
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, storageFault("read settings", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have created the row since the read above.
	var created bool
	err = s.withTx(ctx, "init settings", func(tx *sql.Tx) error {
		if created, err = ensureSettings(ctx, tx, s.opts.DefaultSettings); err != nil {
			return err
		}
		settings, err = readSettings(ctx, tx)
		return err
	})
	if err != nil {
		return model.Settings{}, err
	}

	if created {
		s.logger.Info("initialized settings")
	}
	return settings, nil
}

// UpdateSettings applies the non-nil fields of u and returns the result.
func (s *Store) UpdateSettings(ctx context.Context, u model.SettingsUpdate) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated model.Settings
	err := s.withTx(ctx, "update settings", func(tx *sql.Tx) error {
		if _, err := ensureSettings(ctx, tx, s.opts.DefaultSettings); err != nil {
			return err
		}
		current, err := readSettings(ctx, tx)
		if err != nil {
			return err
		}

		updated = u.Apply(current)
		_, err = tx.ExecContext(ctx, `
			UPDATE settings
			SET use_internet = ?, speak_every_word = ?, voice_id = ?
			WHERE id = 1
		`, updated.UseInternet, updated.SpeakEveryWord, updated.VoiceID)
		if err != nil {
			return fmt.Errorf("update settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Settings{}, err
	}

	s.logger.Debug("updated settings",
		"use_internet", updated.UseInternet,
		"speak_every_word", updated.SpeakEveryWord,
		"voice_id", updated.VoiceID,
	)
	return updated, nil
}

// readSettings returns sql.ErrNoRows if the row does not exist.
func readSettings(ctx context.Context, q querier) (model.Settings, error) {
	var st model.Settings
	err := q.QueryRowContext(ctx,
		`SELECT use_internet, speak_every_word, voice_id FROM settings WHERE id = 1`,
	).Scan(&st.UseInternet, &st.SpeakEveryWord, &st.VoiceID)
	return st, err
}

// ensureSettings inserts the singleton row unless it already exists and
// reports whether it did.
func ensureSettings(ctx context.Context, q querier, defaults model.Settings) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO settings (id, use_internet, speak_every_word, voice_id)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, defaults.UseInternet, defaults.SpeakEveryWord, defaults.VoiceID)
	if err != nil {
		return false, fmt.Errorf("insert settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert settings: rows affected: %w", err)
	}
	return n > 0, nil
}
