package store

import (
	"context"
	"fmt"
)

// loadCategoryOrder rebuilds the category view from the full category set:
// insertion order, with the reserved id moved to the front when present.
//
// The view is recomputed in full on every category insert, rename and
// delete. Category counts are small, so there is no incremental path.
func loadCategoryOrder(ctx context.Context, q querier, pinned string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM categories ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query category order: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category order: %w", err)
	}

	return pinFirst(ids, pinned), nil
}

// pinFirst moves pinned to index 0 of ids, keeping the relative order of
// everything else. ids is returned unchanged if pinned is absent or already
// first. The input slice is modified in place.
func pinFirst(ids []string, pinned string) []string {
	for i, id := range ids {
		if id != pinned {
			continue
		}
		if i == 0 {
			return ids
		}
		copy(ids[1:i+1], ids[:i])
		ids[0] = pinned
		return ids
	}
	return ids
}
