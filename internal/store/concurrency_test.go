package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentAppends(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const workers, perWorker = 8, 25

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := s.AppendMessage(ctx, uncategorized, "msg"); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	messages, err := s.ListMessages(ctx, uncategorized)
	require.NoError(t, err)
	assert.Len(t, messages, workers*perWorker)

	seen := make(map[string]bool, len(messages))
	for _, m := range messages {
		assert.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
}

func TestConcurrentCreateChat_UniqueSynthesizedNames(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	const n = 20

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateChat(ctx, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	names := chatNames(t, s)
	assert.Len(t, names, n+3)

	seen := map[string]bool{}
	for _, name := range names {
		assert.False(t, seen[name], "duplicate chat name %s", name)
		seen[name] = true
	}
}

func TestConcurrentReadersDuringCategoryChurn(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			categories, err := s.ListCategories(ctx)
			if !assert.NoError(t, err) {
				return
			}
			if assert.NotEmpty(t, categories) {
				assert.Equal(t, uncategorized, categories[0].ID)
			}
		}
	}()

	for i := 0; i < 30; i++ {
		c, err := s.CreateCategory(ctx, "temp")
		require.NoError(t, err)
		if i%2 == 0 {
			require.NoError(t, s.DeleteCategory(ctx, c.ID))
		}
	}
	close(done)
	wg.Wait()

	assert.Len(t, categoryIDs(t, s), 16)
}
