package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunContentStoreContract runs a suite of tests to verify that a ContentStore implementation
// adheres to the defined interface contract.
func RunContentStoreContract(t *testing.T, store ContentStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	release := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Get", func(t *testing.T) {
		node := domain.StoredNode{
			ID:       prefix + "-chapter",
			Category: domain.CategoryChapter,
			ParentID: prefix + "-course",
			Children: []string{"s1", "s2"},
			Attributes: domain.NodeAttributes{
				DisplayName:       "Week 1",
				Published:         true,
				ReleaseDate:       &release,
				ExplicitStaffLock: true,
				Highlights:        []string{"intro"},
				Prerequisites:     []domain.Prerequisite{{ID: "p1", Label: "Pre"}},
			},
		}
		require.NoError(t, store.Save(ctx, node), "Save should not return error")

		loaded, err := store.Get(ctx, node.ID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, node.Category, loaded.Category)
		assert.Equal(t, node.ParentID, loaded.ParentID)
		assert.Equal(t, node.Children, loaded.Children, "child order must be preserved")
		assert.Equal(t, "Week 1", loaded.Attributes.DisplayName)
		require.NotNil(t, loaded.Attributes.ReleaseDate)
		assert.True(t, release.Equal(*loaded.Attributes.ReleaseDate))
		assert.Equal(t, node.Attributes.Prerequisites, loaded.Attributes.Prerequisites)
	})

	t.Run("Get Returns Copies", func(t *testing.T) {
		id := prefix + "-copy"
		require.NoError(t, store.Save(ctx, domain.StoredNode{ID: id, Children: []string{"a"}}))
		loaded, err := store.Get(ctx, id)
		require.NoError(t, err)
		loaded.Children[0] = "mutated"

		again, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, again.Children)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-gone"
		require.NoError(t, store.Save(ctx, domain.StoredNode{ID: id}))
		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNodeNotFound, "Get after Delete should return ErrNodeNotFound")
		assert.NoError(t, store.Delete(ctx, id), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "-1"
		id2 := prefix + "-2"
		_ = store.Save(ctx, domain.StoredNode{ID: id1})
		_ = store.Save(ctx, domain.StoredNode{ID: id2})
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunLockerContract verifies mutual exclusion and release of a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Exclusive", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, key, time.Second)
		assert.Error(t, err, "second Lock must wait until the context expires")

		require.NoError(t, unlock(ctx))

		unlock2, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err, "Lock after release should succeed")
		require.NoError(t, unlock2(ctx))
	})

	t.Run("Serializes Critical Sections", func(t *testing.T) {
		var mu sync.Mutex
		inside, maxInside := 0, 0
		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key+"-cs", time.Second)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				inside++
				maxInside = max(maxInside, inside)
				mu.Unlock()
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxInside)
	})
}
