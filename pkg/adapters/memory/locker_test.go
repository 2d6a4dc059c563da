package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/outline/pkg/adapters/memory"
	"github.com/aretw0/outline/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestMemoryLocker_ExpiresAfterTTL(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "course:c1", 20*time.Millisecond)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock, err := locker.Lock(ctxTimeout, "course:c1", time.Second)
	require.NoError(t, err, "an abandoned lock should expire")
	assert.NoError(t, unlock(ctx))
}
