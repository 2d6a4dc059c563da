package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/outline/internal/testutils"
	"github.com/aretw0/outline/pkg/adapters/memory"
	"github.com/aretw0/outline/pkg/authority"
	"github.com/aretw0/outline/pkg/observability"
	"github.com/aretw0/outline/pkg/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeCounter_ObservesAuthority(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter, err := observability.NewChangeCounter(reg)
	require.NoError(t, err)

	ctx := context.Background()
	svc := authority.New(memory.NewStore(), authority.WithObserver(counter.Observe))
	require.NoError(t, svc.Import(ctx, testutils.Course()))

	_, err = svc.Create(ctx, wire.CreateRequest{ParentLocator: "A"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "c3"))

	assert.Equal(t, 1.0, testutil.ToFloat64(counter.Changes.WithLabelValues(string(authority.ActionCreated))))
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.Changes.WithLabelValues(string(authority.ActionDeleted))))

	_, err = observability.NewChangeCounter(reg)
	assert.Error(t, err)
}
