package shell

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thokoanats/luct-reporting-web/internal/models"
	"github.com/thokoanats/luct-reporting-web/pkg/kvstore"
)

func TestRegistryReturnsSameShellPerSID(t *testing.T) {
	registry := NewRegistry(func(sid string) (*Shell, error) {
		return newTestShell(&mockGateway{}, nil, 0), nil
	}, nil)
	ctx := context.Background()

	first, err := registry.Get(ctx, "sid-a")
	require.NoError(t, err)
	second, err := registry.Get(ctx, "sid-a")
	require.NoError(t, err)
	other, err := registry.Get(ctx, "sid-b")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistryRestoresOnFirstSight(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	user := models.User{ID: "u1", Name: "Stored", Role: models.RoleLecturer}
	userJSON, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, kvstore.KeyToken, "tok"))
	require.NoError(t, store.Set(ctx, kvstore.KeyUser, string(userJSON)))

	registry := NewRegistry(func(sid string) (*Shell, error) {
		return newTestShell(&mockGateway{}, store, 0), nil
	}, nil)

	sh, err := registry.Get(ctx, "sid-a")
	require.NoError(t, err)
	state := sh.Snapshot()
	require.NotNil(t, state.Session)
	assert.Equal(t, "tok", state.Session.Token)
}

func TestRegistryConcurrentGetSingleShell(t *testing.T) {
	var created int
	var mu sync.Mutex
	registry := NewRegistry(func(sid string) (*Shell, error) {
		mu.Lock()
		created++
		mu.Unlock()
		return newTestShell(&mockGateway{}, nil, 0), nil
	}, nil)

	var wg sync.WaitGroup
	shells := make([]*Shell, 8)
	for i := range shells {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sh, err := registry.Get(context.Background(), "sid-a")
			require.NoError(t, err)
			shells[i] = sh
		}(i)
	}
	wg.Wait()

	for _, sh := range shells[1:] {
		assert.Same(t, shells[0], sh)
	}
	assert.Equal(t, 1, registry.Len())
}

func TestRegistrySweepDropsIdleShells(t *testing.T) {
	registry := NewRegistry(func(sid string) (*Shell, error) {
		return newTestShell(&mockGateway{}, nil, 0), nil
	}, nil)
	ctx := context.Background()

	now := time.Now()
	registry.now = func() time.Time { return now }
	_, err := registry.Get(ctx, "old")
	require.NoError(t, err)

	registry.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = registry.Get(ctx, "fresh")
	require.NoError(t, err)

	removed := registry.Sweep(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, registry.Len())

	// The fresh shell is still the same instance.
	fresh, err := registry.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}
