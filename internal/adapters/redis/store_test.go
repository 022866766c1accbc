package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/autopilot/internal/adapters/redis"
	"github.com/aretw0/autopilot/pkg/ports/tests"
	"github.com/aretw0/autopilot/pkg/schema"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	tests.TaskStoreContractTest(t, store)
}

func TestRedisStore_Keys(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("tm:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "login", []schema.Record{{"event_name": "a"}}))
	assert.True(t, mr.Exists("tm:task:login"))

	members, err := mr.ZMembers("tm:tasks")
	require.NoError(t, err)
	assert.Equal(t, []string{"login"}, members)

	require.NoError(t, store.Delete(ctx, "login"))
	assert.False(t, mr.Exists("tm:task:login"))
}
