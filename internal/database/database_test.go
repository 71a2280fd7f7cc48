package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

func TestCacheConstants(t *testing.T) {
	assert.Equal(t, 0, GENERAL_CACHE_INDEX)
	assert.Equal(t, 1, SESSION_CACHE_INDEX)
	assert.Equal(t, 2, USER_CACHE_INDEX)
	assert.Equal(t, 3, EVENTS_CACHE_INDEX)
	assert.Equal(t, 4, CLIENT_API_CACHE_INDEX)
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, valkey.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return mr, client
}

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheBuilder_SetAndGet(t *testing.T) {
	mr, client := newTestCache(t)

	err := NewCacheBuilder(client, "abc").
		WithHash("thing").
		WithStruct(cachedThing{Name: "deadbolt", Count: 2}).
		WithTTL(time.Minute).
		Set()
	require.NoError(t, err)
	assert.True(t, mr.Exists("thing:abc"))

	var got cachedThing
	found, err := NewCacheBuilder(client, "abc").WithHash("thing").Get(&got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "deadbolt", got.Name)
	assert.Equal(t, 2, got.Count)
}

func TestCacheBuilder_GetMiss(t *testing.T) {
	_, client := newTestCache(t)

	var got cachedThing
	found, err := NewCacheBuilder(client, uuid.New()).Get(&got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheBuilder_Delete(t *testing.T) {
	mr, client := newTestCache(t)
	require.NoError(t, mr.Set("a", "1"))
	require.NoError(t, mr.Set("b", "2"))

	require.NoError(t, NewCacheBuilder(client, []string{"a", "b"}).Delete())
	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestCacheBuilder_Increment(t *testing.T) {
	mr, client := newTestCache(t)

	count, err := NewCacheBuilder(client, "clicks").WithTTL(time.Hour).Increment()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = NewCacheBuilder(client, "clicks").Increment()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Hour, mr.TTL("clicks"))
}

func TestCacheBuilder_SetMembers(t *testing.T) {
	_, client := newTestCache(t)

	require.NoError(t, NewCacheBuilder(client, "set").WithMember("x").SetSadd())
	require.NoError(t, NewCacheBuilder(client, "set").WithMember("y").SetSadd())

	members, err := NewCacheBuilder(client, "set").GetSetMembers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x", "y"}, members)
}

func TestCacheBuilder_NilClientIsNoop(t *testing.T) {
	builder := NewCacheBuilder(nil, "key").WithStruct(cachedThing{Name: "x"})
	assert.NoError(t, builder.Set())

	var got cachedThing
	found, err := NewCacheBuilder(nil, "key").Get(&got)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, NewCacheBuilder(nil, "key").Delete())
}

func TestCacheBuilder_ValidationErrors(t *testing.T) {
	_, client := newTestCache(t)

	assert.Error(t, NewCacheBuilder(client, "").WithValue("v").Set())
	assert.Error(t, NewCacheBuilder(client, "k").Set())
	assert.Error(t, NewCacheBuilder(client, "k").WithStruct(make(chan int)).Set())
}

func TestCacheBuilder_RespectsShorterDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cb := NewCacheBuilder(nil, "k").WithContext(ctx).WithTimeout(time.Minute)
	timeoutCtx, done := cb.createTimeoutContext()
	defer done()

	deadline, ok := timeoutCtx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}
