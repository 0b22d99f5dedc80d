package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedPerson struct {
	Name    string   `json:"name"`
	Company string   `json:"company"`
	Tags    []string `json:"tags"`
}

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	in := cachedPerson{Name: "Carol", Company: "Other Corp", Tags: []string{"vc", "fintech"}}
	require.NoError(t, c.SetJSON(ctx, "person:carol@other.com", in, time.Minute))

	var out cachedPerson
	found, err := c.GetJSON(ctx, "person:carol@other.com", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)
}

func TestMemoryCache_MissIsNotAnError(t *testing.T) {
	c := NewMemoryCache()

	var out cachedPerson
	found, err := c.GetJSON(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", "v", time.Minute))

	var out string
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)

	now = now.Add(2 * time.Minute)
	found, err = c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_NoAliasing(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	in := cachedPerson{Name: "Bob", Tags: []string{"a"}}
	require.NoError(t, c.SetJSON(ctx, "k", in, 0))
	in.Tags[0] = "mutated"

	var out cachedPerson
	found, err := c.GetJSON(ctx, "k", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"a"}, out.Tags)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "crm:person:bob@acme.com", Key("crm", "person", "bob@acme.com"))
}
