package fixture

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/postapi/store"
)

func TestGeneratePostIsValid(t *testing.T) {
	for i := 0; i < 50; i++ {
		p := GeneratePost()
		assert.Empty(t, p.ID, "generated posts must not carry an id")
		assert.NotEmpty(t, strings.TrimSpace(p.Author))
		assert.NotEmpty(t, strings.TrimSpace(p.Content))
		assert.Contains(t, Titles, p.Title)
	}
}

func TestGeneratePostsRepeatsTitles(t *testing.T) {
	posts := GeneratePosts(SeedCount)
	require.Len(t, posts, SeedCount)

	seen := map[string]int{}
	for _, p := range posts {
		seen[p.Title]++
	}
	// Ten posts drawn from three titles always share at least one.
	assert.Less(t, len(seen), SeedCount)
}

func TestHarnessLifecycle(t *testing.T) {
	h := Start(t, "")
	ctx := context.Background()

	n, err := h.Store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "store should start empty")

	seeded := h.Seed(t)
	require.Len(t, seeded, SeedCount)
	n, err = h.Store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedCount, n)

	resp := h.Do(t, http.MethodGet, "/posts", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	h.TearDown(t)
	n, err = h.Store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop(), "second stop should be a no-op")

	_, err = http.Get(h.URL("/posts"))
	assert.Error(t, err, "server should no longer accept connections")
}

func TestHarnessRunSeedsAndWipes(t *testing.T) {
	h := Start(t, "")
	ctx := context.Background()

	h.Run(t, "first", func(t *testing.T, seeded []store.Post) {
		n, err := h.Store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(seeded), n)
	})
	h.Run(t, "second", func(t *testing.T, seeded []store.Post) {
		n, err := h.Store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, SeedCount, n, "posts from the first run must not leak")
	})

	n, err := h.Store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
