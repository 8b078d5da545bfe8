// Package storetest holds the behavioural contract every store driver must
// satisfy. Driver tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/postapi/store"
)

// Run exercises s against the store contract. newStore must return an empty
// store; Run wipes it between subtests and closes it at the end.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	ctx := context.Background()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })

	run := func(name string, fn func(t *testing.T)) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.DropAll(ctx))
			defer func() { require.NoError(t, s.DropAll(ctx)) }()
			fn(t)
		})
	}

	run("empty store", func(t *testing.T) {
		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		one, err := s.FindOne(ctx)
		require.NoError(t, err)
		assert.Nil(t, one)
	})

	run("insert many assigns unique ids", func(t *testing.T) {
		in := samplePosts(10)
		in[0].ID = "caller-supplied"
		out, err := s.InsertMany(ctx, in)
		require.NoError(t, err)
		require.Len(t, out, len(in))

		seen := map[string]bool{}
		for i, p := range out {
			require.NotEmpty(t, p.ID)
			assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
			seen[p.ID] = true
			assert.Equal(t, in[i].Title, p.Title)
		}
		assert.NotEqual(t, "caller-supplied", out[0].ID)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(in), n)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, len(in))
	})

	run("find all keeps insertion order", func(t *testing.T) {
		out, err := s.InsertMany(ctx, samplePosts(5))
		require.NoError(t, err)
		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, len(out))
		for i := range out {
			assert.Equal(t, out[i].ID, all[i].ID)
		}

		first, err := s.FindOne(ctx)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, out[0].ID, first.ID)
	})

	run("insert one round trip", func(t *testing.T) {
		in := store.Post{Author: "Jane", Title: "Testing 1, 2, 3", Content: "Hello."}
		created, err := s.InsertOne(ctx, in)
		require.NoError(t, err)
		require.NotEmpty(t, created.ID)

		got, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, in.Author, got.Author)
		assert.Equal(t, in.Title, got.Title)
		assert.Equal(t, in.Content, got.Content)
	})

	run("find by id absent", func(t *testing.T) {
		created, err := s.InsertOne(ctx, samplePosts(1)[0])
		require.NoError(t, err)
		require.NoError(t, s.DeleteByID(ctx, created.ID))

		for _, id := range []string{created.ID, "not-an-id", ""} {
			got, err := s.FindByID(ctx, id)
			require.NoError(t, err, "id %q", id)
			assert.Nil(t, got, "id %q", id)
		}
	})

	run("update merges given fields", func(t *testing.T) {
		created, err := s.InsertOne(ctx, store.Post{Author: "Jane", Title: "Old", Content: "Body stays."})
		require.NoError(t, err)

		author, title := "Cool Bro", "Cool story, bro"
		err = s.UpdateByID(ctx, created.ID, store.Fields{Author: &author, Title: &title})
		require.NoError(t, err)

		got, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, author, got.Author)
		assert.Equal(t, title, got.Title)
		assert.Equal(t, "Body stays.", got.Content)
	})

	run("update with no fields leaves post unchanged", func(t *testing.T) {
		created, err := s.InsertOne(ctx, samplePosts(1)[0])
		require.NoError(t, err)
		require.NoError(t, s.UpdateByID(ctx, created.ID, store.Fields{}))

		got, err := s.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.Title, got.Title)
	})

	run("update absent id is not found", func(t *testing.T) {
		created, err := s.InsertOne(ctx, samplePosts(1)[0])
		require.NoError(t, err)
		require.NoError(t, s.DeleteByID(ctx, created.ID))

		title := "ghost"
		err = s.UpdateByID(ctx, created.ID, store.Fields{Title: &title})
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)

		var nf *store.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, created.ID, nf.ID)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n, "update must not create a post")
	})

	run("delete is idempotent", func(t *testing.T) {
		out, err := s.InsertMany(ctx, samplePosts(3))
		require.NoError(t, err)

		require.NoError(t, s.DeleteByID(ctx, out[1].ID))
		require.NoError(t, s.DeleteByID(ctx, out[1].ID))
		require.NoError(t, s.DeleteByID(ctx, "does-not-exist"))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := s.FindByID(ctx, out[1].ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	run("drop all empties the store", func(t *testing.T) {
		_, err := s.InsertMany(ctx, samplePosts(4))
		require.NoError(t, err)
		require.NoError(t, s.DropAll(ctx))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		// The store stays usable after a drop.
		_, err = s.InsertOne(ctx, samplePosts(1)[0])
		require.NoError(t, err)
	})
}

func samplePosts(n int) []store.Post {
	titles := []string{"A Very Cool Blog Post", "NotSoCoolPost", "Testing 1, 2, 3"}
	posts := make([]store.Post, n)
	for i := range posts {
		posts[i] = store.Post{
			Author:  "Author",
			Title:   titles[i%len(titles)],
			Content: "Lorem ipsum dolor sit amet.",
		}
	}
	return posts
}
