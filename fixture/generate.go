// Package fixture provides synthetic posts and a harness that runs a
// postapi server against an isolated store for integration tests.
package fixture

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"

	"github.com/eringen/postapi/store"
)

// SeedCount is the number of posts Seed inserts before each test.
const SeedCount = 10

// Titles is the fixed pool generated titles are drawn from. It is small so
// several posts share a title.
var Titles = []string{
	"A Very Cool Blog Post",
	"NotSoCoolPost",
	"Testing 1, 2, 3",
}

// GenerateTitle returns a random title from Titles.
func GenerateTitle() string {
	return Titles[rand.Intn(len(Titles))]
}

// GeneratePost returns a valid post without an id, usable as seed data
// or as a request body.
func GeneratePost() store.Post {
	return store.Post{
		Author:  randomdata.FirstName(randomdata.RandomGender),
		Title:   GenerateTitle(),
		Content: randomdata.Paragraph(),
	}
}

// GeneratePosts returns n generated posts.
func GeneratePosts(n int) []store.Post {
	posts := make([]store.Post, n)
	for i := range posts {
		posts[i] = GeneratePost()
	}
	return posts
}
