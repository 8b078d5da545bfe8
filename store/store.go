// Package store persists blog posts. A Store is opened from a connection
// string and backed by one of the sqlite, mongodb, postgres or redis drivers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Post is a single blog post document.
type Post struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"-"`
}

// Fields is a partial update. Nil fields are left unchanged.
type Fields struct {
	Author  *string
	Title   *string
	Content *string
}

// Empty reports whether no field is set.
func (f Fields) Empty() bool {
	return f.Author == nil && f.Title == nil && f.Content == nil
}

//go:generate mockgen -destination=storemock/repository.go -package=storemock github.com/eringen/postapi/store Repository

// Repository is the set of operations reachable from request handlers.
type Repository interface {
	// InsertMany stores every post and returns them with their assigned ids.
	InsertMany(ctx context.Context, posts []Post) ([]Post, error)
	// InsertOne stores p and returns it with its assigned id.
	InsertOne(ctx context.Context, p Post) (Post, error)
	// FindAll returns every post ordered by creation time.
	FindAll(ctx context.Context) ([]Post, error)
	// FindOne returns the oldest post, or nil when the store is empty.
	FindOne(ctx context.Context) (*Post, error)
	// FindByID returns the post with the given id, or nil when absent.
	FindByID(ctx context.Context, id string) (*Post, error)
	// UpdateByID merges fields into an existing post. It returns a
	// *NotFoundError when id does not exist.
	UpdateByID(ctx context.Context, id string, fields Fields) error
	// DeleteByID removes the post if present. Deleting an absent id is a no-op.
	DeleteByID(ctx context.Context, id string) error
	// Count returns the number of stored posts.
	Count(ctx context.Context) (int, error)
	Close() error
}

// Store is a Repository that can also be wiped. DropAll is used by test
// fixtures and is deliberately kept off the Repository handed to handlers.
type Store interface {
	Repository
	DropAll(ctx context.Context) error
}

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("post not found")

// NotFoundError is returned when an operation requires an existing post.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("post %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Error wraps a driver or connectivity failure.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// prepare assigns creation times to a batch so that FindAll returns it in
// input order.
func prepare(posts []Post, newID func() string) []Post {
	now := time.Now().UTC()
	out := make([]Post, len(posts))
	for i, p := range posts {
		p.ID = newID()
		p.Created = now.Add(time.Duration(i) * time.Microsecond)
		out[i] = p
	}
	return out
}
