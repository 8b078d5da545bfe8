package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores posts in a PostgreSQL table through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn, pings the server and creates the posts table.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, wrap("open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrap("ping", err)
	}
	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    author TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    created TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created);
`)
	if err != nil {
		pool.Close()
		return nil, wrap("ensure schema", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes every connection in the pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

var postColumns = []string{"id", "author", "title", "content", "created"}

// InsertMany uses COPY, which is atomic for the whole batch.
func (s *Postgres) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	out := prepare(posts, uuid.NewString)
	rows := make([][]any, len(out))
	for i, p := range out {
		rows[i] = []any{p.ID, p.Author, p.Title, p.Content, p.Created}
	}
	if _, err := s.pool.CopyFrom(ctx, pgx.Identifier{"posts"}, postColumns, pgx.CopyFromRows(rows)); err != nil {
		return nil, wrap("insert many", err)
	}
	return out, nil
}

func (s *Postgres) InsertOne(ctx context.Context, p Post) (Post, error) {
	p = prepare([]Post{p}, uuid.NewString)[0]
	_, err := s.pool.Exec(ctx, `INSERT INTO posts (id, author, title, content, created) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Author, p.Title, p.Content, p.Created)
	if err != nil {
		return Post{}, wrap("insert one", err)
	}
	return p, nil
}

func (s *Postgres) FindAll(ctx context.Context) ([]Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, author, title, content, created FROM posts ORDER BY created, id`)
	if err != nil {
		return nil, wrap("find all", err)
	}
	posts, err := pgx.CollectRows(rows, scanPgPost)
	if err != nil {
		return nil, wrap("find all", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

func (s *Postgres) FindOne(ctx context.Context) (*Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, author, title, content, created FROM posts ORDER BY created, id LIMIT 1`)
	if err != nil {
		return nil, wrap("find one", err)
	}
	return collectOne("find one", rows)
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*Post, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, author, title, content, created FROM posts WHERE id = $1`, id)
	if err != nil {
		return nil, wrap("find by id", err)
	}
	return collectOne("find by id", rows)
}

func collectOne(op string, rows pgx.Rows) (*Post, error) {
	p, err := pgx.CollectOneRow(rows, scanPgPost)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}

func (s *Postgres) UpdateByID(ctx context.Context, id string, fields Fields) error {
	tag, err := s.pool.Exec(ctx, `UPDATE posts SET author = COALESCE($2, author), title = COALESCE($3, title), content = COALESCE($4, content) WHERE id = $1`,
		id, fields.Author, fields.Title, fields.Content)
	if err != nil {
		return wrap("update by id", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

func (s *Postgres) DeleteByID(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	return wrap("delete by id", err)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, wrap("count", err)
	}
	return n, nil
}

func (s *Postgres) DropAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE posts`)
	return wrap("drop all", err)
}

func scanPgPost(row pgx.CollectableRow) (Post, error) {
	var p Post
	if err := row.Scan(&p.ID, &p.Author, &p.Title, &p.Content, &p.Created); err != nil {
		return Post{}, err
	}
	p.Created = p.Created.UTC()
	return p, nil
}
