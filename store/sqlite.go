package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite stores posts in a single table of an SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path, ensures the
// data directory exists and creates the posts table.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, wrap("open", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrap("open", err)
	}
	// WAL lets readers proceed while a write is in flight; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.ExecContext(ctx, `
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, wrap("open", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &SQLite{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    author TEXT NOT NULL,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    created INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created);
`)
	return wrap("ensure schema", err)
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	out := prepare(posts, uuid.NewString)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap("insert many", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO posts (id, author, title, content, created) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, wrap("insert many", err)
	}
	defer stmt.Close()
	for _, p := range out {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Author, p.Title, p.Content, p.Created.UnixNano()); err != nil {
			return nil, wrap("insert many", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, wrap("insert many", err)
	}
	return out, nil
}

func (s *SQLite) InsertOne(ctx context.Context, p Post) (Post, error) {
	p = prepare([]Post{p}, uuid.NewString)[0]
	_, err := s.db.ExecContext(ctx, `INSERT INTO posts (id, author, title, content, created) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Author, p.Title, p.Content, p.Created.UnixNano())
	if err != nil {
		return Post{}, wrap("insert one", err)
	}
	return p, nil
}

func (s *SQLite) FindAll(ctx context.Context) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, author, title, content, created FROM posts ORDER BY created, id`)
	if err != nil {
		return nil, wrap("find all", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, wrap("find all", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("find all", err)
	}
	return posts, nil
}

func (s *SQLite) FindOne(ctx context.Context) (*Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, author, title, content, created FROM posts ORDER BY created, id LIMIT 1`)
	return s.scanOne("find one", row)
}

func (s *SQLite) FindByID(ctx context.Context, id string) (*Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, author, title, content, created FROM posts WHERE id = ?`, id)
	return s.scanOne("find by id", row)
}

func (s *SQLite) scanOne(op string, row *sql.Row) (*Post, error) {
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrap(op, err)
	}
	return &p, nil
}

// UpdateByID relies on COALESCE so a nil field keeps its stored value.
func (s *SQLite) UpdateByID(ctx context.Context, id string, fields Fields) error {
	res, err := s.db.ExecContext(ctx, `UPDATE posts SET author = COALESCE(?, author), title = COALESCE(?, title), content = COALESCE(?, content) WHERE id = ?`,
		fields.Author, fields.Title, fields.Content, id)
	if err != nil {
		return wrap("update by id", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap("update by id", err)
	}
	if n == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

func (s *SQLite) DeleteByID(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return wrap("delete by id", err)
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, wrap("count", err)
	}
	return n, nil
}

func (s *SQLite) DropAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts`)
	return wrap("drop all", err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Post, error) {
	var p Post
	var created int64
	if err := row.Scan(&p.ID, &p.Author, &p.Title, &p.Content, &created); err != nil {
		return Post{}, err
	}
	p.Created = time.Unix(0, created).UTC()
	return p, nil
}
