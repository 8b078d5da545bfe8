package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	redisIndexKey  = "posts:index"
	redisPostKeyNS = "posts:doc:"
)

// Redis stores each post as a hash under posts:doc:<id> and keeps the ids
// in the sorted set posts:index, scored by creation time.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to the redis:// or rediss:// url and pings the server.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, wrap("open", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, wrap("ping", err)
	}
	return &Redis{client: client}, nil
}

// Close closes the client and its connection pool.
func (s *Redis) Close() error {
	return s.client.Close()
}

func redisPostKey(id string) string {
	return redisPostKeyNS + id
}

func (s *Redis) InsertMany(ctx context.Context, posts []Post) ([]Post, error) {
	out := prepare(posts, uuid.NewString)
	if len(out) == 0 {
		return out, nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, p := range out {
			addRedisPost(ctx, pipe, p)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("insert many", err)
	}
	return out, nil
}

func (s *Redis) InsertOne(ctx context.Context, p Post) (Post, error) {
	p = prepare([]Post{p}, uuid.NewString)[0]
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		addRedisPost(ctx, pipe, p)
		return nil
	})
	if err != nil {
		return Post{}, wrap("insert one", err)
	}
	return p, nil
}

func addRedisPost(ctx context.Context, pipe redis.Pipeliner, p Post) {
	pipe.HSet(ctx, redisPostKey(p.ID), map[string]interface{}{
		"author":  p.Author,
		"title":   p.Title,
		"content": p.Content,
		"created": strconv.FormatInt(p.Created.UnixNano(), 10),
	})
	pipe.ZAdd(ctx, redisIndexKey, &redis.Z{
		Score:  float64(p.Created.UnixNano()),
		Member: p.ID,
	})
}

func (s *Redis) FindAll(ctx context.Context) ([]Post, error) {
	ids, err := s.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, wrap("find all", err)
	}
	posts, err := s.load(ctx, ids)
	if err != nil {
		return nil, wrap("find all", err)
	}
	return posts, nil
}

func (s *Redis) FindOne(ctx context.Context) (*Post, error) {
	ids, err := s.client.ZRange(ctx, redisIndexKey, 0, 0).Result()
	if err != nil {
		return nil, wrap("find one", err)
	}
	posts, err := s.load(ctx, ids)
	if err != nil {
		return nil, wrap("find one", err)
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

func (s *Redis) FindByID(ctx context.Context, id string) (*Post, error) {
	posts, err := s.load(ctx, []string{id})
	if err != nil {
		return nil, wrap("find by id", err)
	}
	if len(posts) == 0 {
		return nil, nil
	}
	return &posts[0], nil
}

// load fetches the hashes for ids in one round trip. Ids whose hash is
// missing are skipped.
func (s *Redis) load(ctx context.Context, ids []string) ([]Post, error) {
	posts := []Post{}
	if len(ids) == 0 {
		return posts, nil
	}
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, redisPostKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		created, err := strconv.ParseInt(h["created"], 10, 64)
		if err != nil {
			return nil, err
		}
		posts = append(posts, Post{
			ID:      ids[i],
			Author:  h["author"],
			Title:   h["title"],
			Content: h["content"],
			Created: time.Unix(0, created).UTC(),
		})
	}
	return posts, nil
}

// UpdateByID watches the post key so a concurrent delete between the
// existence check and the write aborts the transaction.
func (s *Redis) UpdateByID(ctx context.Context, id string, fields Fields) error {
	key := redisPostKey(id)
	values := map[string]interface{}{}
	if fields.Author != nil {
		values["author"] = *fields.Author
	}
	if fields.Title != nil {
		values["title"] = *fields.Title
	}
	if fields.Content != nil {
		values["content"] = *fields.Content
	}
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return &NotFoundError{ID: id}
		}
		if len(values) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values)
			return nil
		})
		return err
	}, key)
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return err
	}
	return wrap("update by id", err)
}

func (s *Redis) DeleteByID(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisPostKey(id))
		pipe.ZRem(ctx, redisIndexKey, id)
		return nil
	})
	return wrap("delete by id", err)
}

func (s *Redis) Count(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, redisIndexKey).Result()
	if err != nil {
		return 0, wrap("count", err)
	}
	return int(n), nil
}

// DropAll removes every post key reachable from the index and the index
// itself. Other keys in the database are left alone.
func (s *Redis) DropAll(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return wrap("drop all", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, redisPostKey(id))
	}
	keys = append(keys, redisIndexKey)
	return wrap("drop all", s.client.Del(ctx, keys...).Err())
}
