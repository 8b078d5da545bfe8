package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eringen/postapi"
	"github.com/eringen/postapi/store"
)

const setupTimeout = 10 * time.Second

// Harness runs a postapi server bound to its own store. Tests use Seed
// and TearDown around each case and talk to the server over HTTP.
type Harness struct {
	App     *postapi.App
	Store   store.Store
	BaseURL string
	Client  *http.Client

	served   chan error
	stopOnce sync.Once
	stopErr  error
}

// Start opens the store named by dsn, wipes it and serves a postapi App on
// a loopback port. An empty dsn falls back to TEST_DATABASE_URL and then to
// a fresh SQLite file under t.TempDir. Failing to reach the store is fatal.
// The server is stopped when the test finishes.
func Start(t testing.TB, dsn string, opts ...postapi.Option) *Harness {
	t.Helper()
	if dsn == "" {
		dsn = postapi.EnvOr("TEST_DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "test-blog.db"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	s, err := store.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("fixture: open store: %v", err)
	}
	if err := s.DropAll(ctx); err != nil {
		s.Close()
		t.Fatalf("fixture: reset store: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		s.Close()
		t.Fatalf("fixture: listen: %v", err)
	}

	opts = append([]postapi.Option{postapi.WithLogOutput(io.Discard)}, opts...)
	app := postapi.New(postapi.Config{
		Addr:        ln.Addr().String(),
		DatabaseURL: dsn,
	}, s, opts...)

	h := &Harness{
		App:     app,
		Store:   s,
		BaseURL: "http://" + ln.Addr().String(),
		Client:  &http.Client{Timeout: setupTimeout},
		served:  make(chan error, 1),
	}
	go func() {
		h.served <- app.Serve(ln)
	}()

	t.Cleanup(func() {
		if err := h.Stop(); err != nil {
			t.Errorf("fixture: stop: %v", err)
		}
	})
	return h
}

// Seed inserts SeedCount generated posts and returns them with their ids.
func (h *Harness) Seed(t testing.TB) []store.Post {
	t.Helper()
	t.Logf("seeding %d blog posts", SeedCount)
	posts, err := h.Store.InsertMany(context.Background(), GeneratePosts(SeedCount))
	if err != nil {
		t.Fatalf("fixture: seed: %v", err)
	}
	return posts
}

// TearDown deletes every post so no state leaks into the next test.
func (h *Harness) TearDown(t testing.TB) {
	t.Helper()
	t.Log("deleting all blog posts")
	if err := h.Store.DropAll(context.Background()); err != nil {
		t.Fatalf("fixture: tear down: %v", err)
	}
}

// Run runs fn as a subtest between Seed and TearDown. Subtests run one
// after another; fn must not call t.Parallel.
func (h *Harness) Run(t *testing.T, name string, fn func(t *testing.T, seeded []store.Post)) bool {
	t.Helper()
	return t.Run(name, func(t *testing.T) {
		seeded := h.Seed(t)
		defer h.TearDown(t)
		fn(t, seeded)
	})
}

// Stop shuts the server down, waits for it to exit and closes the store.
// It is safe to call more than once.
func (h *Harness) Stop() error {
	h.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		if err := h.App.Shutdown(ctx); err != nil {
			h.stopErr = err
		}
		select {
		case err := <-h.served:
			if err != nil && h.stopErr == nil {
				h.stopErr = err
			}
		case <-ctx.Done():
			if h.stopErr == nil {
				h.stopErr = ctx.Err()
			}
		}
		if err := h.App.Close(); err != nil && h.stopErr == nil {
			h.stopErr = err
		}
	})
	return h.stopErr
}

// URL returns the absolute URL of path on the test server.
func (h *Harness) URL(path string) string {
	return h.BaseURL + path
}

// Do sends a request to the test server. A non-nil body is encoded as JSON;
// a string or []byte body is sent verbatim as JSON.
func (h *Harness) Do(t testing.TB, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	case []byte:
		r = bytes.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("fixture: encode body: %v", err)
		}
		r = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, h.URL(path), r)
	if err != nil {
		t.Fatalf("fixture: build request: %v", err)
	}
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		t.Fatalf("fixture: %s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t testing.TB, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("fixture: decode %s response: %v", resp.Request.URL, err)
	}
}

// Path returns the resource path of the post with the given id.
func Path(id string) string {
	return fmt.Sprintf("/posts/%s", id)
}
