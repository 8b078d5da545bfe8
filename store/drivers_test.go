package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/eringen/postapi/store"
	"github.com/eringen/postapi/store/storetest"
)

// openFromEnv opens the store named by env or skips the test. The store is
// wiped before it is handed to the contract suite.
func openFromEnv(t *testing.T, env string) store.Store {
	t.Helper()
	dsn := os.Getenv(env)
	if dsn == "" {
		t.Skipf("%s not set", env)
	}
	s, err := store.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("open %s: %v", env, err)
	}
	if err := s.DropAll(context.Background()); err != nil {
		t.Fatalf("drop all: %v", err)
	}
	return s
}

func TestMongoContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openFromEnv(t, "MONGO_TEST_URL")
	})
}

func TestPostgresContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openFromEnv(t, "POSTGRES_TEST_URL")
	})
}

func TestRedisContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return openFromEnv(t, "REDIS_TEST_URL")
	})
}
