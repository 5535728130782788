//go:build integration

package testutil

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// RedisDB is the database integration tests use, away from the default 0.
	RedisDB = 15

	redisContainer = "netcensus-test-redis"
	redisAddrEnv   = "NETCENSUS_TEST_REDIS_ADDR"
)

// RedisAddr returns where the test Redis listens: $NETCENSUS_TEST_REDIS_ADDR,
// else the netcensus-test-redis container's IP, else 127.0.0.1:6379 for a
// container started with a published port ("make redis-up").
func RedisAddr() string {
	if addr := os.Getenv(redisAddrEnv); addr != "" {
		return addr
	}
	out, err := exec.Command("docker", "inspect",
		"--format", "{{range .NetworkSettings.Networks}}{{.IPAddress}}{{end}}",
		redisContainer).Output()
	if ip := strings.TrimSpace(string(out)); err == nil && ip != "" {
		return ip + ":6379"
	}
	return "127.0.0.1:6379"
}

// Redis returns a client on the test database, skipping the test when no
// server answers. The database is flushed now and again when the test ends.
func Redis(t *testing.T) *redis.Client {
	t.Helper()

	addr := RedisAddr()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: RedisDB})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("test Redis not reachable at %s (set %s or run 'make redis-up'): %v", addr, redisAddrEnv, err)
	}

	flush := func() {
		if err := client.FlushDB(context.Background()).Err(); err != nil {
			t.Errorf("flushing DB %d: %v", RedisDB, err)
		}
	}
	flush()
	t.Cleanup(func() {
		flush()
		client.Close()
	})
	return client
}

// Hash reads the hash stored at key.
func Hash(t *testing.T, client *redis.Client, key string) map[string]string {
	t.Helper()
	vals, err := client.HGetAll(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	return vals
}

// KeyCount returns the number of keys in the test database.
func KeyCount(t *testing.T, client *redis.Client) int {
	t.Helper()
	n, err := client.DBSize(context.Background()).Result()
	if err != nil {
		t.Fatalf("counting keys in DB %d: %v", RedisDB, err)
	}
	return int(n)
}
