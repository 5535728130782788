package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/netcensus/netcensus/pkg/model"
)

// Redis layout: one hash per device at "DEVICE|<name>" and a list holding
// the device names in inventory order.
const (
	DeviceTable = "DEVICE"
	OrderKey    = "DEVICE_ORDER"
)

// DeviceKey returns the Redis key of the hash holding device name.
func DeviceKey(name string) string {
	return fmt.Sprintf("%s|%s", DeviceTable, name)
}

// RedisStore keeps a shared inventory in Redis so several operators can run
// against the same device list.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store on the Redis server at addr using database db.
func NewRedisStore(addr string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// Connect tests the connection
func (s *RedisStore) Connect(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", s.client.Options().Addr, err)
	}
	return nil
}

// Close closes the connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save replaces the stored inventory with devices in a single transaction.
// Devices without a name are skipped; a repeated name keeps its first
// position and its last values.
func (s *RedisStore) Save(ctx context.Context, devices []model.Device) error {
	existing, err := scanKeys(ctx, s.client, DeviceTable+"|*", 100)
	if err != nil {
		return fmt.Errorf("scanning devices: %w", err)
	}

	pipe := s.client.TxPipeline()
	for _, key := range existing {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, OrderKey)

	seen := make(map[string]bool)
	for _, d := range keep(devices) {
		pipe.HSet(ctx, DeviceKey(d.Name), deviceFields(d))
		if !seen[d.Name] {
			seen[d.Name] = true
			pipe.RPush(ctx, OrderKey, d.Name)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("saving devices: %w", err)
	}
	return nil
}

// List returns the stored devices in inventory order. Names in the order
// list without a hash are skipped.
func (s *RedisStore) List(ctx context.Context) ([]model.Device, error) {
	names, err := s.client.LRange(ctx, OrderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading device order: %w", err)
	}

	devices := make([]model.Device, 0, len(names))
	for _, name := range names {
		vals, err := s.client.HGetAll(ctx, DeviceKey(name)).Result()
		if err != nil {
			return nil, fmt.Errorf("reading device %s: %w", name, err)
		}
		if len(vals) == 0 {
			continue
		}
		devices = append(devices, deviceFromFields(name, vals))
	}
	return devices, nil
}

// Clear removes every stored device.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.Save(ctx, nil)
}

func deviceFields(d model.Device) map[string]interface{} {
	return map[string]interface{}{
		"user":      d.User,
		"password":  d.Password,
		"parameter": d.Parameter,
	}
}

func deviceFromFields(name string, vals map[string]string) model.Device {
	return model.Device{
		Name:      name,
		User:      vals["user"],
		Password:  vals["password"],
		Parameter: strings.TrimSpace(vals["parameter"]),
	}
}

// scanKeys returns all keys matching pattern using SCAN.
func scanKeys(ctx context.Context, client *redis.Client, pattern string, countHint int64) ([]string, error) {
	var cursor uint64
	var keys []string
	for {
		batch, nextCursor, err := client.Scan(ctx, cursor, pattern, countHint).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}
