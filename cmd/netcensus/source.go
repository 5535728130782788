package main

import (
	"context"
	"fmt"

	"github.com/netcensus/netcensus/pkg/inventory"
	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/settings"
	"github.com/netcensus/netcensus/pkg/util"
)

// openStore connects to the shared Redis inventory named in settings.
func openStore(ctx context.Context, s *settings.Settings) (*inventory.RedisStore, error) {
	if s.RedisAddr == "" {
		return nil, fmt.Errorf("no Redis inventory configured: run 'netcensus settings set redis_addr <host:port>'")
	}
	store := inventory.NewRedisStore(s.RedisAddr, s.RedisDB)
	if err := store.Connect(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// loadDevices reads the device list from Redis when --redis is given and
// from the inventory file otherwise. It also returns a description of the
// source for messages.
func loadDevices(ctx context.Context, s *settings.Settings) ([]model.Device, string, error) {
	if useRedis {
		store, err := openStore(ctx, s)
		if err != nil {
			return nil, "", err
		}
		defer store.Close()

		devices, err := store.List(ctx)
		if err != nil {
			return nil, "", err
		}
		util.Debugf("loaded %d devices from redis://%s", len(devices), s.RedisAddr)
		return devices, "redis://" + s.RedisAddr, nil
	}

	path := resolveInventory(s)
	devices, err := inventory.LoadFile(path)
	if err != nil {
		return nil, "", err
	}
	util.Debugf("loaded %d devices from %s", len(devices), path)
	return devices, path, nil
}
