package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netcensus/netcensus/pkg/inventory"
)

func newInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the device inventory",
		Long: `Manage the device inventory file and the shared Redis inventory.

The inventory lists one device per row with the columns Name, User,
Password and Parameter. Parameter holds comma-separated keywords; rows
without a Name are ignored.

Examples:
  netcensus inventory init -i data/devices.csv
  netcensus inventory push            # file -> Redis
  netcensus inventory pull -i out.yaml  # Redis -> file
  netcensus inventory delete`,
	}

	cmd.AddCommand(
		newInventoryInitCmd(),
		newInventoryDeleteCmd(),
		newInventoryPushCmd(),
		newInventoryPullCmd(),
	)
	return cmd
}

func newInventoryInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveInventory(loadSettings())
			if err := inventory.WriteTemplate(path); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%s already exists; delete it first with 'netcensus inventory delete'", path)
				}
				return err
			}
			fmt.Printf("%s Inventory created: %s\n", green("✓"), path)
			return nil
		},
	}
}

func newInventoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Delete the inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := resolveInventory(loadSettings())
			if err := inventory.Remove(path); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Printf("%s Inventory does not exist: %s\n", yellow("⚠"), path)
					return nil
				}
				return err
			}
			fmt.Printf("%s Inventory deleted: %s\n", green("✓"), path)
			return nil
		},
	}
}

func newInventoryPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Replace the Redis inventory with the inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := loadSettings()
			path := resolveInventory(s)

			devices, err := inventory.LoadFile(path)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, s)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(ctx, devices); err != nil {
				return err
			}
			fmt.Printf("%s Pushed %d devices from %s to redis://%s\n", green("✓"), len(devices), path, s.RedisAddr)
			return nil
		},
	}
}

func newInventoryPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Write the Redis inventory to the inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := loadSettings()
			path := resolveInventory(s)

			store, err := openStore(ctx, s)
			if err != nil {
				return err
			}
			defer store.Close()

			devices, err := store.List(ctx)
			if err != nil {
				return err
			}
			if err := inventory.SaveFile(path, devices); err != nil {
				return err
			}
			fmt.Printf("%s Pulled %d devices from redis://%s to %s\n", green("✓"), len(devices), s.RedisAddr, path)
			return nil
		},
	}
}
