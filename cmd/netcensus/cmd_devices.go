package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/netcensus/netcensus/pkg/cli"
	"github.com/netcensus/netcensus/pkg/util"
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the devices of the inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, source, err := loadDevices(cmd.Context(), loadSettings())
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Printf("%s no devices in %s\n", yellow("⚠"), source)
				return nil
			}

			fmt.Printf("Inventory: %s\n\n", source)
			t := cli.NewTable("#", "NAME", "USER", "PASSWORD", "PARAMETERS")
			for i, d := range devices {
				params := d.Parameters()
				list := strings.Join(params, ", ")
				if len(params) == 0 {
					list = yellow("(none, skipped)")
				}
				t.Row(strconv.Itoa(i+1), d.Name, d.User, util.Mask(d.Password), list)
			}
			t.Flush()
			fmt.Printf("\nTotal devices: %d\n", len(devices))
			return nil
		},
	}
}
