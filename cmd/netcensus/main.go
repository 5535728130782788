// netcensus counts matching running-configuration lines across a fleet of
// network devices over SSH, optionally through a jump host, and writes a
// plain-text report.
//
// Usage:
//
//	netcensus run                        Query every device in the inventory
//	netcensus run --jump-host bastion    Reach devices through a jump host
//	netcensus devices                    List the inventory
//	netcensus inventory init             Create an empty inventory file
//	netcensus history                    Show past results
//	netcensus settings show              Show persistent settings
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/netcensus/netcensus/pkg/cli"
	"github.com/netcensus/netcensus/pkg/settings"
	"github.com/netcensus/netcensus/pkg/util"
	"github.com/netcensus/netcensus/pkg/version"
)

// inventoryEnv overrides the inventory path from settings.
const inventoryEnv = "NETCENSUS_INVENTORY"

var (
	inventoryPath string
	useRedis      bool
	verbose       bool
	noColor       bool
	logFormat     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("Error:"), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netcensus",
	Short:             "Count running-config lines across network devices",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `netcensus logs into every device of an inventory over SSH, runs
"show configuration running-config | include <parameter>" for each of the
device's comma-separated parameters and writes a report with the number of
matching lines.

Devices are reached directly or through a jump host:

  netcensus run -i devices.csv
  netcensus run -i devices.yaml --jump-host bastion --jump-user ops`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if err := util.SetLogFormat(logFormat); err != nil {
			return err
		}
		if noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
			cli.SetColor(false)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&inventoryPath, "inventory", "i", "", "inventory file (.yaml, .yml or .csv)")
	rootCmd.PersistentFlags().BoolVar(&useRedis, "redis", false, "use the shared Redis inventory instead of a file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log line format: text or json")

	rootCmd.AddCommand(
		newRunCmd(),
		newDevicesCmd(),
		newInventoryCmd(),
		newHistoryCmd(),
		newSettingsCmd(),
		newVersionCmd(),
	)
}

// loadSettings returns the persistent settings, or empty settings with a
// warning when the file cannot be read.
func loadSettings() *settings.Settings {
	s, err := settings.Load()
	if err != nil {
		util.Warnf("ignoring settings: %v", err)
		return &settings.Settings{}
	}
	return s
}

// resolveInventory resolves the inventory path from: -i flag > NETCENSUS_INVENTORY env > settings > default.
func resolveInventory(s *settings.Settings) string {
	if inventoryPath != "" {
		return inventoryPath
	}
	if v := os.Getenv(inventoryEnv); v != "" {
		return v
	}
	return s.GetInventory()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if version.Version == "dev" {
				fmt.Println("netcensus dev build (use 'make build' for version info)")
			} else {
				fmt.Printf("netcensus %s\n", version.Info())
			}
		},
	}
}

// Color helpers, delegating to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
