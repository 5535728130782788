package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/netcensus/netcensus/pkg/cli"
	"github.com/netcensus/netcensus/pkg/settings"
	"github.com/netcensus/netcensus/pkg/transport"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage persistent settings",
		Long: `Manage persistent settings stored in ~/.netcensus/settings.json.

Settings provide defaults for run flags. Passwords are never stored.

Examples:
  netcensus settings show
  netcensus settings set inventory /srv/netcensus/devices.yaml
  netcensus settings set jump_host bastion.example.net
  netcensus settings set connect_timeout 45s
  netcensus settings clear`,
	}

	cmd.AddCommand(
		newSettingsShowCmd(),
		newSettingsSetCmd(),
		newSettingsClearCmd(),
	)
	return cmd
}

func newSettingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}

			fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

			t := cli.NewTable("SETTING", "VALUE")
			for _, row := range settingRows(s) {
				t.Row(row[0], row[1])
			}
			t.Flush()
			return nil
		},
	}
}

// settingRows lists every setting with its stored value, or the effective
// default in dim text when unset.
func settingRows(s *settings.Settings) [][2]string {
	value := func(v, fallback string) string {
		if v != "" {
			return v
		}
		if fallback != "" {
			return cli.Dim(fallback + " (default)")
		}
		return "(not set)"
	}
	num := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}

	return [][2]string{
		{"inventory", value(s.Inventory, settings.DefaultInventory)},
		{"output_dir", value(s.OutputDir, settings.DefaultOutputDir)},
		{"jump_host", value(s.JumpHost, "")},
		{"jump_user", value(s.JumpUser, "")},
		{"connect_timeout", value(s.ConnectTimeout, "30s")},
		{"read_timeout", value(s.ReadTimeout, "20s")},
		{"command_template", value(s.CommandTemplate, "show configuration running-config | include %s")},
		{"prompt_pattern", value(s.PromptPattern, transport.DefaultPromptPattern)},
		{"redis_addr", value(s.RedisAddr, "")},
		{"redis_db", value(num(s.RedisDB), "0")},
		{"concurrency", value(num(s.Concurrency), "1")},
		{"history_path", value(s.HistoryPath, settings.DefaultHistoryPath())},
	}
}

func newSettingsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <setting> <value>",
		Short: "Set a setting value",
		Long: `Set a persistent setting value. An empty value resets the setting.

Available settings: ` + fmt.Sprint(settings.Keys()),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				s = &settings.Settings{}
			}

			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			fmt.Printf("%s set to: %s\n", args[0], args[1])
			return nil
		},
	}
}

func newSettingsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &settings.Settings{}
			if err := s.Save(); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			fmt.Println("Settings cleared.")
			return nil
		},
	}
}
