package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/netcensus/netcensus/pkg/audit"
	"github.com/netcensus/netcensus/pkg/cli"
)

func newHistoryCmd() *cobra.Command {
	var (
		filter audit.Filter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show results of past runs",
		Long: `Show the per-parameter results recorded by past runs.

Examples:
  netcensus history --device 10.0.0.1
  netcensus history --param ntp --since 24h
  netcensus history --failed --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filter.SuccessOnly && filter.FailureOnly {
				return fmt.Errorf("--ok and --failed are mutually exclusive")
			}
			if since > 0 {
				filter.StartTime = time.Now().Add(-since)
			}

			s := loadSettings()
			logger, err := audit.NewFileLogger(s.GetHistoryPath(), historyRotation)
			if err != nil {
				return err
			}
			defer logger.Close()

			events, err := logger.Query(filter)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}
			if len(events) == 0 {
				fmt.Println("No matching results.")
				return nil
			}

			t := cli.NewTable("TIME", "RUN", "DEVICE", "PARAMETER", "STATUS", "RESULT")
			for _, e := range events {
				result := strconv.Itoa(e.LineCount) + " lines"
				if !e.Success {
					result = e.Error
				}
				t.Row(e.Timestamp.Format("2006-01-02 15:04:05"), e.RunID, e.Device, e.Parameter, cli.Status(e.Success), result)
			}
			t.Flush()
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.Device, "device", "", "only this device")
	f.StringVar(&filter.Parameter, "param", "", "only this parameter")
	f.StringVar(&filter.RunID, "run", "", "only this run")
	f.BoolVar(&filter.SuccessOnly, "ok", false, "only successful results")
	f.BoolVar(&filter.FailureOnly, "failed", false, "only failed results")
	f.DurationVar(&since, "since", 0, "only results newer than this duration")
	f.IntVar(&filter.Limit, "limit", 0, "maximum number of results")
	f.IntVar(&filter.Offset, "offset", 0, "skip this many results")
	return cmd
}
