package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/netcensus/netcensus/pkg/audit"
	"github.com/netcensus/netcensus/pkg/automation"
	"github.com/netcensus/netcensus/pkg/executor"
	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/publish"
	"github.com/netcensus/netcensus/pkg/report"
	"github.com/netcensus/netcensus/pkg/settings"
	"github.com/netcensus/netcensus/pkg/transport"
	"github.com/netcensus/netcensus/pkg/util"
)

// historyRotation keeps the run history to about 60 MiB.
var historyRotation = audit.RotationConfig{MaxSize: 10 << 20, MaxBackups: 5}

// runOptions holds the run command flags. Zero values fall back to settings.
type runOptions struct {
	jump        jumpFlags
	outputDir   string
	concurrency int
	timeout     time.Duration
	readTimeout time.Duration
	template    string
	prompt      string
	uploadDir   string
	noHistory   bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Query every device and write a report",
		Long: `Connect to every device in the inventory, run the include command once
per parameter and write output_<timestamp>.txt to the output directory.

A device that cannot be reached fails all of its parameters; a command that
fails fails only its own parameter. The run always continues with the next
device.

Examples:
  netcensus run -i devices.csv
  netcensus run --jump-host bastion --jump-user ops
  netcensus run --jump-host bastion --upload-dir /srv/reports
  netcensus run --redis -c 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runAutomation(ctx, loadSettings(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.jump.host, "jump-host", "", "jump host (host or host:port)")
	f.StringVar(&opts.jump.user, "jump-user", "", "jump host user")
	f.StringVar(&opts.jump.password, "jump-pass", "", "jump host password (prompted when omitted)")
	f.StringVarP(&opts.outputDir, "output", "o", "", "report directory")
	f.IntVarP(&opts.concurrency, "concurrency", "c", 0, "devices processed at once")
	f.DurationVar(&opts.timeout, "timeout", 0, "connection timeout per step")
	f.DurationVar(&opts.readTimeout, "read-timeout", 0, "timeout waiting for a command's output")
	f.StringVar(&opts.template, "template", "", "command template with one %s for the parameter")
	f.StringVar(&opts.prompt, "prompt", "", "regular expression matching the device prompt")
	f.StringVar(&opts.uploadDir, "upload-dir", "", "copy the report to this directory on the jump host over SFTP")
	f.BoolVar(&opts.noHistory, "no-history", false, "do not record results in the run history")

	return cmd
}

func runAutomation(ctx context.Context, s *settings.Settings, opts runOptions) error {
	devices, source, err := loadDevices(ctx, s)
	if err != nil {
		return err
	}
	if err := fillPasswords(devices, readPassword); err != nil {
		return err
	}

	jump, err := resolveJump(s, opts.jump, readPassword)
	if err != nil {
		return err
	}
	if opts.uploadDir != "" && jump == nil {
		return fmt.Errorf("--upload-dir needs a jump host to upload to")
	}

	mgr, exec, err := buildEngine(s, opts)
	if err != nil {
		return err
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = s.GetOutputDir()
	}
	runner := automation.NewRunner(mgr, exec, report.NewWriter(outputDir))
	runner.Progress = automation.NewConsoleProgress(verbose)
	runner.Concurrency = s.GetConcurrency()
	if opts.concurrency > 0 {
		runner.Concurrency = opts.concurrency
	}
	runner.User = os.Getenv("USER")

	if !opts.noHistory {
		history, err := audit.NewFileLogger(s.GetHistoryPath(), historyRotation)
		if err != nil {
			util.Warnf("run history disabled: %v", err)
		} else {
			defer history.Close()
			runner.History = history
		}
	}

	path, _, err := runner.Run(ctx, devices, jump)
	if errors.Is(err, util.ErrEmptyInput) {
		return fmt.Errorf("no devices in %s: add rows or run 'netcensus inventory init'", source)
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nResults saved to: %s\n", green(path))

	if opts.uploadDir != "" {
		return uploadReport(ctx, mgr, *jump, path, opts.uploadDir)
	}
	return nil
}

// buildEngine assembles the transport and executor from flags and settings.
func buildEngine(s *settings.Settings, opts runOptions) (*transport.Manager, *executor.Executor, error) {
	timeout := opts.timeout
	if timeout == 0 {
		d, err := s.GetConnectTimeout()
		if err != nil {
			return nil, nil, err
		}
		timeout = d
	}
	readTimeout := opts.readTimeout
	if readTimeout == 0 {
		d, err := s.GetReadTimeout()
		if err != nil {
			return nil, nil, err
		}
		readTimeout = d
	}

	prompt := opts.prompt
	if prompt == "" {
		prompt = s.PromptPattern
	}
	template := opts.template
	if template == "" {
		template = s.CommandTemplate
	}

	mgr, err := transport.NewManager(transport.Options{
		Timeout:       timeout,
		PromptPattern: prompt,
	})
	if err != nil {
		return nil, nil, err
	}
	exec, err := executor.New(executor.Config{
		Template:    template,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return mgr, exec, nil
}

func uploadReport(ctx context.Context, mgr *transport.Manager, jump model.JumpHost, path, dir string) error {
	client, err := mgr.Dial(ctx, jump)
	if err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}
	defer client.Close()

	remote, err := publish.Upload(client, path, dir)
	if err != nil {
		return fmt.Errorf("uploading report: %w", err)
	}
	fmt.Printf("Uploaded to: %s:%s\n", jump.Host, remote)
	return nil
}
