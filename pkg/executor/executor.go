// Package executor runs the audit command for one parameter over an open
// device session and turns its output into a CommandResult.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/netcensus/netcensus/pkg/filter"
	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/transport"
	"github.com/netcensus/netcensus/pkg/util"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultTemplate    = "show configuration running-config | include %s"
	DefaultReadTimeout = 20 * time.Second
	DefaultPace        = 500 * time.Millisecond
)

// rejectMarkers are printed by device CLIs when a command is refused.
var rejectMarkers = []string{
	"% Invalid input",
	"% Incomplete command",
	"% Ambiguous command",
	"% Unknown command",
}

// Config controls how commands are built and paced.
type Config struct {
	// Template is a fmt format with a single %s for the parameter.
	Template string
	// ReadTimeout bounds the wait for the prompt after each command.
	ReadTimeout time.Duration
	// Pace is slept after every command. Negative disables pacing.
	Pace time.Duration
}

// Executor runs one templated command per parameter.
type Executor struct {
	cfg Config
}

// New returns an Executor with defaults filled in.
func New(cfg Config) (*Executor, error) {
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	if strings.Count(cfg.Template, "%s") != 1 {
		return nil, fmt.Errorf("command template %q must contain exactly one %%s", cfg.Template)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Pace == 0 {
		cfg.Pace = DefaultPace
	}
	return &Executor{cfg: cfg}, nil
}

// Command returns the CLI command sent for parameter.
func (e *Executor) Command(parameter string) string {
	return fmt.Sprintf(e.cfg.Template, parameter)
}

// Run sends the command for parameter over sess. It never returns an error:
// a failed command becomes a failed CommandResult so the caller can go on
// with the next parameter.
func (e *Executor) Run(ctx context.Context, sess transport.Session, device, parameter string) model.CommandResult {
	log := util.WithCommand(device, parameter)
	command := e.Command(parameter)
	log.Debugf("sending %q", command)

	output, err := sess.Send(ctx, command, e.cfg.ReadTimeout)
	if err == nil {
		err = rejected(output)
	}
	e.pace(ctx)

	if err != nil {
		cerr := &CommandError{Parameter: parameter, Command: command, Err: err}
		log.Warnf("%v", cerr)
		return model.NewFailure(device, parameter, cerr.Error())
	}

	lines, count := filter.Filter(output)
	log.Debugf("%d matching lines", count)
	return model.NewSuccess(device, parameter, lines)
}

// RunAll runs every parameter in order over the same session.
func (e *Executor) RunAll(ctx context.Context, sess transport.Session, device string, parameters []string) []model.CommandResult {
	results := make([]model.CommandResult, 0, len(parameters))
	for _, p := range parameters {
		results = append(results, e.Run(ctx, sess, device, p))
	}
	return results
}

func (e *Executor) pace(ctx context.Context) {
	if e.cfg.Pace <= 0 {
		return
	}
	t := time.NewTimer(e.cfg.Pace)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// rejected reports the device's own error line when the CLI refused the command.
func rejected(output string) error {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range rejectMarkers {
			if strings.HasPrefix(line, m) {
				return fmt.Errorf("device rejected command: %s", line)
			}
		}
	}
	return nil
}
