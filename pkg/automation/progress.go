package automation

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/netcensus/netcensus/pkg/cli"
	"github.com/netcensus/netcensus/pkg/model"
)

// ProgressReporter receives lifecycle callbacks during a run. With
// Concurrency above 1 the device callbacks arrive from several goroutines.
type ProgressReporter interface {
	RunStart(devices []model.Device, jump *model.JumpHost)
	DeviceStart(dev model.Device, index, total int)
	DeviceSkipped(dev model.Device, index, total int)
	DeviceEnd(dev model.Device, results []model.CommandResult, connErr error, index, total int)
	RunEnd(report *model.Report, duration time.Duration)
}

type nopProgress struct{}

func (nopProgress) RunStart([]model.Device, *model.JumpHost)                       {}
func (nopProgress) DeviceStart(model.Device, int, int)                             {}
func (nopProgress) DeviceSkipped(model.Device, int, int)                           {}
func (nopProgress) DeviceEnd(model.Device, []model.CommandResult, error, int, int) {}
func (nopProgress) RunEnd(*model.Report, time.Duration)                            {}

// ConsoleProgress is an append-only terminal progress reporter. Each device
// is printed as one block once it finishes, so concurrent devices never
// interleave.
type ConsoleProgress struct {
	W       io.Writer
	Verbose bool

	mu       sync.Mutex
	dotWidth int
}

// NewConsoleProgress creates a ConsoleProgress writing to stdout.
func NewConsoleProgress(verbose bool) *ConsoleProgress {
	return &ConsoleProgress{
		W:       os.Stdout,
		Verbose: verbose,
	}
}

func (p *ConsoleProgress) RunStart(devices []model.Device, jump *model.JumpHost) {
	p.mu.Lock()
	defer p.mu.Unlock()

	maxName := 0
	for _, d := range devices {
		if len(d.Name) > maxName {
			maxName = len(d.Name)
		}
	}
	p.dotWidth = maxName + 6

	via := "direct"
	if jump != nil {
		via = "via " + jump.Host
	}
	fmt.Fprintf(p.W, "\nnetcensus: %d devices, %s\n\n", len(devices), via)

	fmt.Fprintf(p.W, "  %-4s  %-*s  %s\n", "#", p.dotWidth-6, "DEVICE", "PARAMETERS")
	for i, d := range devices {
		params := d.Parameters()
		list := strings.Join(params, ", ")
		if len(params) == 0 {
			list = cli.Dim("(none)")
		}
		fmt.Fprintf(p.W, "  %-4d  %-*s  %s\n", i+1, p.dotWidth-6, d.Name, list)
	}
	fmt.Fprintln(p.W)
}

func (p *ConsoleProgress) DeviceStart(dev model.Device, index, total int) {
	// Printed as a block in DeviceEnd
}

func (p *ConsoleProgress) DeviceSkipped(dev model.Device, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tag := fmt.Sprintf("[%d/%d]", index+1, total)
	fmt.Fprintf(p.W, "  %-7s %s %s  %s\n", tag, cli.DotPad(dev.Name, p.dotWidth), cli.Yellow("SKIP"), cli.Dim("no parameters"))
}

func (p *ConsoleProgress) DeviceEnd(dev model.Device, results []model.CommandResult, connErr error, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tag := fmt.Sprintf("[%d/%d]", index+1, total)
	padded := cli.DotPad(dev.Name, p.dotWidth)

	if connErr != nil {
		fmt.Fprintf(p.W, "  %-7s %s %s\n", tag, padded, cli.Red("UNREACHABLE"))
		fmt.Fprintf(p.W, "          %s\n", cli.Dim(connErr.Error()))
		return
	}

	failed, lines := 0, 0
	for _, r := range results {
		if r.Success {
			lines += r.LineCount
		} else {
			failed++
		}
	}

	status := cli.Green("OK")
	if failed > 0 {
		status = cli.Red(fmt.Sprintf("%d/%d FAILED", failed, len(results)))
	}
	fmt.Fprintf(p.W, "  %-7s %s %s  (%d lines)\n", tag, padded, status, lines)

	for _, r := range results {
		switch {
		case !r.Success:
			fmt.Fprintf(p.W, "          %s %s\n", cli.DotPad(r.Parameter, p.dotWidth-4), cli.Red(r.ErrorMessage))
		case p.Verbose:
			fmt.Fprintf(p.W, "          %s %d\n", cli.DotPad(r.Parameter, p.dotWidth-4), r.LineCount)
			for _, l := range r.OutputLines {
				fmt.Fprintf(p.W, "              %s\n", cli.Dim(l))
			}
		}
	}
}

func (p *ConsoleProgress) RunEnd(report *model.Report, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sum := report.Summary()
	fmt.Fprintf(p.W, "\n---\n")
	fmt.Fprintf(p.W, "netcensus: %d commands", sum.Total)

	parts := []string{}
	if sum.Succeeded > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d succeeded", sum.Succeeded)))
	}
	if sum.Failed > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", sum.Failed)))
	}
	if len(parts) > 0 {
		fmt.Fprintf(p.W, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(p.W, ", %d lines  (%s)\n", sum.TotalLines, formatDuration(duration))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, s)
}
