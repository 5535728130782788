// Package automation drives a run across a device list: it opens one session
// per device, queries every parameter over it and collects the results into a
// report. A failing device never stops the run.
package automation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netcensus/netcensus/pkg/audit"
	"github.com/netcensus/netcensus/pkg/executor"
	"github.com/netcensus/netcensus/pkg/model"
	"github.com/netcensus/netcensus/pkg/transport"
	"github.com/netcensus/netcensus/pkg/util"
)

// Connector supplies the session factory for a run. *transport.Manager
// implements it.
type Connector interface {
	Factory(jump *model.JumpHost) transport.SessionFactory
}

// ReportWriter persists a finished report and returns where it went.
// *report.Writer implements it.
type ReportWriter interface {
	Write(r *model.Report) (string, error)
}

// Runner executes automation runs.
type Runner struct {
	connector Connector
	executor  *executor.Executor
	writer    ReportWriter

	// Progress receives per-device callbacks. Nil disables progress output.
	Progress ProgressReporter

	// History, when set, gets one event per command result.
	History audit.Logger

	// Concurrency is the number of devices processed at once. Values below
	// 2 process devices one after another.
	Concurrency int

	// User is recorded in history events.
	User string

	now func() time.Time
}

// NewRunner returns a sequential Runner without progress or history.
func NewRunner(c Connector, e *executor.Executor, w ReportWriter) *Runner {
	return &Runner{
		connector: c,
		executor:  e,
		writer:    w,
		now:       time.Now,
	}
}

// run carries the per-run state shared by device tasks.
type run struct {
	id      string
	via     string
	factory transport.SessionFactory
	total   int
}

// Run collects results for devices and writes the report. It returns the
// report location along with the report itself.
func (r *Runner) Run(ctx context.Context, devices []model.Device, jump *model.JumpHost) (string, *model.Report, error) {
	rep, err := r.Collect(ctx, devices, jump)
	if err != nil {
		return "", nil, err
	}

	path, err := r.writer.Write(rep)
	if err != nil {
		return "", rep, fmt.Errorf("writing report: %w", err)
	}
	util.WithField("path", path).Info("Report written")
	return path, rep, nil
}

// Collect queries every device and returns the results grouped per device in
// input order. Only an empty device list is an error; connection and command
// failures become failed results.
func (r *Runner) Collect(ctx context.Context, devices []model.Device, jump *model.JumpHost) (*model.Report, error) {
	if len(devices) == 0 {
		return nil, util.ErrEmptyInput
	}

	started := r.clock()
	rn := &run{
		id:      audit.NewRunID(started),
		factory: r.connector.Factory(jump),
		total:   len(devices),
	}
	if jump != nil {
		rn.via = jump.Host
	}

	util.WithFields(map[string]interface{}{
		"devices": len(devices),
		"via":     rn.via,
		"run":     rn.id,
	}).Info("Starting run")
	r.progress().RunStart(devices, jump)

	grouped := make([][]model.CommandResult, len(devices))
	if r.Concurrency < 2 {
		for i, dev := range devices {
			grouped[i] = r.device(ctx, rn, dev, i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.Concurrency)
		for i, dev := range devices {
			i, dev := i, dev
			g.Go(func() error {
				grouped[i] = r.device(ctx, rn, dev, i)
				return nil
			})
		}
		g.Wait()
	}

	rep := &model.Report{Started: started}
	for _, results := range grouped {
		rep.Results = append(rep.Results, results...)
	}
	rep.Finished = r.clock()

	r.progress().RunEnd(rep, rep.Finished.Sub(rep.Started))
	return rep, nil
}

// device processes one device. Devices without parameters yield no results.
func (r *Runner) device(ctx context.Context, rn *run, dev model.Device, index int) []model.CommandResult {
	params := dev.Parameters()
	if len(params) == 0 {
		util.WithDevice(dev.Name).Warn("No parameters defined, skipping")
		r.progress().DeviceSkipped(dev, index, rn.total)
		return nil
	}

	r.progress().DeviceStart(dev, index, rn.total)
	results, err := r.query(ctx, rn, dev, params)
	r.progress().DeviceEnd(dev, results, err, index, rn.total)
	return results
}

// query opens the device session and runs each parameter over it. A failed
// open fails every parameter with the same message.
func (r *Runner) query(ctx context.Context, rn *run, dev model.Device, params []string) ([]model.CommandResult, error) {
	log := util.WithDevice(dev.Name)

	sess, err := rn.factory.Open(ctx, dev)
	if err != nil {
		log.WithField("kind", util.Kind(err)).Errorf("Connection failed: %v", err)
		results := model.FailAll(dev.Name, params, err.Error())
		for _, res := range results {
			r.record(rn, res, 0)
		}
		return results, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debugf("closing session: %v", cerr)
		}
	}()
	log.Info("Connected")

	results := make([]model.CommandResult, 0, len(params))
	for _, p := range params {
		start := time.Now()
		res := r.executor.Run(ctx, sess, dev.Name, p)
		r.record(rn, res, time.Since(start))
		results = append(results, res)
	}
	return results, nil
}

// record appends res to the history. History failures are logged and
// otherwise ignored.
func (r *Runner) record(rn *run, res model.CommandResult, took time.Duration) {
	if r.History == nil {
		return
	}
	event := audit.FromResult(rn.id, res).
		WithUser(r.User).
		WithVia(rn.via).
		WithDuration(took)
	if err := r.History.Log(event); err != nil {
		util.WithCommand(res.DeviceName, res.Parameter).Warnf("history: %v", err)
	}
}

func (r *Runner) progress() ProgressReporter {
	if r.Progress == nil {
		return nopProgress{}
	}
	return r.Progress
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
