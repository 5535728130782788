// Package report writes the plain-text result file of an automation run.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/netcensus/netcensus/pkg/model"
)

// Timestamp layouts used in the report body and file name.
const (
	DateTimeFormat = "2006-01-02 15:04:05"
	FileTimeFormat = "20060102_150405"
)

const width = 70

var (
	rule  = strings.Repeat("=", width)
	dash  = strings.Repeat("-", width)
	title = "NETWORK AUTOMATION RESULTS"
)

// Writer writes one report file per run into Dir.
type Writer struct {
	Dir string
	// Now returns the generation time. Defaults to time.Now.
	Now func() time.Time
}

// NewWriter returns a Writer for dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Now: time.Now}
}

// FileName returns the report file name for a generation time.
func FileName(at time.Time) string {
	return "output_" + at.Format(FileTimeFormat) + ".txt"
}

// maxSameSecond bounds the suffixes tried when reports share a timestamp.
const maxSameSecond = 100

// render is Render, replaceable in tests.
var render = Render

// Write renders r into a new timestamped file and returns its path. An
// existing report is never overwritten: a second report in the same second
// gets a "_1" suffix, and so on. A report that fails to render is removed.
func (w *Writer) Write(r *model.Report) (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	at := now()

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	f, path, err := w.create(at)
	if err != nil {
		return "", err
	}

	if err := render(f, r, at); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing report %s: %w", path, err)
	}
	return path, nil
}

// create exclusively opens the first free report name for at.
func (w *Writer) create(at time.Time) (*os.File, string, error) {
	base := strings.TrimSuffix(FileName(at), ".txt")
	for n := 0; n < maxSameSecond; n++ {
		name := base + ".txt"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.txt", base, n)
		}
		path := filepath.Join(w.Dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("creating report: %w", err)
		}
	}
	return nil, "", fmt.Errorf("creating report: %d reports already written at %s", maxSameSecond, at.Format(DateTimeFormat))
}

// Render writes the report text for r generated at the given time. Empty
// sections are left out; the header and summary are always present.
func Render(out io.Writer, r *model.Report, at time.Time) error {
	w := bufio.NewWriter(out)
	sum := r.Summary()

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s\n", center(title, width))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Generated: %s\n", at.Format(DateTimeFormat))
	fmt.Fprintf(w, "Total commands executed: %d\n", sum.Total)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if ok := r.Successes(); len(ok) > 0 {
		fmt.Fprintln(w, "SUCCESSFUL RESULTS:")
		fmt.Fprintln(w, dash)
		for _, res := range ok {
			fmt.Fprintf(w, "  - Count for %s in %s: %d\n", res.Parameter, res.DeviceName, res.LineCount)
		}
		fmt.Fprintln(w)
	}

	if failed := r.Failures(); len(failed) > 0 {
		fmt.Fprintln(w, "ERRORS:")
		fmt.Fprintln(w, dash)
		for _, res := range failed {
			fmt.Fprintf(w, "  - %s (%s): %s\n", res.DeviceName, res.Parameter, res.ErrorMessage)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SUMMARY:")
	fmt.Fprintf(w, "  - Successful commands: %d\n", sum.Succeeded)
	fmt.Fprintf(w, "  - Failed commands: %d\n", sum.Failed)
	fmt.Fprintf(w, "  - Total lines found: %d\n", sum.TotalLines)
	fmt.Fprintln(w, rule)

	return w.Flush()
}

func center(s string, n int) string {
	if len(s) >= n {
		return s
	}
	left := (n - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", n-len(s)-left)
}
