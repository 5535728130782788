package report

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/netcensus/netcensus/pkg/model"
)

var fixed = time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

func sampleReport() *model.Report {
	return &model.Report{Results: []model.CommandResult{
		model.NewSuccess("10.0.0.1", "ntp", []string{"ntp server 1.1.1.1", "ntp server 2.2.2.2"}),
		model.NewSuccess("10.0.0.1", "snmp", nil),
		model.NewFailure("10.0.0.2", "ntp", "authentication failed: 10.0.0.2:22: bad password"),
		model.NewSuccess("10.0.0.3", "aaa", []string{"aaa new-model"}),
	}}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), fixed); err != nil {
		t.Fatalf("Render: %v", err)
	}
	got := buf.String()

	for _, want := range []string{
		"NETWORK AUTOMATION RESULTS",
		"Generated: 2024-03-09 14:05:07",
		"Total commands executed: 4",
		"SUCCESSFUL RESULTS:",
		"  - Count for ntp in 10.0.0.1: 2\n",
		"  - Count for snmp in 10.0.0.1: 0\n",
		"  - Count for aaa in 10.0.0.3: 1\n",
		"ERRORS:",
		"  - 10.0.0.2 (ntp): authentication failed: 10.0.0.2:22: bad password\n",
		"  - Successful commands: 3\n",
		"  - Failed commands: 1\n",
		"  - Total lines found: 3\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q\n%s", want, got)
		}
	}

	if strings.Index(got, "SUCCESSFUL RESULTS:") > strings.Index(got, "ERRORS:") {
		t.Error("successes should precede errors")
	}
	if strings.Index(got, "Count for ntp") > strings.Index(got, "Count for aaa") {
		t.Error("successes not in report order")
	}
}

func TestRender_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	Render(&a, sampleReport(), fixed)
	Render(&b, sampleReport(), fixed)
	if a.String() != b.String() {
		t.Error("Render is not deterministic for the same input and time")
	}
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, &model.Report{}, fixed); err != nil {
		t.Fatalf("Render(empty): %v", err)
	}
	got := buf.String()

	for _, want := range []string{
		"Total commands executed: 0",
		"  - Successful commands: 0",
		"  - Failed commands: 0",
		"  - Total lines found: 0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("empty report missing %q", want)
		}
	}
	if strings.Contains(got, "SUCCESSFUL RESULTS:") || strings.Contains(got, "ERRORS:") {
		t.Errorf("empty report should omit result sections:\n%s", got)
	}
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	w := &Writer{Dir: dir, Now: func() time.Time { return fixed }}

	path, err := w.Write(sampleReport())
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if want := filepath.Join(dir, "output_20240309_140507.txt"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	Render(&buf, sampleReport(), fixed)
	if string(data) != buf.String() {
		t.Error("file content differs from Render output")
	}
}

func TestWriter_SameSecondKeepsEarlierReports(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Now: func() time.Time { return fixed }}

	var paths []string
	for i := 0; i < 3; i++ {
		path, err := w.Write(&model.Report{Results: []model.CommandResult{
			model.NewSuccess("core1", "ntp", make([]string, i)),
		}})
		if err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
		paths = append(paths, filepath.Base(path))
	}

	want := []string{"output_20240309_140507.txt", "output_20240309_140507_1.txt", "output_20240309_140507_2.txt"}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths = %q, want %q", paths, want)
			break
		}
	}
	first, err := os.ReadFile(filepath.Join(dir, want[0]))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), "Count for ntp in core1: 0") {
		t.Errorf("first report was overwritten:\n%s", first)
	}
}

func TestWriter_RenderFailureRemovesFile(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Now: func() time.Time { return fixed }}

	boom := errors.New("disk full")
	render = func(out io.Writer, r *model.Report, at time.Time) error {
		io.WriteString(out, "partial")
		return boom
	}
	defer func() { render = Render }()

	if _, err := w.Write(sampleReport()); !errors.Is(err, boom) {
		t.Fatalf("Write error = %v, want %v", err, boom)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("output dir holds %d files after a failed write, want 0", len(entries))
	}
}

func TestWriter_WriteBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWriter(filepath.Join(file, "reports"))
	if _, err := w.Write(&model.Report{}); err == nil {
		t.Error("expected error when output dir cannot be created")
	}
}

func TestFileName_Sortable(t *testing.T) {
	earlier := FileName(fixed)
	later := FileName(fixed.Add(90 * time.Minute))
	if !(earlier < later) {
		t.Errorf("FileName not sortable: %q >= %q", earlier, later)
	}
}
