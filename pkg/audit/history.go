package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/netcensus/netcensus/pkg/util"
)

// Logger records history events and answers queries over them.
type Logger interface {
	Log(event *Event) error
	Query(filter Filter) ([]*Event, error)
	Close() error
}

// RotationConfig bounds the history file. With MaxSize set, a file that
// reaches MaxSize bytes is renamed to <path>.1, older backups shift up by
// one and at most MaxBackups are kept.
type RotationConfig struct {
	MaxSize    int64
	MaxBackups int
}

// DefaultMaxBackups applies when rotation is enabled without MaxBackups.
const DefaultMaxBackups = 3

// FileLogger keeps events as JSON lines in one file plus its rotated
// backups. It is safe for concurrent use.
type FileLogger struct {
	path     string
	rotation RotationConfig

	mu   sync.RWMutex
	file *os.File
	enc  *json.Encoder
}

// NewFileLogger opens the history file at path for appending, creating it
// and its directory when missing.
func NewFileLogger(path string, rotation RotationConfig) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}
	if rotation.MaxSize > 0 && rotation.MaxBackups <= 0 {
		rotation.MaxBackups = DefaultMaxBackups
	}

	l := &FileLogger{path: path, rotation: rotation}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	l.file = f
	l.enc = json.NewEncoder(f)
	return nil
}

// Log appends event, rotating first when the file is full.
func (l *FileLogger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return fmt.Errorf("history %s is closed", l.path)
	}
	if l.full() {
		if err := l.rotate(); err != nil {
			return fmt.Errorf("rotating history: %w", err)
		}
	}
	return l.enc.Encode(event)
}

func (l *FileLogger) full() bool {
	if l.rotation.MaxSize <= 0 {
		return false
	}
	info, err := l.file.Stat()
	return err == nil && info.Size() >= l.rotation.MaxSize
}

// backup returns the name of the n-th most recent backup.
func (l *FileLogger) backup(n int) string {
	return l.path + "." + strconv.Itoa(n)
}

func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil

	os.Remove(l.backup(l.rotation.MaxBackups))
	for n := l.rotation.MaxBackups - 1; n >= 1; n-- {
		if err := os.Rename(l.backup(n), l.backup(n+1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.Rename(l.path, l.backup(1)); err != nil {
		return err
	}
	return l.open()
}

// Query returns the events matching filter across the current file and its
// backups, newest first. Offset and Limit apply after ordering.
func (l *FileLogger) Query(filter Filter) ([]*Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	files := []string{l.path}
	for n := 1; n <= l.rotation.MaxBackups; n++ {
		files = append(files, l.backup(n))
	}

	events := []*Event{}
	for _, path := range files {
		found, err := readEvents(path, filter)
		if err != nil {
			return nil, err
		}
		events = append(events, found...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	return filter.page(events), nil
}

// readEvents scans one JSON-lines file. A missing file holds no events;
// malformed lines are skipped with a warning.
func readEvents(path string, filter Filter) ([]*Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []*Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			util.Warnf("history %s: skipping malformed entry at line %d: %v", filepath.Base(path), line, err)
			continue
		}
		if filter.Match(&e) {
			events = append(events, &e)
		}
	}
	return events, sc.Err()
}

// Close closes the history file. Close is idempotent.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
