package logger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event log file names.
const (
	RequestLog = "reqLog.log"
	ErrorLog   = "errLog.log"
	DBErrorLog = "dbErrLog.log"
	AuthLog    = "authLog.log"
)

// EventLog appends tab-separated "date time id message" lines to named files
// under a directory. A nil or closed *EventLog discards everything.
type EventLog struct {
	dir    string
	mu     sync.Mutex
	files  map[string]*os.File
	closed bool
	now    func() time.Time
}

func NewEventLog(dir string) (*EventLog, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("event log directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare event log directory: %w", err)
	}

	return &EventLog{dir: dir, files: map[string]*os.File{}, now: time.Now}, nil
}

func (l *EventLog) Log(name string, message string) {
	if l == nil {
		return
	}

	line := fmt.Sprintf("%s\t%s\t%s\n", l.now().Format("20060102\t15:04:05"), uuid.NewString(), message)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	f, err := l.fileLocked(name)
	if err != nil {
		slog.Error("event log unavailable", "file", name, "error", err)
		return
	}

	if _, err := f.WriteString(line); err != nil {
		slog.Error("event log write failed", "file", name, "error", err)
	}
}

func (l *EventLog) fileLocked(name string) (*os.File, error) {
	if f, ok := l.files[name]; ok {
		return f, nil
	}

	f, err := os.OpenFile(filepath.Join(l.dir, filepath.Base(name)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	l.files[name] = f
	return f, nil
}

func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	var firstErr error
	for name, f := range l.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(l.files, name)
	}
	return firstErr
}
