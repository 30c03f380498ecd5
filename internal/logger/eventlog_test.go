package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogAppendsLines(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	require.NoError(t, err)
	log.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	log.Log(RequestLog, "GET\t/notes\thttp://localhost:3000")
	log.Log(RequestLog, "POST\t/auth\t")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(filepath.Join(dir, RequestLog))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 6)
	assert.Equal(t, "20260304", fields[0])
	assert.Equal(t, "05:06:07", fields[1])
	assert.Len(t, fields[2], 36)
	assert.Equal(t, "GET", fields[3])
	assert.Equal(t, "/notes", fields[4])
}

func TestEventLogDropsLinesAfterClose(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	require.NoError(t, err)

	log.Log(RequestLog, "before")
	require.NoError(t, log.Close())
	log.Log(RequestLog, "after")
	log.Log(AuthLog, "after")

	assert.Empty(t, log.files)
	_, err = os.Stat(filepath.Join(dir, AuthLog))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(dir, RequestLog))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "after")
}

func TestEventLogNilIsNoop(t *testing.T) {
	var log *EventLog
	log.Log(ErrorLog, "ignored")
	assert.NoError(t, log.Close())
}

func TestNewEventLogRequiresDir(t *testing.T) {
	_, err := NewEventLog(" ")
	assert.Error(t, err)
}
