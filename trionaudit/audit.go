// Package trionaudit implements an append-only audit log: an optional file
// handle that every other Trion component can emit timestamped records to,
// falling through to standard error when no file is open.
package trionaudit

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"github.com/trion-lang/trion/trionerr"
)

// timeFormat is the on-disk record prefix: "[YYYY-MM-DD HH:MM:SS] message".
const timeFormat = "2006-01-02 15:04:05"

// Log is an append-only audit trail. The zero value routes every record to
// standard error - a Log never needs to be opened to be usable.
type Log struct {
	mu   sync.Mutex
	w    *bufio.Writer
	file *os.File
}

// Open replaces l's underlying file with path, opened in append mode,
// closing whatever was previously open. A fresh file is created atomically
// via renameio if path does not yet exist, so a concurrent second Open
// racing to create the same path never observes a half-truncated file.
func Open(l *Log, path string) error {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return trionerr.Wrap(err, "trionaudit: open: stat %s", path)
		}
		if err := renameio.WriteFile(path, nil, 0o644); err != nil {
			return trionerr.Wrap(err, "trionaudit: open: create %s", path)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return trionerr.Wrap(err, "trionaudit: open: %s", path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	closePrevLocked(l)
	l.file = f
	l.w = bufio.NewWriter(f)
	return nil
}

// Close drops l's file handle, if any, reverting to the standard-error
// fallback.
func Close(l *Log) {
	l.mu.Lock()
	defer l.mu.Unlock()
	closePrevLocked(l)
}

func closePrevLocked(l *Log) {
	if l.w != nil {
		l.w.Flush()
	}
	if l.file != nil {
		l.file.Close()
	}
	l.w = nil
	l.file = nil
}

// Logf formats and appends one record, flushing immediately after. If no
// file is open the record goes to standard error, unprefixed by a
// timestamp - only the on-disk form carries one.
func (l *Log) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	fmt.Fprintf(l.w, "[%s] %s\n", time.Now().Format(timeFormat), msg)
	l.w.Flush()
}

// Write implements io.Writer so a Log can back a zerolog.Logger directly,
// for components that want structured (JSON) operational logging
// interleaved with the plain-text audit trail on the same sink, rather than
// the fixed "[timestamp] message" record format Logf produces.
func (l *Log) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return os.Stderr.Write(p)
	}
	n, err := l.w.Write(p)
	l.w.Flush()
	return n, err
}

// Logger returns a zerolog.Logger that writes structured JSON events to the
// same sink as Logf, with its own timestamp field.
func (l *Log) Logger() zerolog.Logger {
	return zerolog.New(l).With().Timestamp().Logger()
}
