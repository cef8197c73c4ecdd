// Package log builds the process slog.Logger: a JSON handler writing to stderr or to a
// log file that is reopened on SIGHUP.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// ParseLevel maps a level name to a slog level. "none" disables logging and is
// reported with ok=false.
func ParseLevel(s string) (level slog.Level, ok bool, err error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "error":
		return slog.LevelError, true, nil
	case "none", "":
		return 0, false, nil
	}
	return 0, false, fmt.Errorf("unknown log level %q (want debug, info, warn, error or none)", s)
}

// FileWriter appends to a log file and can reopen it after the file was rotated away.
type FileWriter struct {
	path string
	f    *os.File
	mu   sync.Mutex
	sigs chan os.Signal
}

func OpenFile(path string) (*FileWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for '%s': %w", path, err)
	}
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{path: path, f: f}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file '%s': %w", path, err)
	}
	return f, nil
}

func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Write(p)
}

// Reopen closes the current handle and opens the path again, creating a fresh file if
// the old one was moved.
func (w *FileWriter) Reopen() error {
	f, err := openAppend(w.path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	old := w.f
	w.f = f
	w.mu.Unlock()
	return old.Close()
}

// WatchSIGHUP reopens the file whenever the process receives SIGHUP:
//
//	mv kidcode.log kidcode.bak && kill -HUP <pid>
func (w *FileWriter) WatchSIGHUP() {
	w.sigs = make(chan os.Signal, 1)
	signal.Notify(w.sigs, syscall.SIGHUP)
	go func(sigs chan os.Signal) {
		for range sigs {
			if err := w.Reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "could not reopen log file: %v\n", err)
			}
		}
	}(w.sigs)
}

func (w *FileWriter) Close() error {
	if w.sigs != nil {
		signal.Stop(w.sigs)
		close(w.sigs)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a JSON logger for level, writing to file when it is set and to stderr
// otherwise. The closer releases the log file.
func New(level, file string) (*slog.Logger, io.Closer, error) {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if !enabled {
		return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})), nopCloser{}, nil
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		fw, err := OpenFile(file)
		if err != nil {
			return nil, nil, err
		}
		fw.WatchSIGHUP()
		out, closer = fw, fw
	}

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     lvl,
	}
	return slog.New(slog.NewJSONHandler(out, loggerOptions)), closer, nil
}
