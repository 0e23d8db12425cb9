package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const dayLayout = "20060102"

// FileName is the name of the log file holding entries written on day.
func FileName(day time.Time) string {
	return day.Format(dayLayout) + ".log"
}

func PathFor(dir string, day time.Time) string {
	return filepath.Join(dir, FileName(day))
}

// DailyWriter appends to <dir>/YYYYMMDD.log and switches file when the local date changes.
// Each file is size-capped by lumberjack.
type DailyWriter struct {
	mu  sync.Mutex
	dir string
	now func() time.Time

	day string
	out *lumberjack.Logger

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return &DailyWriter{
		dir:        dir,
		now:        time.Now,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 30,
	}, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if day := now.Format(dayLayout); day != w.day || w.out == nil {
		if w.out != nil {
			_ = w.out.Close()
		}
		w.day = day
		w.out = &lumberjack.Logger{
			Filename:   PathFor(w.dir, now),
			MaxSize:    w.MaxSizeMB,
			MaxBackups: w.MaxBackups,
			MaxAge:     w.MaxAgeDays,
			Compress:   false,
		}
	}
	return w.out.Write(p)
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.out == nil {
		return nil
	}
	err := w.out.Close()
	w.out = nil
	return err
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type Options struct {
	Level slog.Level
	Dir   string
}

// New builds the service logger: JSON records to stdout and, when Dir is set, to the
// daily file. The returned closer flushes the file writer.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)
	if opts.Dir != "" {
		dw, err := NewDailyWriter(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, dw)
		closer = dw
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: opts.Level}))
	return logger, closer, nil
}
