package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/SAP-F-2025/exam-service/internal/logging"
)

// maxLogRead caps how much of a log file is returned. Larger files are cut from the
// front at a line boundary.
const maxLogRead = 5 << 20

type logService struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

func NewLogService(dir string, logger *slog.Logger, now func() time.Time) LogService {
	if now == nil {
		now = time.Now
	}
	return &logService{dir: dir, logger: logger, now: now}
}

// Read returns the log file of date (YYYYMMDD), today's when date is empty.
func (s *logService) Read(ctx context.Context, date string) (*LogFile, error) {
	day := s.now()
	if date != "" {
		parsed, err := time.ParseInLocation("20060102", date, time.Local)
		if err != nil {
			return nil, NewValidationError("date", "must be formatted YYYYMMDD", date)
		}
		day = parsed
	}
	if s.dir == "" {
		return nil, ErrLogNotFound
	}

	path := logging.PathFor(s.dir, day)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLogNotFound
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	out := &LogFile{Date: day.Format("20060102"), Path: path, Size: info.Size()}
	if info.Size() <= maxLogRead {
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		out.Content = string(content)
	} else {
		// One extra byte tells whether the cut already falls on a line start.
		if _, err := f.Seek(info.Size()-maxLogRead-1, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek log file: %w", err)
		}
		content, err := io.ReadAll(io.LimitReader(f, maxLogRead+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		out.Content = string(fromLineStart(content))
		out.Truncated = true
	}

	s.logger.Info("Log file viewed", "date", out.Date, "size", out.Size, "truncated", out.Truncated)
	return out, nil
}

// fromLineStart drops the partial first line of a tail read whose first byte precedes
// the cut. Without any newline it drops that byte and any split UTF-8 sequence.
func fromLineStart(b []byte) []byte {
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		return b[i+1:]
	}
	if len(b) > 0 {
		b = b[1:]
	}
	for len(b) > 0 && !utf8.RuneStart(b[0]) {
		b = b[1:]
	}
	return b
}
