package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/importer"
	"github.com/SAP-F-2025/exam-service/internal/lock"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/storage"
)

// ImportConfig bounds uploaded question files.
type ImportConfig struct {
	SkipHeader  bool
	MaxFileSize int64
}

const defaultMaxImportSize = 20 << 20

var contentTypes = map[string]string{
	importer.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	importer.FormatCSV:  "text/csv",
	importer.FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type importService struct {
	repo       repositories.Repository
	logger     *slog.Logger
	locker     lock.Locker
	publisher  events.EventPublisher
	storage    storage.Provider
	structurer importer.Structurer
	recorder   Recorder
	config     ImportConfig
}

func NewImportService(
	repo repositories.Repository,
	logger *slog.Logger,
	locker lock.Locker,
	publisher events.EventPublisher,
	store storage.Provider,
	structurer importer.Structurer,
	recorder Recorder,
	config ImportConfig,
) ImportService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if config.MaxFileSize <= 0 {
		config.MaxFileSize = defaultMaxImportSize
	}
	return &importService{
		repo:       repo,
		logger:     logger,
		locker:     locker,
		publisher:  publisher,
		storage:    store,
		structurer: structurer,
		recorder:   recorder,
		config:     config,
	}
}

// Import extracts question blocks from the file, structures each one through the
// completion service and stores the accepted questions in the bank in one
// transaction. Rejected blocks are reported, never stored.
func (s *importService) Import(ctx context.Context, req *ImportRequest) (*ImportReport, error) {
	s.logger.Info("Importing questions", "bank_id", req.BankID, "file_name", req.FileName, "user_id", req.UserID)

	format, err := importer.DetectFormat(req.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(req.FileName))
	}
	if s.structurer == nil {
		return nil, ErrStructurerDisabled
	}
	if _, err := s.repo.QuestionBank().GetByID(ctx, nil, req.BankID); err != nil {
		return nil, notFound(err, ErrQuestionBankNotFound, "get question bank")
	}

	data, err := io.ReadAll(io.LimitReader(req.File, s.config.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	if int64(len(data)) > s.config.MaxFileSize {
		return nil, NewValidationError("file", fmt.Sprintf("exceeds %d bytes", s.config.MaxFileSize), req.FileName)
	}

	blocks, err := importer.Extract(req.FileName, bytes.NewReader(data), importer.ExtractOptions{SkipHeader: s.config.SkipHeader})
	if err != nil {
		s.recorder.ObserveImport(string(models.ImportFailed))
		if errors.Is(err, importer.ErrUnsupportedFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidImportFile, err)
	}
	s.logger.Info("Extracted question blocks", "bank_id", req.BankID, "blocks", len(blocks))

	pipeline := importer.NewPipeline(s.structurer, s.recorder, s.logger)
	results, err := pipeline.Run(ctx, blocks)
	if err != nil {
		s.recorder.ObserveImport(string(models.ImportFailed))
		return nil, fmt.Errorf("import cancelled after %d of %d blocks: %w", len(results), len(blocks), err)
	}

	accepted := importer.Accepted(results)
	report := &ImportReport{
		BankID:   req.BankID,
		FileName: req.FileName,
		Total:    len(blocks),
		Imported: len(accepted),
		Skipped:  len(results) - len(accepted),
		Records:  results,
	}
	for _, r := range accepted {
		if r.TypeDefaulted {
			report.Defaulted++
		}
	}

	report.ObjectKey = s.archive(ctx, req, format, data)

	err = withLock(ctx, s.locker, s.logger, lock.BankKey(req.BankID), func() error {
		return s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
			questions := make([]*models.Question, len(accepted))
			for i, r := range accepted {
				questions[i] = r.Parsed.ToModel(req.BankID)
			}
			if err := tx.Question().CreateBatch(ctx, nil, questions); err != nil {
				return fmt.Errorf("failed to store questions: %w", err)
			}
			for i, q := range questions {
				accepted[i].QuestionID = q.ID
			}

			job := &models.ImportJob{
				BankID:      req.BankID,
				FileName:    req.FileName,
				ObjectKey:   report.ObjectKey,
				Status:      models.ImportCompleted,
				TotalBlocks: report.Total,
				Imported:    report.Imported,
				Skipped:     report.Skipped,
				CreatedBy:   req.UserID,
			}
			encoded, err := json.Marshal(report)
			if err != nil {
				return fmt.Errorf("failed to encode import report: %w", err)
			}
			job.Report = datatypes.JSON(encoded)
			if err := tx.ImportJob().Create(ctx, nil, job); err != nil {
				return fmt.Errorf("failed to record import job: %w", err)
			}
			report.JobID = job.ID
			return nil
		})
	})
	if err != nil {
		s.recorder.ObserveImport(string(models.ImportFailed))
		return nil, err
	}

	s.recorder.ObserveImport(string(models.ImportCompleted))
	publishEvent(ctx, s.publisher, s.logger, events.EventQuestionsImported, map[string]interface{}{
		"bank_id":   req.BankID,
		"job_id":    report.JobID,
		"file_name": req.FileName,
		"imported":  report.Imported,
		"skipped":   report.Skipped,
	})

	s.logger.Info("Import completed",
		"bank_id", req.BankID,
		"job_id", report.JobID,
		"total", report.Total,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"type_defaulted", report.Defaulted)
	return report, nil
}

// archive keeps a copy of the uploaded file. Storage failures do not fail the import.
func (s *importService) archive(ctx context.Context, req *ImportRequest, format string, data []byte) *string {
	if s.storage == nil {
		return nil
	}
	key := fmt.Sprintf("imports/%d/%s-%s", req.BankID, uuid.NewString(), filepath.Base(req.FileName))
	stored, err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypes[format])
	if err != nil {
		s.logger.Warn("Failed to archive import file", "bank_id", req.BankID, "key", key, "error", err)
		return nil
	}
	return &stored
}

func (s *importService) ListJobs(ctx context.Context, bankID uint, limit, offset int) ([]*models.ImportJob, int64, error) {
	if _, err := s.repo.QuestionBank().GetByID(ctx, nil, bankID); err != nil {
		return nil, 0, notFound(err, ErrQuestionBankNotFound, "get question bank")
	}
	jobs, total, err := s.repo.ImportJob().ListByBank(ctx, nil, bankID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list import jobs: %w", err)
	}
	return jobs, total, nil
}
