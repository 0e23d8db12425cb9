package importer

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// Structurer turns one raw block into the completion service's reply text.
type Structurer interface {
	Structure(ctx context.Context, block string) (string, error)
}

// Recorder receives one observation per processed block.
type Recorder interface {
	ObserveImportBlock(status string)
}

// RecordResult is the outcome of one block. Question is set for accepted blocks only.
type RecordResult struct {
	Index         int                 `json:"index"`
	Status        RecordStatus        `json:"status"`
	Reason        string              `json:"reason,omitempty"`
	Type          models.QuestionType `json:"type,omitempty"`
	RawType       string              `json:"raw_type,omitempty"`
	TypeDefaulted bool                `json:"type_defaulted,omitempty"`
	QuestionID    uint                `json:"question_id,omitempty"`

	Parsed *ParseResult `json:"-"`
}

type Pipeline struct {
	structurer Structurer
	recorder   Recorder
	logger     *slog.Logger
}

func NewPipeline(structurer Structurer, recorder Recorder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{structurer: structurer, recorder: recorder, logger: logger}
}

// Run structures, normalizes and parses every block sequentially. A failure on one
// block never stops the others; only cancellation of ctx does, in which case the
// partial results are returned together with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, blocks []RawBlock) ([]RecordResult, error) {
	results := make([]RecordResult, 0, len(blocks))

	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := p.processBlock(ctx, block)
		if p.recorder != nil {
			p.recorder.ObserveImportBlock(string(result.Status))
		}
		results = append(results, result)
	}

	return results, nil
}

func (p *Pipeline) processBlock(ctx context.Context, block RawBlock) RecordResult {
	result := RecordResult{Index: block.Index}

	reply, err := p.structurer.Structure(ctx, block.Text)
	if err != nil {
		p.logger.Warn("Question recognition failed", "block", block.Index, "error", err)
		result.Status = StatusRecognitionFailed
		result.Reason = err.Error()
		return result
	}

	parsed := Parse(Normalize(reply))
	result.Status = parsed.Status
	result.Reason = parsed.Reason

	switch parsed.Status {
	case StatusParseFailed:
		p.logger.Warn("Discarding unparsable reply", "block", block.Index, "reason", parsed.Reason)
	case StatusRejected:
		p.logger.Warn("Discarding invalid question", "block", block.Index, "reason", parsed.Reason)
	case StatusAccepted:
		result.Type = parsed.Type
		result.RawType = parsed.Question.QuestionType
		result.TypeDefaulted = parsed.TypeDefaulted
		result.Parsed = &parsed
		if parsed.TypeDefaulted {
			p.logger.Warn("Unrecognized question type, storing as subjective",
				"block", block.Index, "raw_type", parsed.Question.QuestionType)
		}
	}

	return result
}

// Accepted filters results down to the blocks ready to be stored.
func Accepted(results []RecordResult) []*RecordResult {
	var out []*RecordResult
	for i := range results {
		if results[i].Status == StatusAccepted {
			out = append(out, &results[i])
		}
	}
	return out
}
