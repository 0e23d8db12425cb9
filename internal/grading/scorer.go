package grading

import (
	"strconv"

	"github.com/SAP-F-2025/exam-service/internal/models"
)

// Outcome of scoring one answer.
type Outcome struct {
	Score   float64
	Correct bool
}

// CorrectSet returns the ids of the options flagged correct, keyed by their decimal form
// so they compare directly against stored selections.
func CorrectSet(q *models.Question) map[string]struct{} {
	set := make(map[string]struct{})
	for _, id := range q.CorrectOptionIDs() {
		set[strconv.FormatUint(uint64(id), 10)] = struct{}{}
	}
	return set
}

// SelectionSet returns the ids an answer selected for a question of type t.
func SelectionSet(t models.QuestionType, a *models.StudentAnswer) map[string]struct{} {
	set := make(map[string]struct{})
	switch t {
	case models.MultipleChoice:
		for _, tok := range models.SplitOptionIDs(a.SelectedOptionIDs) {
			set[tok] = struct{}{}
		}
	default:
		if a.SelectedOptionID != nil {
			set[strconv.FormatUint(uint64(*a.SelectedOptionID), 10)] = struct{}{}
		}
	}
	return set
}

// ScoreObjective scores a single-choice, true/false or multiple-choice answer.
// Single-choice and true/false are correct when the selected id is in the correct set;
// multiple-choice only when both sets are equal. A question with no correct option
// never awards points. ok is false for types that need a human grader.
func ScoreObjective(q *models.Question, a *models.StudentAnswer, points int) (out Outcome, ok bool) {
	if !q.Type.IsObjective() {
		return Outcome{}, false
	}

	correct := CorrectSet(q)
	if len(correct) == 0 {
		return Outcome{}, true
	}
	selected := SelectionSet(q.Type, a)

	var hit bool
	switch q.Type {
	case models.MultipleChoice:
		hit = setsEqual(selected, correct)
	default:
		if len(selected) == 1 {
			for id := range selected {
				_, hit = correct[id]
			}
		}
	}

	if !hit {
		return Outcome{}, true
	}
	return Outcome{Score: float64(points), Correct: true}, true
}

// IsCorrect reports whether an objective answer matches the correct set, independent of points.
func IsCorrect(q *models.Question, a *models.StudentAnswer) bool {
	out, ok := ScoreObjective(q, a, 1)
	return ok && out.Correct
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// Sum adds up the stored scores of answers; ungraded answers count as zero.
func Sum(answers []models.StudentAnswer) float64 {
	var total float64
	for i := range answers {
		total += answers[i].ScoreValue()
	}
	return total
}
