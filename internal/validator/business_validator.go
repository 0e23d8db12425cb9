package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single failed rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	parts := make([]string, len(ve))
	for i, e := range ve {
		parts[i] = e.Field + " " + e.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ToValidationErrors converts validator/v10 output into ValidationErrors.
func ToValidationErrors(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "eqfield":
		return "must match " + fe.Param()
	case "question_type":
		return "is not a known question type"
	case "user_role":
		return "must be student, teacher or admin"
	case "account":
		return "may only contain letters, digits, '.', '_' and '-'"
	case "exam_window":
		return "must be after start_time"
	default:
		return "failed rule " + fe.Tag()
	}
}

var accountPattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,64}$`)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

func newBusinessValidator(validate *validator.Validate) *BusinessValidator {
	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()
	return bv
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	bv.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.QuestionType(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("account", func(fl validator.FieldLevel) bool {
		return accountPattern.MatchString(fl.Field().String())
	})

	bv.validate.RegisterStructValidation(func(sl validator.StructLevel) {
		req := sl.Current().Interface().(ExamCreateRequest)
		if req.StartTime.IsZero() {
			sl.ReportError(req.StartTime, "start_time", "StartTime", "required", "")
		}
		if req.EndTime.IsZero() {
			sl.ReportError(req.EndTime, "end_time", "EndTime", "required", "")
		}
		if !req.StartTime.IsZero() && !req.EndTime.IsZero() && !req.EndTime.After(req.StartTime.Time) {
			sl.ReportError(req.EndTime, "end_time", "EndTime", "exam_window", "")
		}
	}, ExamCreateRequest{})
}

// ValidateExamWindow checks the window produced by merging an update into a stored exam.
func (bv *BusinessValidator) ValidateExamWindow(start, end time.Time) ValidationErrors {
	if !end.After(start) {
		return ValidationErrors{{
			Field:   "end_time",
			Message: "must be after start_time",
			Value:   end,
			Rule:    "exam_window",
		}}
	}
	return nil
}

// ValidateOptions checks an option set against the question type. Objective
// questions need options with at least one flagged correct; single choice and
// true/false allow exactly one.
func (bv *BusinessValidator) ValidateOptions(qType models.QuestionType, options []OptionRequest) ValidationErrors {
	if !qType.IsObjective() {
		return nil
	}

	var errs ValidationErrors
	if len(options) == 0 {
		return append(errs, ValidationError{
			Field:   "options",
			Message: "objective questions need at least one option",
			Rule:    "business_logic",
		})
	}

	correct := 0
	for i, o := range options {
		if strings.TrimSpace(o.Text) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("options[%d].text", i),
				Message: "option text cannot be empty",
				Rule:    "business_logic",
			})
		}
		if o.IsCorrect {
			correct++
		}
	}

	switch {
	case correct == 0:
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "at least one option must be correct",
			Rule:    "business_logic",
		})
	case correct > 1 && qType != models.MultipleChoice:
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("%s questions take exactly one correct option", qType),
			Value:   correct,
			Rule:    "business_logic",
		})
	}

	if qType == models.TrueFalse && len(options) != 2 {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: "true/false questions take exactly two options",
			Value:   len(options),
			Rule:    "business_logic",
		})
	}

	return errs
}

// ValidateAssignments rejects duplicate questions in one assignment set.
func (bv *BusinessValidator) ValidateAssignments(reqs []ExamQuestionRequest) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[uint]int, len(reqs))
	for i, r := range reqs {
		if first, ok := seen[r.QuestionID]; ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("questions[%d].question_id", i),
				Message: fmt.Sprintf("duplicates questions[%d]", first),
				Value:   r.QuestionID,
				Rule:    "business_logic",
			})
			continue
		}
		seen[r.QuestionID] = i
	}
	return errs
}
