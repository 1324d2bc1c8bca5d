package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates the declared document format has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptedInput indicates a format reader could not parse the bytes at all.
	ErrCorruptedInput = errors.New("corrupted input")

	// ErrStructuralValidation indicates a template failed structural validation.
	ErrStructuralValidation = errors.New("structural validation failed")

	// ErrInvalidVerdict indicates a judgment value outside PASS, FAIL and NOT_APPLICABLE.
	ErrInvalidVerdict = errors.New("invalid verdict")

	// ErrTemplateNotPromotable indicates a lifecycle transition that is not allowed.
	ErrTemplateNotPromotable = errors.New("template cannot change status")

	// ErrClassifierUnavailable indicates no external classifier is configured.
	// Template generation and live audits are disabled without one.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// UnsupportedFormatError reports a declared format with no registered extractor.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", string(e.Format))
}

// Is matches ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// CorruptedInputError reports bytes the format-specific reader could not parse.
type CorruptedInputError struct {
	Format Format
	Err    error
}

func (e *CorruptedInputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("corrupted %s input", e.Format)
	}
	return fmt.Sprintf("corrupted %s input: %v", e.Format, e.Err)
}

// Is matches ErrCorruptedInput.
func (e *CorruptedInputError) Is(target error) bool {
	return target == ErrCorruptedInput
}

// Unwrap returns the underlying reader error.
func (e *CorruptedInputError) Unwrap() error {
	return e.Err
}

// IssueCode classifies a structural validation problem.
type IssueCode string

const (
	// IssueDuplicateCriterionID is a criterion id repeated anywhere in the template.
	IssueDuplicateCriterionID IssueCode = "duplicate_criterion_id"

	// IssueDuplicateCategoryID is a category id repeated in the template.
	IssueDuplicateCategoryID IssueCode = "duplicate_category_id"

	// IssueEmptyCategory is a category with no criteria.
	IssueEmptyCategory IssueCode = "empty_category"

	// IssueWeightOutOfRange is a weight that is not a finite number in [0, 1].
	IssueWeightOutOfRange IssueCode = "weight_out_of_range"

	// IssueMissingCriterionID is a criterion with an empty id.
	IssueMissingCriterionID IssueCode = "missing_criterion_id"

	// IssueNoCategories is a template with no categories at all.
	IssueNoCategories IssueCode = "no_categories"
)

// ValidationIssue is one independently reportable structural problem.
type ValidationIssue struct {
	Code    IssueCode `json:"code"`
	Path    string    `json:"path"`
	Message string    `json:"message"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Path, i.Message, i.Code)
}

// StructuralValidationError carries every issue found in one validation pass.
type StructuralValidationError struct {
	Issues []ValidationIssue
}

func (e *StructuralValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrStructuralValidation.Error()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%s: %s", ErrStructuralValidation.Error(), strings.Join(parts, "; "))
}

// Is matches ErrStructuralValidation.
func (e *StructuralValidationError) Is(target error) bool {
	return target == ErrStructuralValidation
}

// InvalidVerdictError reports a judgment value outside the verdict enum.
type InvalidVerdictError struct {
	CategoryID  string
	CriterionID string
	Value       string
}

func (e *InvalidVerdictError) Error() string {
	if e.CategoryID != "" {
		return fmt.Sprintf("invalid verdict %q for criterion %q in category %q", e.Value, e.CriterionID, e.CategoryID)
	}
	return fmt.Sprintf("invalid verdict %q for criterion %q", e.Value, e.CriterionID)
}

// Is matches ErrInvalidVerdict.
func (e *InvalidVerdictError) Is(target error) bool {
	return target == ErrInvalidVerdict
}
