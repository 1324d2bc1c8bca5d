package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	for _, err := range []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnsupportedFormat,
		ErrCorruptedInput,
		ErrStructuralValidation,
		ErrInvalidVerdict,
		ErrTemplateNotPromotable,
		ErrClassifierUnavailable,
	} {
		assert.NotEmpty(t, err.Error())
	}
}

func TestUnsupportedFormatError(t *testing.T) {
	err := fmt.Errorf("extract: %w", &UnsupportedFormatError{Format: "tiff"})

	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.False(t, errors.Is(err, ErrCorruptedInput))
	assert.Contains(t, err.Error(), `unsupported format "tiff"`)
}

func TestCorruptedInputError(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := &CorruptedInputError{Format: FormatDOCX, Err: cause}

	assert.True(t, errors.Is(err, ErrCorruptedInput))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "corrupted docx input: zip: not a valid zip file", err.Error())
	assert.Equal(t, "corrupted pdf input", (&CorruptedInputError{Format: FormatPDF}).Error())
}

func TestStructuralValidationError(t *testing.T) {
	err := &StructuralValidationError{Issues: []ValidationIssue{
		{Code: IssueEmptyCategory, Path: "categories[0:a]", Message: "category has no criteria"},
		{Code: IssueMissingCriterionID, Path: "categories[1:b].criteria[0]", Message: "criterion id is empty"},
	}}

	assert.True(t, errors.Is(err, ErrStructuralValidation))
	assert.Equal(t,
		"structural validation failed: categories[0:a]: category has no criteria (empty_category); "+
			"categories[1:b].criteria[0]: criterion id is empty (missing_criterion_id)",
		err.Error())
	assert.Equal(t, ErrStructuralValidation.Error(), (&StructuralValidationError{}).Error())
}

func TestInvalidVerdictError(t *testing.T) {
	err := &InvalidVerdictError{CategoryID: "mayday", CriterionID: "m1", Value: "maybe"}

	assert.True(t, errors.Is(err, ErrInvalidVerdict))
	assert.Equal(t, `invalid verdict "maybe" for criterion "m1" in category "mayday"`, err.Error())
	assert.Equal(t, `invalid verdict "" for criterion "m2"`, (&InvalidVerdictError{CriterionID: "m2"}).Error())
}
