package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inquiryForm struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Kind    string `validate:"required,oneof=contact quote service"`
	Message string `validate:"max=2000"`
}

func TestValidate_Success(t *testing.T) {
	form := inquiryForm{Name: "Alice", Email: "alice@example.com", Kind: "contact"}
	assert.NoError(t, Validate(form))
}

func TestValidate_MissingRequired(t *testing.T) {
	form := inquiryForm{Email: "alice@example.com", Kind: "contact"}
	err := Validate(form)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Name")
	assert.Equal(t, "is required", fields["Name"])
}

func TestValidate_InvalidEmail(t *testing.T) {
	form := inquiryForm{Name: "Alice", Email: "not-an-email", Kind: "contact"}
	err := Validate(form)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}

func TestValidate_OneOf(t *testing.T) {
	form := inquiryForm{Name: "Alice", Email: "alice@example.com", Kind: "complaint"}
	err := Validate(form)
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Kind"], "must be one of")
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(inquiryForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Contains(t, fields, "Name")
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Kind")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(inquiryForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Name'")
	assert.Contains(t, err.Error(), "is required")
}
