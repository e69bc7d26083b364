package validator

import (
	"errors"
	"testing"

	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructUsesJSONFieldNames(t *testing.T) {
	err := Struct(model.LoginRequest{Email: "not-an-email", Birthdate: "01/02/2005"})
	require.Error(t, err)

	fields := TranslateErrors(err)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "birthdate")
	assert.Contains(t, fields["email"], "valid email")
}

func TestStructAcceptsValidRequest(t *testing.T) {
	assert.NoError(t, Struct(model.StartTestRequest{
		Email: "a@b.co", Token: "tok", TestID: 1, AttemptID: 9,
	}))
}

func TestTranslateErrorsFallsBackToDetail(t *testing.T) {
	fields := TranslateErrors(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"detail": "unexpected EOF"}, fields)
}

func TestSummaryIsSortedByField(t *testing.T) {
	err := Struct(model.InitTestRequest{Email: "a@b.co"})
	require.Error(t, err)

	assert.Equal(t, "test_id must be greater than 0; token is a required field", Summary(err))
}
