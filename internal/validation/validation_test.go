package validation_test

import (
	"testing"

	"github.com/antonio-alexander/go-employee-directory/internal/data"
	"github.com/antonio-alexander/go-employee-directory/internal/validation"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

const validPayload string = `{
	"employerId": "EMP1",
	"fullName": "Ada Lovelace",
	"dateOfJoining": "2023-01-01",
	"department": "Engineering",
	"designation": "Engineer",
	"location": "Remote",
	"email": "ada@example.com",
	"phone": "555-0100"
}`

func validationError(t *testing.T, err error) *data.ValidationError {
	var validationErr *data.ValidationError

	if !assert.True(t, errors.As(err, &validationErr)) {
		t.FailNow()
	}
	return validationErr
}

func TestEmployeePayload(t *testing.T) {
	v, err := validation.NewValidator()
	if !assert.Nil(t, err) {
		assert.FailNow(t, "unable to create validator")
	}

	t.Run("Valid", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(validPayload))
		assert.Nil(t, err)
		assert.Equal(t, &data.EmployeePayload{
			EmployerId:    "EMP1",
			FullName:      "Ada Lovelace",
			DateOfJoining: "2023-01-01",
			Department:    "Engineering",
			Designation:   "Engineer",
			Location:      "Remote",
			Email:         "ada@example.com",
			Phone:         "555-0100",
		}, payload)
	})

	t.Run("Id Stripped", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"id": 42, "employerId": "EMP1",
			"fullName": "Ada Lovelace", "dateOfJoining": "2023-01-01",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "ada@example.com", "phone": "555-0100"}`))
		assert.Nil(t, err)
		assert.NotNil(t, payload)
		assert.Equal(t, int64(0), payload.ToEmployee(0).Id)
	})

	t.Run("Timestamp Normalized", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": "EMP1",
			"fullName": "Ada Lovelace", "dateOfJoining": "2023-01-01T10:00:00Z",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "ada@example.com", "phone": "555-0100"}`))
		assert.Nil(t, err)
		assert.Equal(t, "2023-01-01", payload.DateOfJoining)
	})

	t.Run("Whitespace Preserved", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": " EMP1 ",
			"fullName": "Ada Lovelace ", "dateOfJoining": " 2023-01-01 ",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "ada@example.com", "phone": "555-0100"}`))
		assert.Nil(t, err)
		if assert.NotNil(t, payload) {
			assert.Equal(t, " EMP1 ", payload.EmployerId)
			assert.Equal(t, "Ada Lovelace ", payload.FullName)
			assert.Equal(t, "2023-01-01", payload.DateOfJoining)
		}
	})

	t.Run("Missing Email", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": "EMP1",
			"fullName": "Ada Lovelace", "dateOfJoining": "2023-01-01",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "phone": "555-0100"}`))
		assert.Nil(t, payload)
		validationErr := validationError(t, err)
		assert.Len(t, validationErr.Errors, 1)
		fieldErr, ok := validationErr.Field("email")
		assert.True(t, ok)
		assert.Equal(t, []string{"email"}, fieldErr.Path)
	})

	t.Run("Invalid Email", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": "EMP1",
			"fullName": "Ada Lovelace", "dateOfJoining": "2023-01-01",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "not-an-email", "phone": "555-0100"}`))
		assert.Nil(t, payload)
		validationErr := validationError(t, err)
		fieldErr, ok := validationErr.Field("email")
		assert.True(t, ok)
		assert.Contains(t, fieldErr.Message, "email")
	})

	t.Run("Wrong Types", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": 1,
			"fullName": "Ada Lovelace", "dateOfJoining": "yesterday",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "ada@example.com", "phone": true}`))
		assert.Nil(t, payload)
		validationErr := validationError(t, err)
		assert.Len(t, validationErr.Errors, 3)
		assert.Equal(t, []string{"employerId"}, validationErr.Errors[0].Path)
		assert.Equal(t, "Expected string, received number", validationErr.Errors[0].Message)
		assert.Equal(t, []string{"dateOfJoining"}, validationErr.Errors[1].Path)
		assert.Equal(t, []string{"phone"}, validationErr.Errors[2].Path)
		assert.Equal(t, "Expected string, received boolean", validationErr.Errors[2].Message)
	})

	t.Run("Empty Fields", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": " ",
			"fullName": "", "dateOfJoining": "2023-01-01",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "ada@example.com", "phone": null}`))
		assert.Nil(t, payload)
		validationErr := validationError(t, err)
		assert.Len(t, validationErr.Errors, 3)
		for _, field := range []string{"employerId", "fullName", "phone"} {
			_, ok := validationErr.Field(field)
			assert.True(t, ok, field)
		}
	})

	t.Run("Too Long", func(t *testing.T) {
		payload, err := v.EmployeePayload([]byte(`{"employerId": "EMP1",
			"fullName": "Ada Lovelace", "dateOfJoining": "2023-01-01",
			"department": "Engineering", "designation": "Engineer",
			"location": "Remote", "email": "ada@example.com",
			"phone": "555-0100-555-0100-555-0100"}`))
		assert.Nil(t, payload)
		validationErr := validationError(t, err)
		_, ok := validationErr.Field("phone")
		assert.True(t, ok)
	})

	t.Run("Not An Object", func(t *testing.T) {
		for _, body := range []string{`[]`, `"employee"`, `null`, `{`} {
			payload, err := v.EmployeePayload([]byte(body))
			assert.Nil(t, payload)
			validationErr := validationError(t, err)
			assert.Len(t, validationErr.Errors, 1)
			assert.Empty(t, validationErr.Errors[0].Path)
		}
	})
}
