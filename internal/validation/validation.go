package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/antonio-alexander/go-employee-directory/internal/data"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

const dateLayout string = "2006-01-02"

// payloadFields are the json fields accepted on creation, in the order
// they're reported
var payloadFields = []string{
	"employerId",
	"fullName",
	"dateOfJoining",
	"department",
	"designation",
	"location",
	"email",
	"phone",
}

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() (*Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, err
	}
	if err := validate.RegisterTranslation("datetime", translator,
		func(ut ut.Translator) error {
			return ut.Add("datetime", "{0} must be a valid date (YYYY-MM-DD)", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			message, _ := ut.T("datetime", fe.Field())
			return message
		}); err != nil {
		return nil, err
	}
	return &Validator{
		validate:   validate,
		translator: translator,
	}, nil
}

// normalizeDate accepts either an ISO date or an RFC3339 timestamp and
// returns the ISO date, anything else is returned untouched so the
// validator can reject it
func normalizeDate(s string) string {
	if _, err := time.Parse(dateLayout, s); err == nil {
		return s
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(dateLayout)
	}
	return s
}

func jsonType(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "undefined"
	}
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

// EmployeePayload validates an arbitrary json document and returns the
// normalized creation payload; unknown fields (including id) are dropped,
// failures are returned as a *data.ValidationError
func (v *Validator) EmployeePayload(body []byte) (*data.EmployeePayload, error) {
	var document map[string]json.RawMessage
	var fieldErrors []data.FieldError

	if !json.Valid(body) {
		return nil, &data.ValidationError{Errors: []data.FieldError{{
			Path:    []string{},
			Message: "Malformed json body",
		}}}
	}
	if err := json.Unmarshal(body, &document); err != nil || document == nil {
		return nil, &data.ValidationError{Errors: []data.FieldError{{
			Path:    []string{},
			Message: "Expected object, received " + jsonType(body),
		}}}
	}
	values := make(map[string]string, len(payloadFields))
	for _, field := range payloadFields {
		raw, ok := document[field]
		if !ok {
			fieldErrors = append(fieldErrors, data.FieldError{
				Path:    []string{field},
				Message: field + " is a required field",
			})
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			fieldErrors = append(fieldErrors, data.FieldError{
				Path:    []string{field},
				Message: fmt.Sprintf("Expected string, received %s", jsonType(raw)),
			})
			continue
		}
		if strings.TrimSpace(value) == "" {
			fieldErrors = append(fieldErrors, data.FieldError{
				Path:    []string{field},
				Message: field + " is a required field",
			})
			continue
		}
		values[field] = value
	}
	payload := &data.EmployeePayload{
		EmployerId:    values["employerId"],
		FullName:      values["fullName"],
		DateOfJoining: normalizeDate(strings.TrimSpace(values["dateOfJoining"])),
		Department:    values["department"],
		Designation:   values["designation"],
		Location:      values["location"],
		Email:         values["email"],
		Phone:         values["phone"],
	}
	if err := v.validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, err
		}
		for _, fieldError := range validationErrors {
			if hasFieldError(fieldErrors, fieldError.Field()) {
				continue
			}
			fieldErrors = append(fieldErrors, data.FieldError{
				Path:    []string{fieldError.Field()},
				Message: fieldError.Translate(v.translator),
			})
		}
	}
	if len(fieldErrors) > 0 {
		sortFieldErrors(fieldErrors)
		return nil, &data.ValidationError{Errors: fieldErrors}
	}
	return payload, nil
}

func hasFieldError(fieldErrors []data.FieldError, field string) bool {
	for _, fieldError := range fieldErrors {
		if len(fieldError.Path) > 0 && fieldError.Path[0] == field {
			return true
		}
	}
	return false
}

// sortFieldErrors orders errors the same way the fields are declared
func sortFieldErrors(fieldErrors []data.FieldError) {
	index := func(e data.FieldError) int {
		for i, field := range payloadFields {
			if len(e.Path) > 0 && e.Path[0] == field {
				return i
			}
		}
		return len(payloadFields)
	}
	sort.SliceStable(fieldErrors, func(i, j int) bool {
		return index(fieldErrors[i]) < index(fieldErrors[j])
	})
}
