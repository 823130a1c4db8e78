package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/antonio-alexander/go-employee-directory/internal/data"

	"github.com/pkg/errors"
)

// idFromPath returns the path id, an id that can't identify an employee
// (not a number, zero or negative) is reported as not found
func idFromPath(pathVariables map[string]string) (int64, error) {
	id, err := strconv.ParseInt(pathVariables[data.PathId], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Wrapf(data.ErrEmployeeNotFound, "invalid id %q", pathVariables[data.PathId])
	}
	return id, nil
}

func writeJson(writer http.ResponseWriter, statusCode int, item any) {
	bytes, err := json.Marshal(item)
	if err != nil {
		fmt.Printf("error handling response: %s\n", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write(bytes); err != nil {
		fmt.Printf("error handling response: %s\n", err)
	}
}

// errorResponse maps an error onto its status code and response body;
// failureMessage is used for anything unexpected so the cause never leaks
func errorResponse(err error, failureMessage string) (int, *data.Message) {
	var validationErr *data.ValidationError

	switch {
	default:
		return http.StatusInternalServerError, &data.Message{Message: failureMessage}
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, &data.Message{
			Message: data.MessageValidation,
			Errors:  validationErr.Errors,
		}
	case errors.Is(err, data.ErrEmployeeConflict):
		return http.StatusBadRequest, &data.Message{Message: data.ErrEmployeeConflict.Error()}
	case errors.Is(err, data.ErrEmployeeNotFound):
		return http.StatusNotFound, &data.Message{Message: data.ErrEmployeeNotFound.Error()}
	case errors.Is(err, data.ErrMutationDisabled):
		return http.StatusForbidden, &data.Message{Message: data.ErrMutationDisabled.Error()}
	}
}

func handleResponse(writer http.ResponseWriter, statusCode int, item any) {
	if item == nil {
		writer.WriteHeader(statusCode)
		return
	}
	writeJson(writer, statusCode, item)
}
