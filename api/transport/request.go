package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Deadline    *time.Time `json:"deadline" validate:"required"`
	ProjectID   *uuid.UUID `json:"project_id"`
}

// UpdateTaskRequest carries optional fields; absent fields stay unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Deadline    *time.Time `json:"deadline"`
}

type CreateProjectRequest struct {
	Title    string     `json:"title" validate:"required,min=1,max=200"`
	Deadline *time.Time `json:"deadline" validate:"required"`
}

type UpdateProjectRequest struct {
	Title    *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Deadline *time.Time `json:"deadline"`
}

// Decode unmarshals body into v and validates its struct tags.
func Decode(body []byte, v interface{}) error {
	if len(body) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return Validate(v)
}

// Validate runs the struct validator and flattens field errors into one message.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
