package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"go.mongodb.org/mongo-driver/mongo"
)

// reviewIndexName is the compound unique index on reviews (bootcamp, user).
// A duplicate-key error naming it gets the review-specific message.
const reviewIndexName = "bootcamp_1_user_1"

// APIError is a user-facing error with an HTTP status. Messages carries one
// entry per violated constraint so validation failures surface every field.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func NewAPIError(status int, messages ...string) *APIError {
	return &APIError{StatusCode: status, Messages: messages}
}

func NotFound() *APIError {
	return NewAPIError(iris.StatusNotFound, "Resource not found")
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "Not authorized to access this route"
	}
	return NewAPIError(iris.StatusUnauthorized, message)
}

func Forbidden(message string) *APIError {
	return NewAPIError(iris.StatusForbidden, message)
}

func BadRequest(message string) *APIError {
	return NewAPIError(iris.StatusBadRequest, message)
}

func ServerError() *APIError {
	return NewAPIError(iris.StatusInternalServerError, "Server error")
}

// FromStorage translates a storage-layer error into the taxonomy. Anything it
// does not recognize comes back as a 500 so raw driver errors never leak.
func FromStorage(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound()
	}
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), reviewIndexName) {
			return BadRequest("You have already submitted a review for this bootcamp")
		}
		return BadRequest("Duplicate field value entered")
	}
	return ServerError()
}

// Fail writes the uniform failure envelope. It is the single boundary where
// storage and validation errors get translated; handlers pass whatever they
// have and the response is always {success: false, err: ...}.
func Fail(ctx iris.Context, err error) {
	var apiErr *APIError

	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
		// already classified
	case errors.As(err, &fieldErrs):
		apiErr = NewAPIError(iris.StatusBadRequest, validationMessages(fieldErrs)...)
	default:
		apiErr = FromStorage(err)
	}

	messages := make([]string, len(apiErr.Messages))
	for i, m := range apiErr.Messages {
		messages[i] = strings.TrimRight(m, ".")
	}

	ctx.StatusCode(apiErr.StatusCode)
	if len(messages) == 1 {
		ctx.JSON(iris.Map{"success": false, "err": messages[0]})
		return
	}
	ctx.JSON(iris.Map{"success": false, "err": messages})
}

// HandleValidationErrors reports a failed ReadJSON. Non-validator errors
// (malformed JSON and the like) come back as a generic bad request.
func HandleValidationErrors(err error, ctx iris.Context) {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		Fail(ctx, fieldErrs)
		return
	}
	Fail(ctx, BadRequest("Invalid request body"))
}

func validationMessages(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		out = append(out, validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Please add a %s", field)
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s can not be longer than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s can not be more than %s", field, fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "email":
		return "Please add a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
