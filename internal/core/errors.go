package core

import "errors"

var (
	ErrParse            = errors.New("malformed or missing estimation field")
	ErrValidation       = errors.New("estimation input out of range")
	ErrInferenceFailure = errors.New("model could not estimate a price")
)

const (
	ParseErrorMessage       = "Please fill all fields with valid values!"
	ValidationErrorMessage  = "Invalid input values! Please check your data."
	InferenceFailureMessage = "Something is wrong please fill proper input!!"
)

// UserMessage converts a pipeline error into the text shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrParse):
		return ParseErrorMessage
	case errors.Is(err, ErrValidation):
		return ValidationErrorMessage
	default:
		return InferenceFailureMessage
	}
}
