package pricing

import "net/http"

type ErrorCode string

const (
	ErrComboEmpty        ErrorCode = "COMBO_EMPTY"
	ErrComboNoComponents ErrorCode = "COMBO_NO_COMPONENTS"
	ErrQuantityInvalid   ErrorCode = "QUANTITY_INVALID"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, StatusCode: http.StatusUnprocessableEntity}
}
