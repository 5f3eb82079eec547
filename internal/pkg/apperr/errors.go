package apperr

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	//ErrNotFound indicates missing key, document, submission or audio
	ErrNotFound = errors.New("not found")
	//ErrProviderFailure indicates speech provider transport, auth or response failure
	ErrProviderFailure = errors.New("provider failure")
	//ErrProviderTimeout indicates speech provider call exceeded its deadline
	ErrProviderTimeout = errors.New("provider timeout")
	//ErrTooLarge indicates upload exceeding the size limit
	ErrTooLarge = errors.New("too large")
	//ErrUnauthorized indicates wrong or missing bearer token
	ErrUnauthorized = errors.New("unauthorized")
	//ErrForbidden indicates access to a key outside of allowed prefixes
	ErrForbidden = errors.New("forbidden")
	//ErrNotImplemented indicates a feature the configured backend can't serve
	ErrNotImplemented = errors.New("not implemented")
)

//BadInputError reports missing required fields
type BadInputError struct {
	Need []string
	Msg  string
}

//NewBadInput creates BadInputError for missing fields
func NewBadInput(need ...string) *BadInputError {
	return &BadInputError{Need: need, Msg: "missing fields"}
}

//NewBadInputMsg creates BadInputError with a message only
func NewBadInputMsg(msg string) *BadInputError {
	return &BadInputError{Msg: msg}
}

func (e *BadInputError) Error() string {
	if len(e.Need) == 0 {
		return e.Msg
	}
	return e.Msg + ": " + strings.Join(e.Need, ", ")
}

//IsBadInput checks if err is caused by BadInputError
func IsBadInput(err error) (*BadInputError, bool) {
	var bi *BadInputError
	if errors.As(err, &bi) {
		return bi, true
	}
	return nil, false
}

//HTTPCode maps error to http status code
func HTTPCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, ErrProviderTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrProviderFailure):
		return http.StatusBadGateway
	}
	if _, ok := IsBadInput(err); ok {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type codedError struct {
	error
	code string
}

func (e *codedError) Unwrap() error {
	return e.error
}

//WithCode attaches a short response code to err, HTTPCode still follows the cause
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &codedError{error: err, code: code}
}

//Code returns short error code for json responses
func Code(err error) string {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch HTTPCode(err) {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotImplemented:
		return "not_implemented"
	case http.StatusGatewayTimeout:
		return "provider_timeout"
	case http.StatusBadGateway:
		return "provider_failed"
	case http.StatusBadRequest:
		return "bad_request"
	}
	return "service_error"
}
