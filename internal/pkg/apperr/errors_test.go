package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestHTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPCode(nil))
	assert.Equal(t, http.StatusNotFound, HTTPCode(errors.Wrap(ErrNotFound, "submission")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, HTTPCode(ErrTooLarge))
	assert.Equal(t, http.StatusUnauthorized, HTTPCode(ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPCode(errors.Wrap(ErrForbidden, "key")))
	assert.Equal(t, http.StatusNotImplemented, HTTPCode(errors.WithMessage(ErrNotImplemented, "sign")))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPCode(errors.Wrap(ErrProviderTimeout, "tts")))
	assert.Equal(t, http.StatusBadGateway, HTTPCode(errors.Wrapf(ErrProviderFailure, "code %d", 401)))
	assert.Equal(t, http.StatusBadRequest, HTTPCode(errors.Wrap(NewBadInput("title"), "publish")))
	assert.Equal(t, http.StatusInternalServerError, HTTPCode(errors.New("olia")))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "not_found", Code(ErrNotFound))
	assert.Equal(t, "bad_request", Code(NewBadInputMsg("text required")))
	assert.Equal(t, "forbidden", Code(ErrForbidden))
	assert.Equal(t, "not_implemented", Code(ErrNotImplemented))
	assert.Equal(t, "service_error", Code(errors.New("olia")))
}

func TestBadInput(t *testing.T) {
	err := errors.Wrap(NewBadInput("teacher_id", "title"), "publish")
	bi, ok := IsBadInput(err)
	assert.True(t, ok)
	assert.Equal(t, []string{"teacher_id", "title"}, bi.Need)
	assert.Equal(t, "missing fields: teacher_id, title", bi.Error())

	_, ok = IsBadInput(errors.New("olia"))
	assert.False(t, ok)
}

func TestWithCode(t *testing.T) {
	err := errors.Wrap(WithCode(errors.Wrap(ErrNotFound, "submission s1"), "submission_not_found"), "Can't score")
	assert.Equal(t, "submission_not_found", Code(err))
	assert.Equal(t, http.StatusNotFound, HTTPCode(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, WithCode(nil, "olia"))
}
