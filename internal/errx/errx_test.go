package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := E(KindNotFound, "order not found: %s", "o1")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, HasKind(err, KindNotFound))
	assert.False(t, HasKind(err, KindValidation))

	// kind tetap terbaca lewat rantai wrap
	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))

	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindConflict, cause, "reserve lost the race")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "reserve lost the race")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        http.StatusBadRequest,
		KindNotFound:          http.StatusNotFound,
		KindInsufficientStock: http.StatusConflict,
		KindStateTransition:   http.StatusUnprocessableEntity,
		KindAuthorization:     http.StatusForbidden,
		KindConflict:          http.StatusConflict,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(E(kind, "x")), string(kind))
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
