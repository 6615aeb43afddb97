package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load session: %w", ErrNotFound)
	appErr := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneOverridesMessage(t *testing.T) {
	clone := Clone(ErrValidation, "El archivo Excel está vacío")
	assert.Equal(t, "El archivo Excel está vacío", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, ErrValidation.Status, clone.Status)
}

func TestWrapFormatsCause(t *testing.T) {
	err := Wrap(errors.New("status 500"), ErrUpstream.Code, ErrUpstream.Status, "Error en la carga")
	assert.Equal(t, "Error en la carga: status 500", err.Error())
}

func TestUserMessageHidesInternalCauses(t *testing.T) {
	upstream := fmt.Errorf("upload: %w", Clone(ErrUpstream, "gestion cerrada"))
	assert.Equal(t, "gestion cerrada", UserMessage(upstream, "Error en la carga"))

	assert.Equal(t, "Error en la carga", UserMessage(errors.New("dial tcp 10.0.0.1:443: connection refused"), "Error en la carga"))
	assert.Equal(t, "Error en la carga", UserMessage(Wrap(errors.New("pq: relation missing"), ErrInternal.Code, ErrInternal.Status, ErrInternal.Message), "Error en la carga"))
	assert.Equal(t, "Error en la carga", UserMessage(&Error{Code: ErrUpstream.Code}, "Error en la carga"))
	assert.Empty(t, UserMessage(nil, "Error en la carga"))
}

func TestIsUpstream(t *testing.T) {
	assert.True(t, IsUpstream(fmt.Errorf("progress: %w", Clone(ErrUpstream, "Sin permisos"))))
	assert.False(t, IsUpstream(ErrReadFile))
	assert.False(t, IsUpstream(errors.New("boom")))
	assert.False(t, IsUpstream(nil))
}
