package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := Wrap(stdErrors.New("boom"), "failed")
	require.Equal(t, "failed: boom", err.Error())
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", http.StatusBadRequest)
	with := base.WithInternal(stdErrors.New("oops"))

	require.NotSame(t, base, with)
	require.Nil(t, base.Internal)
	require.Error(t, with.Internal)
}

func TestFromError(t *testing.T) {
	require.Same(t, ErrNotFound, FromError(ErrNotFound))

	out := FromError(stdErrors.New("raw"))
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.Error(t, out.Internal)

	require.Nil(t, FromError(nil))
}

func TestFromErrorUnwrapsWrappedAppError(t *testing.T) {
	wrapped := stdErrors.Join(stdErrors.New("context"), ErrForbidden)
	require.Equal(t, ErrForbidden.Code, FromError(wrapped).Code)
}

func TestHelpersKeepStatusCodes(t *testing.T) {
	bad := NewBadRequest("domain is required")
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
	require.Equal(t, "domain is required", bad.Message)
	require.Equal(t, "Invalid request", ErrBadRequest.Message)

	missing := NewNotFound("dealership")
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	require.Equal(t, "dealership not found", missing.Message)

	detailed := ErrValidation.WithDetails([]string{"name"})
	require.Nil(t, ErrValidation.Details)
	require.Equal(t, []string{"name"}, detailed.Details)
}
