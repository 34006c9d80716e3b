package yaerrors_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/YaCodeDev/GoYaVarRSA/yaerrors"
	"github.com/stretchr/testify/assert"
)

func TestYaErrorFromString_Code(t *testing.T) {
	err := yaerrors.FromString(http.StatusNotFound, "Not Found")
	if err.Code() != http.StatusNotFound {
		t.Fatalf("Error code is not 404, got: %v", err.Code())
	}
}

func TestYaErrorFromString_Error(t *testing.T) {
	err := yaerrors.FromString(http.StatusNotFound, "Not Found")
	if err.Error() != "404 | Not Found" {
		t.Fatalf("Error message is not '404 | Not Found', got: %v", err.Error())
	}
}

func TestYaErrorFromError_Error(t *testing.T) {
	err := yaerrors.FromError(http.StatusBadRequest, yaerrors.ErrMalformedInput, "parse modulus")

	assert.Equal(t, "400 | parse modulus: malformed input", err.Error())
}

func TestYaError_WrapBuildsTraceback(t *testing.T) {
	err := yaerrors.FromError(http.StatusBadRequest, yaerrors.ErrMalformedInput, "parse modulus").
		Wrap("load public key").
		Wrapf("read %s", "pub.txt")

	assert.Equal(
		t,
		"400 | read pub.txt -> load public key -> parse modulus: malformed input",
		err.Error(),
	)
	assert.Equal(t, "read pub.txt", err.UnwrapLastError())
}

func TestYaError_KindsMatchWithErrorsIs(t *testing.T) {
	kinds := []error{
		yaerrors.ErrInvalidConfig,
		yaerrors.ErrInvariantViolation,
		yaerrors.ErrOversizedBlock,
		yaerrors.ErrMalformedInput,
		yaerrors.ErrRetryLimitExceeded,
		yaerrors.ErrKeyNotFound,
	}

	for _, kind := range kinds {
		err := yaerrors.Internal(kind, "context").Wrap("outer")

		assert.ErrorIs(t, err, kind)

		for _, other := range kinds {
			if other != kind {
				assert.False(t, errors.Is(err, other), "%v matched %v", kind, other)
			}
		}
	}
}

func TestYaErrorUnwrapLastError_WithoutWrap(t *testing.T) {
	err := yaerrors.FromString(http.StatusTeapot, "only")

	assert.Equal(t, "only", err.UnwrapLastError())
}
