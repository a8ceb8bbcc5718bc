package omnierr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := NewNotFound("no such path", "/a/b")
	require.Error(t, err)
	assert.Equal(t, NotFound, err.Code)
	assert.Contains(t, err.Error(), "/a/b")
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

func TestErrorWithoutPath(t *testing.T) {
	err := NewPermissionDenied("wrong password")
	assert.NotContains(t, err.Error(), "path=")
}

func TestAs(t *testing.T) {
	var err error = NewInvalidSession("missing session")
	domainErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, InvalidSession, domainErr.Code)

	_, ok = As(assertErrorPlaceholder{})
	assert.False(t, ok)
}

type assertErrorPlaceholder struct{}

func (assertErrorPlaceholder) Error() string { return "placeholder" }

func TestCodeString(t *testing.T) {
	cases := map[Code]string{
		Success:           "SUCCESS",
		NotFound:          "NOT_FOUND",
		DirectoryNotEmpty: "DIRECTORY_NOT_EMPTY",
		Code(-999):        "UNKNOWN",
	}
	for code, want := range cases {
		assert.Equal(t, want, code.String())
	}
}
