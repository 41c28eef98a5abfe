package runlock

import (
	"path/filepath"
	"testing"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "mediasorter.lock")

	first, err := Acquire(path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path())
	assert.FileExists(t, path)

	_, err = Acquire(path)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLock, apperrors.GetErrorCode(err))
	assert.True(t, apperrors.IsFatal(err))

	require.NoError(t, first.Release())

	second, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, second.Release())
}
