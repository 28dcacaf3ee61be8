package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

func TestLayout_BeginPromoteCurrent(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	_, err = layout.Current()
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	version, staging, err := layout.Begin()
	require.NoError(t, err)
	assert.DirExists(t, staging)

	// Unpromoted builds are invisible.
	_, err = layout.Current()
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, os.WriteFile(filepath.Join(staging, "artifact"), []byte("x"), 0600))
	require.NoError(t, layout.Promote(version))

	current, err := layout.Current()
	require.NoError(t, err)
	assert.Equal(t, version, current)
	assert.NoDirExists(t, staging)
	assert.FileExists(t, filepath.Join(layout.VersionDir(version), "artifact"))
}

func TestLayout_PromoteReplacesCurrent(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	first, _, err := layout.Begin()
	require.NoError(t, err)
	require.NoError(t, layout.Promote(first))

	second, _, err := layout.Begin()
	require.NoError(t, err)
	require.NoError(t, layout.Promote(second))

	current, err := layout.Current()
	require.NoError(t, err)
	assert.Equal(t, second, current)

	// The previous version directory survives for in-flight readers.
	versions, err := layout.Versions()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first, second}, versions)
}

func TestLayout_Abort(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	version, staging, err := layout.Begin()
	require.NoError(t, err)
	require.NoError(t, layout.Abort(version))
	assert.NoDirExists(t, staging)

	versions, err := layout.Versions()
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestLayout_PromoteWithoutBegin(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, layout.Promote("no-such-version"))
}

func TestLayout_VersionsSkipsStaging(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	promoted, _, err := layout.Begin()
	require.NoError(t, err)
	require.NoError(t, layout.Promote(promoted))

	_, _, err = layout.Begin()
	require.NoError(t, err)

	versions, err := layout.Versions()
	require.NoError(t, err)
	assert.Equal(t, []string{promoted}, versions)
}

func TestNewLayout_EmptyDir(t *testing.T) {
	_, err := NewLayout("")
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}
