package testdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestDatabaseURL(t *testing.T) {
	t.Run("prefers DATABASE_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://primary")
		t.Setenv("SCRY_TEST_DB_URL", "postgres://secondary")
		assert.Equal(t, "postgres://primary", GetTestDatabaseURL())
		assert.True(t, IsIntegrationTestEnvironment())
	})

	t.Run("falls back to SCRY_TEST_DB_URL", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("SCRY_TEST_DB_URL", "postgres://secondary")
		assert.Equal(t, "postgres://secondary", GetTestDatabaseURL())
	})

	t.Run("empty when neither is set", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("SCRY_TEST_DB_URL", "")
		assert.Empty(t, GetTestDatabaseURL())
		assert.False(t, IsIntegrationTestEnvironment())
	})
}

func TestGetTestDBWithT_SkipsWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SCRY_TEST_DB_URL", "")

	skipped := t.Run("inner", func(t *testing.T) {
		GetTestDBWithT(t)
		t.Error("expected GetTestDBWithT to skip")
	})
	assert.True(t, skipped, "a skipped subtest reports success")
}

func TestFindProjectRoot(t *testing.T) {
	t.Run("finds go.mod above the working directory", func(t *testing.T) {
		t.Setenv("SCRY_PROJECT_ROOT", "")

		root, err := findProjectRoot()
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(root, "go.mod"))
		assert.DirExists(t, filepath.Join(root, "internal", "platform", "postgres", "migrations"))
	})

	t.Run("honours SCRY_PROJECT_ROOT", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("SCRY_PROJECT_ROOT", dir)

		root, err := findProjectRoot()
		require.NoError(t, err)
		assert.Equal(t, dir, root)
	})
}
