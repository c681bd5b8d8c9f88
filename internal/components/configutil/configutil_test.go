package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	MinCells int      `json:"min_cells"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kind.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments and trailing commas are fine
		name: "grades",
		keywords: ["選別", "科目"],
		min_cells: 3,
	}`), 0o644))

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "grades", Keywords: []string{"選別", "科目"}, MinCells: 3}, cfg)

	require.Equal(t, filepath.Join(dir, "kind.local.json5"), LocalPath(path))
	require.NoError(t, os.WriteFile(LocalPath(path), []byte(`{min_cells: 6}`), 0o644))

	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "grades", cfg.Name)
	require.Equal(t, 6, cfg.MinCells)
	require.Equal(t, []string{"選別", "科目"}, cfg.Keywords)
}

func TestReadConfigBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{name: `), 0o644))

	_, err := ReadConfig[testConfig](path)
	require.Error(t, err)
}
