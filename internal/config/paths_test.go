package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	base := t.TempDir()
	absRaw := filepath.Join(t.TempDir(), "survey.xlsx")

	tests := []struct {
		name   string
		cfg    PathsConfig
		verify func(*testing.T, *Paths)
	}{
		{
			name: "relative entries join the base directory",
			cfg:  PathsConfig{BaseDir: base, DataDir: "data", TablesDir: "tables", CleanedFile: "data/clean.csv"},
			verify: func(t *testing.T, p *Paths) {
				assert.Equal(t, base, p.BaseDir)
				assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
				assert.Equal(t, filepath.Join(base, "tables"), p.TablesDir)
				assert.Equal(t, filepath.Join(base, "data", "clean.csv"), p.CleanedData)
				assert.Equal(t, filepath.Join(base, "tables", ResultsJSONFile), p.ResultsJSON)
				assert.Equal(t, filepath.Join(base, "data", CleaningReportFile), p.CleaningReport)
			},
		},
		{
			name: "absolute entries are kept",
			cfg:  PathsConfig{BaseDir: base, RawFile: absRaw},
			verify: func(t *testing.T, p *Paths) {
				assert.Equal(t, absRaw, p.RawData)
			},
		},
		{
			name: "empty entries fall back to defaults",
			cfg:  PathsConfig{BaseDir: base},
			verify: func(t *testing.T, p *Paths) {
				assert.Equal(t, filepath.Join(base, DefaultFiguresDir), p.FiguresDir)
				assert.Equal(t, filepath.Join(base, DefaultModelsDir), p.ModelsDir)
				assert.Equal(t, filepath.Join(base, DefaultRawFile), p.RawData)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := GetPaths(tt.cfg)
			require.NoError(t, err)
			tt.verify(t, p)
		})
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	base := t.TempDir()
	p, err := GetPaths(PathsConfig{BaseDir: base})
	require.NoError(t, err)

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.TablesDir, p.FiguresDir, p.ModelsDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}

func TestPaths_Helpers(t *testing.T) {
	p, err := GetPaths(PathsConfig{BaseDir: "/srv/survey"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/survey", "figures", "a.png"), p.FigurePath("a.png"))
	assert.Equal(t, filepath.Join("/srv/survey", "tables", "b.csv"), p.TablePath("b.csv"))
	assert.Equal(t, filepath.Join("/srv/survey", "models", "random_forest.model"), p.ModelPath("random_forest"))
	assert.Equal(t, filepath.Join("/srv/survey", "logs", "x.log"), p.LogPath("x.log"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.txt")))
}
