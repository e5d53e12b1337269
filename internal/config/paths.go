package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for every file the pipeline reads or writes
type Paths struct {
	BaseDir    string
	DataDir    string
	TablesDir  string
	FiguresDir string
	ModelsDir  string
	ReportsDir string
	LogsDir    string

	// Well-known files
	RawData         string
	CleanedData     string
	CleaningReport  string
	ResultsJSON     string
	ResultsWorkbook string
	ReportTeX       string
}

// GetPaths resolves the configured locations against BaseDir.
// Absolute entries are kept as they are.
func GetPaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p, fallback string) string {
		if p == "" {
			p = fallback
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	tablesDir := resolve(cfg.TablesDir, DefaultTablesDir)
	dataDir := resolve(cfg.DataDir, DefaultDataDir)
	reportsDir := resolve(cfg.ReportsDir, DefaultReportsDir)

	return &Paths{
		BaseDir:    base,
		DataDir:    dataDir,
		TablesDir:  tablesDir,
		FiguresDir: resolve(cfg.FiguresDir, DefaultFiguresDir),
		ModelsDir:  resolve(cfg.ModelsDir, DefaultModelsDir),
		ReportsDir: reportsDir,
		LogsDir:    resolve(cfg.LogsDir, DefaultLogsDir),

		RawData:         resolve(cfg.RawFile, DefaultRawFile),
		CleanedData:     resolve(cfg.CleanedFile, DefaultCleanedFile),
		CleaningReport:  filepath.Join(dataDir, CleaningReportFile),
		ResultsJSON:     filepath.Join(tablesDir, ResultsJSONFile),
		ResultsWorkbook: filepath.Join(tablesDir, ResultsWorkbookFile),
		ReportTeX:       filepath.Join(reportsDir, ReportFile),
	}, nil
}

// EnsureDirectories creates all output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.TablesDir,
		p.FiguresDir,
		p.ModelsDir,
		p.ReportsDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// TablePath returns the path for a table file
func (p *Paths) TablePath(filename string) string {
	return filepath.Join(p.TablesDir, filename)
}

// FigurePath returns the path for a figure file
func (p *Paths) FigurePath(filename string) string {
	return filepath.Join(p.FiguresDir, filename)
}

// ModelPath returns the path of a serialized model
func (p *Paths) ModelPath(name string) string {
	return filepath.Join(p.ModelsDir, name+ModelExtension)
}

// LogPath returns the path for a log file
func (p *Paths) LogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs the resolved locations
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("tables", p.TablesDir),
			slog.String("figures", p.FiguresDir),
			slog.String("models", p.ModelsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("raw", p.RawData),
			slog.String("cleaned", p.CleanedData),
			slog.Bool("raw_exists", FileExists(p.RawData)),
			slog.Bool("cleaned_exists", FileExists(p.CleanedData)),
		))
}
