package operations

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarycli/internal/config"
	"salarycli/internal/exporter"
	"salarycli/internal/storage"
	"salarycli/internal/survey"
)

type memoryStorage struct {
	mu   sync.Mutex
	keys []string
}

func (m *memoryStorage) Put(_ context.Context, key string, r io.Reader, _ storage.PutObjectOptions) (storage.ObjectInfo, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	return storage.ObjectInfo{Key: key, Size: n}, nil
}

func (m *memoryStorage) Get(context.Context, string) (io.ReadCloser, storage.ObjectInfo, error) {
	return nil, storage.ObjectInfo{}, os.ErrNotExist
}

func (m *memoryStorage) Delete(context.Context, string) error { return nil }

func (m *memoryStorage) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// writeCleaned stores a cleaned dataset whose salary follows seniority,
// React use, work mode and company location
func writeCleaned(t *testing.T, paths *config.Paths, n int) {
	t.Helper()
	header := []string{
		survey.ColTimestamp, survey.ColSalary, survey.ColGender, survey.ColExperience, survey.ColSeniority,
		survey.ColManager, survey.ColRemote, survey.ColOffice, survey.ColEurope, survey.ColTurkey,
		survey.ColReact, survey.ColPython, survey.ColJavaScript,
		"role_Backend_Developer", "role_Frontend_Developer",
	}
	records := make([][]string, n)
	for i := range records {
		level := i%4 + 1
		react := (i/3)%2 == 0
		salary := 40 + 12*level + 3*(i%7)
		if react {
			salary += 15
		}
		if i%3 == 0 {
			salary += 30
		}
		records[i] = []string{
			fmt.Sprintf("2025-06-%02d %02d:30:00", i%28+1, 9+i%5),
			strconv.Itoa(salary),
			flag(i%5 != 0),
			strconv.Itoa(level + i%3),
			strconv.Itoa(level),
			flag(i%9 == 0),
			flag(i%2 == 0), flag(i%2 == 1),
			flag(i%3 == 0), flag(i%3 != 0),
			flag(react), flag(i%2 == 1), flag(i%4 < 3),
			flag(i%2 == 0), flag(i%2 == 1),
		}
	}
	table, err := survey.NewTable(header, records)
	require.NoError(t, err)
	require.NoError(t, exporter.NewCSVWriter(paths, quietLogger()).WriteTable(paths.CleanedData, table))
}

func testEnv(t *testing.T) (*Env, *memoryStorage) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.ML.Trees = 8
	cfg.ML.ForestDepth = 4
	cfg.ML.BoostRounds = 20
	cfg.ML.BoostDepth = 3
	cfg.ML.Folds = 3
	cfg.Charts.Width = 4
	cfg.Charts.Height = 3
	cfg.Storage.Endpoint = "minio.local:9000"

	paths, err := cfg.Resolve()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	store := &memoryStorage{}
	return &Env{
		Config: cfg,
		Paths:  paths,
		Logger: quietLogger(),
		NewStorage: func(context.Context, config.StorageConfig) (storage.Storage, error) {
			return store, nil
		},
	}, store
}

func TestPipeline_FromCleanedData(t *testing.T) {
	env, store := testEnv(t)
	writeCleaned(t, env.Paths, 80)

	registry, err := DefaultRegistry(env)
	require.NoError(t, err)
	assert.Equal(t, []string{StageCleaning, StageAnalysis, StageML, StageCharts, StageReport, StagePublish}, registry.IDs())

	m, err := NewManager(registry, nil, quietLogger())
	require.NoError(t, err)
	state, err := m.Run(context.Background(), "run-42", StageAnalysis, StageML, StageCharts, StageReport, StagePublish)
	require.NoError(t, err)

	for _, st := range state.Stages() {
		assert.Equal(t, StatusCompleted, st.Status, st.ID)
	}
	assert.NotNil(t, state.Analysis)
	assert.NotNil(t, state.ML)

	assert.FileExists(t, env.Paths.ResultsJSON)
	assert.FileExists(t, env.Paths.ResultsWorkbook)
	assert.FileExists(t, env.Paths.ModelPath("random_forest"))
	assert.FileExists(t, env.Paths.TablePath(config.MLResultsFile))
	assert.FileExists(t, env.Paths.FigurePath("salary_histogram.png"))
	assert.FileExists(t, env.Paths.FigurePath("barplot_model_comparison.png"))
	assert.FileExists(t, env.Paths.ReportTeX)

	tex, err := os.ReadFile(env.Paths.ReportTeX)
	require.NoError(t, err)
	assert.Contains(t, string(tex), "Salary Prediction Models")

	analysisState, _ := state.Stage(StageAnalysis)
	assert.Equal(t, 80, analysisState.Rows)
	publish, _ := state.Stage(StagePublish)
	assert.Contains(t, publish.Outputs, "runs/run-42/reports/salary_report.tex")
	assert.Contains(t, store.keys, "runs/run-42/"+storage.ManifestName)
}

func TestPipeline_StageRunsAlone(t *testing.T) {
	env, _ := testEnv(t)
	writeCleaned(t, env.Paths, 60)
	registry, err := DefaultRegistry(env)
	require.NoError(t, err)
	m, err := NewManager(registry, nil, quietLogger())
	require.NoError(t, err)

	// charts without stored results still renders the data-only figures
	_, err = m.Run(context.Background(), "charts-only", StageCharts)
	require.NoError(t, err)
	assert.FileExists(t, env.Paths.FigurePath("boxplot_seniority.png"))
	assert.NoFileExists(t, env.Paths.FigurePath("barplot_model_comparison.png"))

	// the report needs results.json
	_, err = m.Run(context.Background(), "report-only", StageReport)
	assert.Error(t, err)
}

func TestPublishStage_Disabled(t *testing.T) {
	env, store := testEnv(t)
	env.Config.Storage.Endpoint = ""
	registry, err := DefaultRegistry(env)
	require.NoError(t, err)
	m, err := NewManager(registry, nil, quietLogger())
	require.NoError(t, err)

	state, err := m.Run(context.Background(), "no-publish", StagePublish)
	require.NoError(t, err)
	st, _ := state.Stage(StagePublish)
	assert.Equal(t, StatusSkipped, st.Status)
	assert.Empty(t, store.keys)
}

func TestCleaningStage_MissingRaw(t *testing.T) {
	env, _ := testEnv(t)
	registry, err := DefaultRegistry(env)
	require.NoError(t, err)
	m, err := NewManager(registry, nil, quietLogger())
	require.NoError(t, err)

	state, err := m.Run(context.Background(), "no-raw", StageCleaning, StageAnalysis)
	require.Error(t, err)
	st, _ := state.Stage(StageAnalysis)
	assert.Equal(t, StatusSkipped, st.Status)
}
