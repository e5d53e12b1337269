package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. SALARY_SERVER_PORT.
const EnvPrefix = "SALARY"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Cleaning  CleaningConfig  `yaml:"cleaning" envconfig:"CLEANING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	ML        MLConfig        `yaml:"ml" envconfig:"ML"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains dashboard HTTP server configuration
type ServerConfig struct {
	Host            string          `yaml:"host" envconfig:"HOST"`
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration for the prediction endpoint
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system locations, relative entries resolve against BaseDir
type PathsConfig struct {
	BaseDir     string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir     string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	TablesDir   string `yaml:"tables_dir" envconfig:"TABLES_DIR" validate:"required"`
	FiguresDir  string `yaml:"figures_dir" envconfig:"FIGURES_DIR" validate:"required"`
	ModelsDir   string `yaml:"models_dir" envconfig:"MODELS_DIR" validate:"required"`
	ReportsDir  string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir     string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	RawFile     string `yaml:"raw_file" envconfig:"RAW_FILE" validate:"required"`
	CleanedFile string `yaml:"cleaned_file" envconfig:"CLEANED_FILE" validate:"required"`
}

// CleaningConfig holds the thresholds of the cleaning stage
type CleaningConfig struct {
	SalaryCap        float64 `yaml:"salary_cap" envconfig:"SALARY_CAP" validate:"gt=0"`
	OpenEndedSalary  float64 `yaml:"open_ended_salary" envconfig:"OPEN_ENDED_SALARY" validate:"gt=0"`
	IQRMultiplier    float64 `yaml:"iqr_multiplier" envconfig:"IQR_MULTIPLIER" validate:"gt=0"`
	ZThreshold       float64 `yaml:"z_threshold" envconfig:"Z_THRESHOLD" validate:"gt=0"`
	MissingThreshold float64 `yaml:"missing_threshold" envconfig:"MISSING_THRESHOLD" validate:"gte=0,lte=1"`
	Sheet            string  `yaml:"sheet" envconfig:"SHEET"`
}

// AnalysisConfig holds group-size limits and significance levels
type AnalysisConfig struct {
	Alpha         float64 `yaml:"alpha" envconfig:"ALPHA" validate:"gt=0,lt=1"`
	MinGroupSize  int     `yaml:"min_group_size" envconfig:"MIN_GROUP_SIZE" validate:"gte=2"`
	MinROIGroup   int     `yaml:"min_roi_group" envconfig:"MIN_ROI_GROUP" validate:"gte=2"`
	MinRoleCount  int     `yaml:"min_role_count" envconfig:"MIN_ROLE_COUNT" validate:"gte=1"`
	MinCellSize   int     `yaml:"min_cell_size" envconfig:"MIN_CELL_SIZE" validate:"gte=2"`
	ROIThreshold  float64 `yaml:"roi_threshold" envconfig:"ROI_THRESHOLD" validate:"gte=0"`
	TopTechnology int     `yaml:"top_technology" envconfig:"TOP_TECHNOLOGY" validate:"gte=1"`
	TopRoles      int     `yaml:"top_roles" envconfig:"TOP_ROLES" validate:"gte=1"`
	HeatmapRoles  int     `yaml:"heatmap_roles" envconfig:"HEATMAP_ROLES" validate:"gte=1"`
	ConfidenceZ   float64 `yaml:"confidence_z" envconfig:"CONFIDENCE_Z" validate:"gt=0"`
}

// MLConfig holds model training parameters
type MLConfig struct {
	Seed            int64   `yaml:"seed" envconfig:"SEED"`
	TestRatio       float64 `yaml:"test_ratio" envconfig:"TEST_RATIO" validate:"gt=0,lt=1"`
	Folds           int     `yaml:"folds" envconfig:"FOLDS" validate:"gte=2"`
	Trees           int     `yaml:"trees" envconfig:"TREES" validate:"gte=1"`
	ForestDepth     int     `yaml:"forest_depth" envconfig:"FOREST_DEPTH" validate:"gte=1"`
	BoostRounds     int     `yaml:"boost_rounds" envconfig:"BOOST_ROUNDS" validate:"gte=1"`
	BoostDepth      int     `yaml:"boost_depth" envconfig:"BOOST_DEPTH" validate:"gte=1"`
	LearningRate    float64 `yaml:"learning_rate" envconfig:"LEARNING_RATE" validate:"gt=0,lte=1"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" envconfig:"MIN_SAMPLES_LEAF" validate:"gte=1"`
	Clusters        int     `yaml:"clusters" envconfig:"CLUSTERS" validate:"gte=2"`
	ClusterRestarts int     `yaml:"cluster_restarts" envconfig:"CLUSTER_RESTARTS" validate:"gte=1"`
	Workers         int     `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"`
	DefaultModel    string  `yaml:"default_model" envconfig:"DEFAULT_MODEL" validate:"oneof=linear_regression random_forest gradient_boosting"`
	TargetR2        float64 `yaml:"target_r2" envconfig:"TARGET_R2"`
	TargetCVR2      float64 `yaml:"target_cv_r2" envconfig:"TARGET_CV_R2"`
}

// ChartsConfig holds figure dimensions and rendering options
type ChartsConfig struct {
	Width         float64       `yaml:"width" envconfig:"WIDTH" validate:"gt=0"`
	Height        float64       `yaml:"height" envconfig:"HEIGHT" validate:"gt=0"`
	Workers       int           `yaml:"workers" envconfig:"WORKERS" validate:"gte=1"`
	SankeyPNG     bool          `yaml:"sankey_png" envconfig:"SANKEY_PNG"`
	ChromeTimeout time.Duration `yaml:"chrome_timeout" envconfig:"CHROME_TIMEOUT"`
}

// SheetsConfig points the ingest stage at a Google Sheet instead of a local file
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	Range           string `yaml:"range" envconfig:"RANGE"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
}

// Enabled reports whether a spreadsheet source is configured
func (s SheetsConfig) Enabled() bool {
	return s.SpreadsheetID != ""
}

// StorageConfig configures artifact publishing to S3-compatible storage
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint" envconfig:"ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" envconfig:"BUCKET"`
	Prefix    string `yaml:"prefix" envconfig:"PREFIX"`
	UseSSL    bool   `yaml:"use_ssl" envconfig:"USE_SSL"`
}

// Enabled reports whether an endpoint is configured
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

// TelemetryConfig configures tracing and metrics exporters
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. A .env file in the working
// directory is read first; variables already set in the process win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate checks struct tags and normalises logging options
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	c.Logging.Format = "json"

	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// Resolve returns the absolute paths for this configuration
func (c *Config) Resolve() (*Paths, error) {
	return GetPaths(c.Paths)
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     10,
				Burst:   20,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			BaseDir:     ".",
			DataDir:     DefaultDataDir,
			TablesDir:   DefaultTablesDir,
			FiguresDir:  DefaultFiguresDir,
			ModelsDir:   DefaultModelsDir,
			ReportsDir:  DefaultReportsDir,
			LogsDir:     DefaultLogsDir,
			RawFile:     DefaultRawFile,
			CleanedFile: DefaultCleanedFile,
		},
		Cleaning: CleaningConfig{
			SalaryCap:        350,
			OpenEndedSalary:  350,
			IQRMultiplier:    1.5,
			ZThreshold:       3,
			MissingThreshold: 0.05,
		},
		Analysis: AnalysisConfig{
			Alpha:         0.05,
			MinGroupSize:  10,
			MinROIGroup:   10,
			MinRoleCount:  5,
			MinCellSize:   5,
			ROIThreshold:  0.05,
			TopTechnology: 15,
			TopRoles:      15,
			HeatmapRoles:  12,
			ConfidenceZ:   1.96,
		},
		ML: MLConfig{
			Seed:            42,
			TestRatio:       0.2,
			Folds:           5,
			Trees:           100,
			ForestDepth:     10,
			BoostRounds:     100,
			BoostDepth:      6,
			LearningRate:    0.1,
			MinSamplesLeaf:  1,
			Clusters:        4,
			ClusterRestarts: 10,
			DefaultModel:    "gradient_boosting",
			TargetR2:        0.75,
			TargetCVR2:      0.70,
		},
		Charts: ChartsConfig{
			Width:         12,
			Height:        7,
			Workers:       4,
			ChromeTimeout: 30 * time.Second,
		},
		Sheets: SheetsConfig{
			Range:           "Form Responses 1",
			CredentialsFile: "credentials.json",
		},
		Storage: StorageConfig{
			Bucket: "salary-survey",
			Prefix: "runs",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    ServiceName,
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
