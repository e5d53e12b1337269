// Package config provides centralized configuration management for the salary
// survey pipeline and dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML file (config.yaml, configs/config.yaml or SALARY_CONFIG_FILE)
//  3. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the environment before
// the variables are read.
//
// # Environment Variables
//
// All environment variables follow the pattern SALARY_<SECTION>_<FIELD>:
//
//	SALARY_SERVER_PORT=8080
//	SALARY_LOGGING_LEVEL=debug
//	SALARY_PATHS_BASE_DIR=/srv/survey
//	SALARY_ML_TREES=200
//	SALARY_STORAGE_ENDPOINT=localhost:9000
//
// # Paths
//
// Every file location is resolved once through GetPaths. Relative entries are
// joined to the base directory so commands behave the same from any working
// directory when SALARY_PATHS_BASE_DIR is set.
//
//	cfg, err := config.Load()
//	paths, err := cfg.Resolve()
//	paths.EnsureDirectories()
package config
