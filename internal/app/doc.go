// Package app bootstraps the commands and runs the dashboard server.
//
// Every command follows the same sequence:
//
//  1. Load configuration (.env, YAML file, environment) and apply path flags
//  2. Resolve paths and create the output directories
//  3. Initialize the logger and OpenTelemetry providers
//  4. Run pipeline stages, or serve the dashboard
//  5. Flush telemetry on exit
//
// The dashboard server shuts down gracefully on SIGINT and SIGTERM. Errors are
// returned to main, which logs them and exits with status 1.
package app
