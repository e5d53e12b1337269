// Package services holds the logic behind the dashboard: filtered survey
// aggregates, on-demand charts, salary prediction and health reporting.
//
// Handlers in transport/http stay thin and call these services. Errors the
// services return are already APIError values, so handlers pass them straight
// to the ErrorHandler.
package services
