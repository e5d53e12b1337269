// Package http implements the dashboard's HTTP layer on chi: the HTML page,
// the JSON aggregate API, on-demand chart images, salary prediction, health
// and metrics.
//
// Handlers are thin. They parse the filter from the query string, call a
// service and render the result with go-chi/render. Every failure goes through
// the shared ErrorHandler and reaches the client as an RFC 7807 problem
// document.
package http
