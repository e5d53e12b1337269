// Command analyzer runs the statistical analyses and writes the result tables.
package main

import (
	"context"
	"os"

	"salarycli/internal/app"
	"salarycli/internal/operations"
)

func main() {
	os.Exit(app.Main("analyzer", os.Args[1:], nil, func(ctx context.Context, rt *app.Runtime) error {
		return rt.RunAndReport(ctx, os.Stdout, operations.StageAnalysis)
	}))
}
