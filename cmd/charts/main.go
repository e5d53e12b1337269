// Command charts renders every figure of the analysis as PNG.
package main

import (
	"context"
	"os"

	"salarycli/internal/app"
	"salarycli/internal/operations"
)

func main() {
	os.Exit(app.Main("charts", os.Args[1:], nil, func(ctx context.Context, rt *app.Runtime) error {
		return rt.RunAndReport(ctx, os.Stdout, operations.StageCharts)
	}))
}
