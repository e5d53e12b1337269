// Command report writes the LaTeX report from the analysis outputs.
package main

import (
	"context"
	"os"

	"salarycli/internal/app"
	"salarycli/internal/operations"
)

func main() {
	os.Exit(app.Main("report", os.Args[1:], nil, func(ctx context.Context, rt *app.Runtime) error {
		return rt.RunAndReport(ctx, os.Stdout, operations.StageReport)
	}))
}
