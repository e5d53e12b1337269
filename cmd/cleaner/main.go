// Command cleaner cleans the raw survey export into data/cleaned_data.csv.
package main

import (
	"context"
	"os"

	"salarycli/internal/app"
	"salarycli/internal/operations"
)

func main() {
	os.Exit(app.Main("cleaner", os.Args[1:], nil, func(ctx context.Context, rt *app.Runtime) error {
		return rt.RunAndReport(ctx, os.Stdout, operations.StageCleaning)
	}))
}
