// Command trainer fits the salary regression models and the respondent clusters.
package main

import (
	"context"
	"os"

	"salarycli/internal/app"
	"salarycli/internal/operations"
)

func main() {
	os.Exit(app.Main("trainer", os.Args[1:], nil, func(ctx context.Context, rt *app.Runtime) error {
		return rt.RunAndReport(ctx, os.Stdout, operations.StageML)
	}))
}
