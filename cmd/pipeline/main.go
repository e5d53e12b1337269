// Command pipeline runs cleaning, analysis, machine learning, charts, the
// report and the optional publish step in one go.
//
//	pipeline -stages cleaning,analysis
package main

import (
	"context"
	"flag"
	"os"

	"salarycli/internal/app"
	"salarycli/internal/operations"
)

func main() {
	var stages string
	os.Exit(app.Main("pipeline", os.Args[1:], func(fs *flag.FlagSet) {
		fs.StringVar(&stages, "stages", "", "comma separated stages to run (default: all)")
	}, func(ctx context.Context, rt *app.Runtime) error {
		return rt.RunAndReport(ctx, os.Stdout, operations.ParseStages(stages)...)
	}))
}
