// Command predict scores one respondent with a trained salary model.
//
// Features are a JSON object keyed by cleaned column name, given with -json or
// on standard input. Unknown keys are ignored, missing ones count as 0.
//
//	predict -json '{"experience_years": 4, "seniority_level_ic": 3}'
//	predict -model random_forest -print-schema
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"salarycli/internal/app"
	"salarycli/internal/ml"
)

type options struct {
	model       string
	payload     string
	printSchema bool
}

func main() {
	var opts options
	os.Exit(app.Main("predict", os.Args[1:], func(fs *flag.FlagSet) {
		fs.StringVar(&opts.model, "model", "", "model to use (default: the configured default model)")
		fs.StringVar(&opts.payload, "json", "", "feature values as a JSON object (default: read stdin)")
		fs.BoolVar(&opts.printSchema, "print-schema", false, "list the features the model expects and exit")
	}, func(ctx context.Context, rt *app.Runtime) error {
		return run(ctx, rt, opts, os.Stdin, os.Stdout)
	}))
}

func run(ctx context.Context, rt *app.Runtime, opts options, stdin io.Reader, stdout io.Writer) error {
	model := opts.model
	if model == "" {
		model = rt.Config.ML.DefaultModel
	}
	p, err := ml.LoadPredictor(rt.Paths.ModelPath(model))
	if err != nil {
		return fmt.Errorf("load model %s: %w", model, err)
	}

	if opts.printSchema {
		_, err := fmt.Fprintln(stdout, strings.Join(p.Schema(), "\n"))
		return err
	}

	payload := []byte(opts.payload)
	if opts.payload == "" {
		if payload, err = io.ReadAll(stdin); err != nil {
			return fmt.Errorf("read features: %w", err)
		}
	}
	salary, err := p.PredictJSON(payload)
	if err != nil {
		return err
	}
	rt.Logger.InfoContext(ctx, "prediction",
		slog.String("model", p.Name()),
		slog.Float64("salary", salary))
	_, err = fmt.Fprintf(stdout, "%s: %.1fk TL\n", p.Name(), salary)
	return err
}
