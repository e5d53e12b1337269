// Command dashboard serves the interactive salary dashboard.
package main

import (
	"context"
	"os"

	"salarycli/internal/app"
)

func main() {
	os.Exit(app.Main("dashboard", os.Args[1:], nil, func(ctx context.Context, rt *app.Runtime) error {
		a, err := app.NewApplication(rt)
		if err != nil {
			return err
		}
		return a.Run(ctx)
	}))
}
