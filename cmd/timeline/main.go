package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v2"

	"github.com/rprtr258/timeline/internal/config"
	filters "github.com/rprtr258/timeline/pkg"
)

func flagName(f filters.Field) string {
	return strings.ReplaceAll(f.Name, "_", "-")
}

func resultFilename(sourceImageFilename string, kind filters.Kind) string {
	return fmt.Sprintf("%s.%s.png", sourceImageFilename, kind)
}

func filterCommand(kind filters.Kind) *cli.Command {
	fields := filters.Fields(kind)
	flags := make([]cli.Flag, 0, len(fields))
	for _, f := range fields {
		flags = append(flags, &cli.Float64Flag{
			Name:  flagName(f),
			Value: f.Default,
			Usage: fmt.Sprintf("%s, from %g to %g", f.Label, f.Range.Min, f.Range.Max),
		})
	}
	return &cli.Command{
		Name:  kind.String(),
		Usage: fmt.Sprintf("apply %s filter", kind.Title()),
		Flags: flags,
		Action: func(ctx *cli.Context) error {
			values := make([]float64, len(fields))
			for i, f := range fields {
				v := ctx.Float64(flagName(f))
				values[i] = f.Range.Clamp(v)
				if values[i] != v {
					filters.Logger().Warn("parameter clamped", "name", flagName(f), "given", v, "used", values[i])
				}
			}
			params, err := filters.FromValues(kind, values)
			if err != nil {
				return err
			}
			return applyToInputs(ctx, params)
		},
	}
}

// applyToInputs filters every input concurrently and prints the result
// filenames in input order.
func applyToInputs(ctx *cli.Context, params filters.Params) error {
	inputs := ctx.StringSlice("input")
	output := ctx.String("output")
	if output != "" && len(inputs) > 1 {
		return fmt.Errorf("'output' can be used with a single input only, got %d inputs", len(inputs))
	}

	results := make([]string, len(inputs))
	p := pool.New().WithErrors().WithMaxGoroutines(max(1, ctx.Int("jobs")))
	for i, input := range inputs {
		i, input := i, input
		p.Go(func() error {
			result := output
			if result == "" {
				result = resultFilename(input, params.Kind())
			}
			if err := filters.ApplyFilterFile(input, result, params); err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			results[i] = result
			return nil
		})
	}
	err := p.Wait()
	for _, result := range results {
		if result != "" {
			fmt.Fprintln(ctx.App.Writer, result)
		}
	}
	return err
}

func newApp(stdout io.Writer) *cli.App {
	commands := make([]*cli.Command, 0, len(filters.Kinds()))
	for _, kind := range filters.Kinds() {
		commands = append(commands, filterCommand(kind))
	}
	return &cli.App{
		Name:      "timeline",
		Usage:     "apply photo post filters",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "source image, can be repeated",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "result image, format by extension; defaults to <input>.<filter>.png",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Value:   4,
				Usage:   "images processed at once",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "debug, info, warn or error",
			},
		},
		Before: func(ctx *cli.Context) error {
			logger, err := config.NewLogger(ctx.String("log-level"))
			if err != nil {
				return err
			}
			filters.SetLogger(logger)
			return nil
		},
		Commands: commands,
	}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err.Error())
	}
}
