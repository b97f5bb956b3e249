package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jo-hoe/peanutclassifier/internal/backend/chart"
	"github.com/jo-hoe/peanutclassifier/internal/backend/export"
	"github.com/jo-hoe/peanutclassifier/internal/core"
	"github.com/jo-hoe/peanutclassifier/internal/evaluator"
)

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

type evaluateFlags struct {
	size   int
	color  string
	weight int
	spots  bool
	broken bool
	image  string
	out    string
	format string
}

type chartFlags struct {
	png string
	svg string
}

type globalFlags struct {
	config string
	seed   uint64
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var global globalFlags
	root := &cobra.Command{
		Use:           "seedcli",
		Short:         "Evaluate peanut seeds from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&global.config, "config", "", "Path to a service config file")
	root.PersistentFlags().Uint64Var(&global.seed, "seed", 0, "Seed for reproducible predictions and charts (0 = random)")

	var eval evaluateFlags
	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one seed and print advisories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), stdout, global, eval)
		},
	}
	f := evaluateCmd.Flags()
	f.IntVar(&eval.size, "size", 10, "Seed size in mm (1-50)")
	f.StringVar(&eval.color, "color", string(evaluator.ColorLightBrown), "Seed color: LightBrown, DarkBrown, Yellowish or Mixed")
	f.IntVar(&eval.weight, "weight", 5, "Seed weight in g (1-20)")
	f.BoolVar(&eval.spots, "spots", false, "Seed has spots")
	f.BoolVar(&eval.broken, "broken", false, "Seed is broken")
	f.StringVar(&eval.image, "image", "", "Path to a JPG or PNG image of the seed")
	f.StringVar(&eval.out, "out", "", "Write the result CSV to this file")
	f.StringVar(&eval.format, "format", "text", "Output format: text or json")

	var chartOpts chartFlags
	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Generate a random seed quality chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChart(cmd.Context(), stdout, global, chartOpts)
		},
	}
	chartCmd.Flags().StringVar(&chartOpts.png, "png", "", "Write the chart as PNG to this file")
	chartCmd.Flags().StringVar(&chartOpts.svg, "svg", "", "Write the chart as SVG to this file")

	root.AddCommand(evaluateCmd, chartCmd)
	return root
}

func newCoreService(ctx context.Context, global globalFlags) (*core.CoreService, error) {
	config := core.DefaultConfig()
	if global.config != "" {
		loaded, err := core.LoadConfig(global.config)
		if err != nil {
			return nil, codeError(1, "loading config: %s", err)
		}
		config = loaded
	}
	if global.seed != 0 {
		config.Classifier.Seed = global.seed
	}

	service, err := core.NewCoreService(ctx, config)
	if err != nil {
		return nil, codeError(1, "initializing: %s", err)
	}
	return service, nil
}

func runEvaluate(ctx context.Context, stdout io.Writer, global globalFlags, flags evaluateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if flags.format != "text" && flags.format != "json" {
		return codeError(1, "invalid --format %q: must be text or json", flags.format)
	}
	color, err := evaluator.ParseColor(flags.color)
	if err != nil {
		return codeError(1, "invalid --color: %s", err)
	}
	observation := evaluator.Observation{
		SizeMM:   flags.size,
		Color:    color,
		WeightG:  flags.weight,
		HasSpots: flags.spots,
		IsBroken: flags.broken,
	}
	if err := observation.Validate(); err != nil {
		return codeError(1, "invalid seed values: %s", err)
	}

	var image []byte
	if flags.image != "" {
		image, err = os.ReadFile(flags.image)
		if err != nil {
			return codeError(1, "reading image: %s", err)
		}
	}

	service, err := newCoreService(ctx, global)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	result, err := service.Evaluate(ctx, observation, image)
	if errors.Is(err, core.ErrInvalidImage) {
		return codeError(1, "Uploaded file is not a readable image: %s", flags.image)
	}
	if err != nil {
		return codeError(1, "%s", err)
	}

	if flags.out != "" {
		data, err := export.Encode(result.Record)
		if err != nil {
			return codeError(1, "encoding csv: %s", err)
		}
		if err := os.WriteFile(flags.out, data, 0644); err != nil {
			return codeError(1, "writing %s: %s", flags.out, err)
		}
	}

	if flags.format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printEvaluation(stdout, result)
	return nil
}

func printEvaluation(w io.Writer, result *core.Result) {
	for _, advisory := range result.Advisories {
		fmt.Fprintf(w, "[%s] %s\n", advisory.Level, advisory.Text)
		if advisory.Detail != "" {
			fmt.Fprintf(w, "[%s] %s\n", evaluator.LevelWarning, advisory.Detail)
		}
	}
	fmt.Fprintln(w)
	printChart(w, result.Chart)
	if result.ID != "" {
		fmt.Fprintf(w, "\nSaved as evaluation %s\n", result.ID)
	}
}

func printChart(w io.Writer, rows []evaluator.ChartRow) {
	fmt.Fprintf(w, "%-4s %10s %10s\n", "", "Good Seeds", "Bad Seeds")
	for i, row := range rows {
		fmt.Fprintf(w, "%-4d %10d %10d\n", i, row.Good, row.Bad)
	}
}

func runChart(ctx context.Context, stdout io.Writer, global globalFlags, flags chartFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	service, err := newCoreService(ctx, global)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	rows := service.QualityChart()
	if flags.png != "" {
		data, err := chart.RenderPNG(rows, chart.Options{})
		if err != nil {
			return codeError(1, "rendering chart: %s", err)
		}
		if err := os.WriteFile(flags.png, data, 0644); err != nil {
			return codeError(1, "writing %s: %s", flags.png, err)
		}
	}
	if flags.svg != "" {
		svg := chart.RenderSVG(rows, chart.Options{Labels: true})
		if err := os.WriteFile(flags.svg, []byte(svg), 0644); err != nil {
			return codeError(1, "writing %s: %s", flags.svg, err)
		}
	}
	printChart(stdout, rows)
	return nil
}
