// Package main is a command line front end for the integral calculator. It
// fills one form from flags, submits it and prints the outcome.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/R3E-Network/integrales/internal/cli"
	"github.com/R3E-Network/integrales/internal/config"
	"github.com/R3E-Network/integrales/internal/evaluator"
	"github.com/R3E-Network/integrales/internal/form"
	"github.com/R3E-Network/integrales/internal/integral"
	"github.com/R3E-Network/integrales/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	serviceURL string
	arity      integral.Arity
	expression string
	bounds     []string
	list       bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("integrales", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to YAML config file")
	serviceURL := fs.String("url", "", "Evaluation service URL (overrides config)")
	tipo := fs.String("tipo", "simple", "Integral type: simple, doble or triple")
	expression := fs.String("expr", "", "Function to integrate, e.g. x**2 + sin(y)")
	x := fs.String("x", "", "x bounds as inf,sup")
	y := fs.String("y", "", "y bounds as inf,sup (may use x)")
	z := fs.String("z", "", "z bounds as inf,sup (may use x and y)")
	example := fs.Int("ejemplo", 0, "Run catalogue example N (1-based) instead of -expr")
	list := fs.Bool("ejemplos", false, "List the catalogue examples and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &options{configPath: *configPath, serviceURL: *serviceURL, list: *list}
	if opts.list {
		return opts, nil
	}

	if *example != 0 {
		catalogue := integral.Examples()
		if *example < 1 || *example > len(catalogue) {
			return nil, fmt.Errorf("example %d out of range 1-%d", *example, len(catalogue))
		}
		ex := catalogue[*example-1]
		opts.arity = ex.Arity
		opts.expression = ex.Expression
		opts.bounds = ex.Bounds
		return opts, nil
	}

	arity, err := integral.ParseArity(*tipo)
	if err != nil {
		return nil, err
	}
	opts.arity = arity
	opts.expression = *expression

	pairs := []string{*x, *y, *z}
	for i, axis := range arity.Axes() {
		lower, upper, err := splitPair(pairs[i])
		if err != nil {
			return nil, fmt.Errorf("-%s: %w", axis, err)
		}
		opts.bounds = append(opts.bounds, lower, upper)
	}
	return opts, nil
}

// splitPair splits "inf,sup" at the one comma outside parentheses. An empty
// flag yields two empty bounds so the form reports the missing input.
func splitPair(s string) (string, string, error) {
	if strings.TrimSpace(s) == "" {
		return "", "", nil
	}
	depth, at := 0, -1
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth != 0 {
				continue
			}
			if at >= 0 {
				return "", "", fmt.Errorf("expected inf,sup but got %q", s)
			}
			at = i
		}
	}
	if at < 0 {
		return "", "", fmt.Errorf("expected inf,sup but got %q", s)
	}
	return strings.TrimSpace(s[:at]), strings.TrimSpace(s[at+1:]), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.list {
		for i, ex := range integral.Examples() {
			fmt.Fprintf(stdout, "%d. [%s] %s  %s\n   %s\n", i+1, ex.Arity, ex.Expression, strings.Join(ex.Bounds, ", "), ex.Description)
		}
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.serviceURL != "" {
		cfg.Service.URL = opts.serviceURL
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	log := logger.New(logger.Config{
		Component: "integrales",
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    stderr,
	})

	f := form.New(evaluator.New(evaluator.Config{
		BaseURL:      cfg.Service.URL,
		Timeout:      cfg.Service.Timeout,
		MaxBodyBytes: cfg.Service.MaxBodyBytes,
		Logger:       log.Named("evaluator"),
	}), form.Options{
		Arity:  opts.arity,
		Policy: cfg.Policy(),
		Logger: log.Named("form"),
	})
	f.SetExpression(opts.expression)
	if err := f.SetBounds(opts.bounds); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	spinner := cli.NewSpinner(stderr, "Calculando...")
	start := time.Now()
	spinner.Start()
	st, err := f.Submit(ctx)
	spinner.Stop()

	if err != nil {
		var appErr *integral.AppError
		if errors.As(err, &appErr) {
			cli.NewPrinter(stderr).Error("%s", appErr.Message)
			return 1
		}
		cli.NewPrinter(stderr).Error("%v", err)
		return 1
	}

	printResult(cli.NewPrinter(stdout), st.Result, time.Since(start))
	return 0
}

func printResult(p *cli.Printer, res *integral.Result, elapsed time.Duration) {
	if res == nil {
		return
	}
	if res.Value != nil {
		p.Success("Resultado: %g (%s)", *res.Value, cli.FormatDuration(elapsed))
	}
	if res.Latex != "" {
		p.Field("LaTeX", res.Latex)
	}
	if res.Plot != nil {
		switch res.Plot.Kind {
		case integral.PlotImage:
			p.Field("Gráfica", res.Plot.URL)
		case integral.PlotInteractive:
			p.Field("Gráfica", "interactiva (Plotly)")
		}
	}
	if res.Warning != nil {
		p.Warning("%s", res.Warning.Message)
	}
}
