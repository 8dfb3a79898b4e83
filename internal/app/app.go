// Package app implements the simplex command.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/costela/simplex"
	"github.com/costela/simplex/internal/config"
	"github.com/costela/simplex/internal/logging"
	"github.com/costela/simplex/internal/metrics"
	"github.com/costela/simplex/internal/server"
	"github.com/costela/simplex/render"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// Exit codes.
const (
	ExitOK    = 0
	ExitSolve = 1 // unbounded, iteration limit, cancelled
	ExitUsage = 2 // bad flags, unreadable or invalid problem
)

type options struct {
	config    string
	json      bool
	precision int
	quiet     bool
	serve     string
	version   bool
}

func newFlagSet(stderr io.Writer, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("simplex", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.config, "config", "", "problem file (YAML, JSON or TOML); may also be given as the only argument")
	fs.BoolVar(&o.json, "json", false, "print the result as JSON")
	fs.IntVar(&o.precision, "precision", 0, "decimal places shown (default from the problem file, 4)")
	fs.BoolVar(&o.quiet, "quiet", false, "print only the final result, not every tableau")
	fs.StringVar(&o.serve, "serve", "", "serve the HTTP API on `addr` instead of solving a file")
	fs.BoolVar(&o.version, "version", false, "print the version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: simplex [flags] [problem-file]\n\n")
		fs.PrintDefaults()
	}

	return fs
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// RunContext runs the command and returns its exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	var o options
	fs := newFlagSet(stderr, &o)

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	if o.version {
		fmt.Fprintf(stdout, "simplex version %s\n", Version)
		return ExitOK
	}

	if o.config == "" && fs.NArg() == 1 {
		o.config = fs.Arg(0)
	} else if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "simplex: unexpected arguments %v\n", fs.Args())
		fs.Usage()
		return ExitUsage
	}

	if o.serve != "" {
		return serve(ctx, o, stderr)
	}

	if o.config == "" {
		fmt.Fprintln(stderr, "simplex: no problem file given")
		fs.Usage()
		return ExitUsage
	}

	p, err := config.Load(o.config)
	if err != nil {
		fmt.Fprintf(stderr, "simplex: %v\n", err)
		return ExitUsage
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "json":
			p.Output.JSON = o.json
		case "quiet":
			p.Output.Quiet = o.quiet
		case "precision":
			p.Output.Precision = o.precision
		}
	})

	return solve(ctx, p, stdout, stderr)
}

func logConfig(p *config.Problem) logging.Config {
	return logging.Config{
		Level:      p.Log.Level,
		Format:     p.Log.Format,
		File:       p.Log.File,
		MaxSize:    p.Log.MaxSize,
		MaxBackups: p.Log.MaxBackups,
		MaxAge:     p.Log.MaxAge,
		Compress:   p.Log.Compress,
	}
}

func solve(ctx context.Context, p *config.Problem, stdout, stderr io.Writer) int {
	logger, closer := logging.New(logConfig(p), stderr)
	defer closer.Close()

	model, err := p.Model(simplex.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "simplex: %v\n", err)
		return ExitUsage
	}

	res, err := model.SolveWithContext(ctx)
	if err != nil {
		logger.Debug("solve failed", "outcome", metrics.Outcome(err))
		fmt.Fprintf(stderr, "simplex: %v\n", err)
		return ExitSolve
	}

	opts := render.Options{Precision: p.Output.Precision}

	switch {
	case p.Output.JSON:
		view, err := render.NewResultView(p.Name, res, !p.Output.Quiet, opts)
		if err == nil {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			err = enc.Encode(view)
		}
		if err != nil {
			fmt.Fprintf(stderr, "simplex: %v\n", err)
			return ExitSolve
		}
	case p.Output.Quiet:
		if err := render.Result(stdout, res, opts); err != nil {
			fmt.Fprintf(stderr, "simplex: %v\n", err)
			return ExitSolve
		}
	default:
		if err := render.Trace(stdout, res, opts); err != nil {
			fmt.Fprintf(stderr, "simplex: %v\n", err)
			return ExitSolve
		}
	}

	return ExitOK
}

func serve(ctx context.Context, o options, stderr io.Writer) int {
	var (
		p   *config.Problem
		err error
	)
	if o.config != "" {
		p, err = config.LoadSettings(o.config)
	} else {
		p, err = config.Defaults()
	}
	if err != nil {
		fmt.Fprintf(stderr, "simplex: %v\n", err)
		return ExitUsage
	}

	logger, closer := logging.New(logConfig(p), stderr)
	defer closer.Close()

	srv := server.New(logger, metrics.New(), p.Solver)
	if err := srv.Run(ctx, o.serve); err != nil {
		logger.Error("server failed", "error", err)
		return ExitSolve
	}

	return ExitOK
}
