// Package main is the entry point for the init-project application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joe/init-project/internal/config"
	"github.com/joe/init-project/internal/initengine"
	"github.com/joe/init-project/internal/logging"
	"github.com/joe/init-project/internal/report"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	// Parse configuration
	cfg, err := config.ParseFlags(args, stdout)
	if errors.Is(err, config.ErrHelpRequested) || errors.Is(err, config.ErrVersionRequested) {
		return 0
	}

	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	closeLog := logging.SetupLogger(logging.Options{
		Verbosity: cfg.Verbose,
		Console:   stderr,
		NoColor:   cfg.NoColor || !report.IsTerminal(stderr),
		LogFile:   cfg.LogFile,
	})
	defer closeLog()

	errStyles := report.NewStyles(report.NewRenderer(stderr, cfg.NoColor))

	result, err := instantiate(cfg, stdout)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, report.FormatError(errStyles, err))
		return 1
	}

	console := report.NewConsole(stdout, cfg.NoColor)

	if cfg.ShowTree {
		_, _ = fmt.Fprintf(stdout, "\n%s", result.tree)
	}

	_, _ = fmt.Fprintf(stdout, "\n%s\n", console.Summary(cfg.ProjectID, cfg.ProjectName, cfg.ExecName))
	_, _ = fmt.Fprintln(stdout, console.Stats(result.Result))

	return 0
}

// outcome is a finished run plus its rendered layout, if requested.
type outcome struct {
	*initengine.Result
	tree string
}

// instantiate sets up the engine for cfg and runs it, streaming events to
// stdout.
func instantiate(cfg *config.Config, stdout io.Writer) (*outcome, error) {
	engine, err := initengine.NewEngineWithRemote(cfg.Root, cfg.RemoteOptions())
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	ruleSet, excludes, err := cfg.ResolveRules(engine.FS, engine.Root)
	if err != nil {
		return nil, err
	}

	engine.Rules = ruleSet
	engine.Excludes = excludes
	engine.Artifacts = config.DefaultArtifacts()
	if rel, ok := cfg.RulesFileUnder(engine.Root); ok {
		engine.Protected = append(engine.Protected, rel)
	}
	engine.IgnoreSyntax = cfg.IgnoreSyntax
	engine.Simulate = cfg.DryRun
	engine.Diff = cfg.Diff
	engine.Cleanup = cfg.Cleanup
	engine.SetEventEmitter(report.NewConsole(stdout, cfg.NoColor))

	result, err := engine.Run()
	if err != nil {
		return nil, err
	}

	out := &outcome{Result: result}

	if cfg.ShowTree {
		ign, err := engine.IgnoreRules()
		if err != nil {
			return nil, err
		}
		out.tree = report.RenderTree(result.Snapshot, ign, cfg.Root)
	}

	return out, nil
}
