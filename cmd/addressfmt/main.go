// Command addressfmt formats postal addresses from the command line and
// serves the formatter over HTTP.
//
// Usage:
//
//	addressfmt format -country gb -house-name "House Of Lords" -postalcode "BR3 1HZ"
//	addressfmt batch [-workers n] [-sanitize] [-json] path...
//	addressfmt prompt
//	addressfmt validate dir
//	addressfmt countries [-json]
//	addressfmt serve [-addr :8080]
//
// Settings come from ADDRESSFMT_* environment variables; flags override them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/internal/config"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errUsage marks errors caused by bad arguments.
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *cliEnv, args []string) error
}

var commands = []command{
	{name: "format", summary: "format one address given as flags", run: runFormat},
	{name: "batch", summary: "format YAML/JSON record files and check expectations", run: runBatch},
	{name: "prompt", summary: "enter an address interactively", run: runPrompt},
	{name: "validate", summary: "compile every template in a directory and report errors", run: runValidate},
	{name: "countries", summary: "list supported countries", run: runCountries},
	{name: "serve", summary: "run the HTTP service", run: runServe},
}

// cliEnv carries process-level dependencies so commands can be tested.
type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
	cfg    config.Config
	prompt prompter
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "addressfmt: %v\n", err)
		return exitFailure
	}
	return dispatch(ctx, &cliEnv{
		stdout: stdout,
		stderr: stderr,
		cfg:    cfg,
		prompt: surveyPrompter{stdin: stdin, stdout: stdout, stderr: stderr},
	}, args)
}

func dispatch(ctx context.Context, env *cliEnv, args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(env.stderr)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	idx := slices.IndexFunc(commands, func(c command) bool { return c.name == args[0] })
	if idx < 0 {
		fmt.Fprintf(env.stderr, "addressfmt: unknown command %q\n", args[0])
		usage(env.stderr)
		return exitUsage
	}

	if err := commands[idx].run(ctx, env, args[1:]); err != nil {
		return report(env.stderr, err)
	}
	return exitOK
}

func report(stderr io.Writer, err error) int {
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "addressfmt: %v\n", err)
		return exitUsage
	case errors.Is(err, errSilent):
		return exitFailure
	default:
		fmt.Fprintf(stderr, "addressfmt: %v\n", err)
		return exitFailure
	}
}

func usage(w io.Writer) {
	var b strings.Builder
	b.WriteString("Usage: addressfmt <command> [flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-10s %s\n", c.name, c.summary)
	}
	b.WriteString("\nRun 'addressfmt <command> -h' for command flags.\n")
	_, _ = io.WriteString(w, b.String())
}

// newFormatter loads the bundled templates plus the optional overlay
// directory.
func newFormatter(templatesDir string) (*addressfmt.Formatter, error) {
	if templatesDir == "" {
		return addressfmt.New()
	}
	if _, err := os.Stat(templatesDir); err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	fsys := os.DirFS(templatesDir)
	return addressfmt.New(
		addressfmt.WithSource(addressfmt.DefaultSource()),
		addressfmt.WithFS(fsys),
		addressfmt.WithJSONFS(fsys),
	)
}
