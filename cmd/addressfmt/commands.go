package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/internal/batch"
	"github.com/dmitrymomot/addressfmt/internal/server"
	"github.com/dmitrymomot/addressfmt/pkg/countries"
	"github.com/dmitrymomot/addressfmt/pkg/logger"
)

// errSilent signals a failure whose details were already printed.
var errSilent = errors.New("failed")

func newFlagSet(env *cliEnv, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	return fs
}

// parse returns (false, nil) when help was requested.
func parse(fs *flag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %s", errUsage, err)
	}
	return true, nil
}

// addressFlags registers one string flag per address component, named after
// the field with dashes ("house-name", "postalcode").
func addressFlags(fs *flag.FlagSet) map[string]*string {
	values := make(map[string]*string, len(addressfmt.FieldNames))
	for _, name := range addressfmt.FieldNames {
		values[name] = fs.String(strings.ReplaceAll(name, "_", "-"), "", name+" component")
	}
	return values
}

func addressFromFlags(values map[string]*string) addressfmt.Address {
	m := make(addressfmt.Map, len(values))
	for name, v := range values {
		m[name] = *v
	}
	return addressFromMap(m)
}

func addressFromMap(m addressfmt.Map) addressfmt.Address {
	return addressfmt.Address{
		Unit:         m[addressfmt.FieldUnit],
		HouseName:    m[addressfmt.FieldHouseName],
		StreetNumber: m[addressfmt.FieldStreetNumber],
		StreetName:   m[addressfmt.FieldStreetName],
		Locality:     m[addressfmt.FieldLocality],
		City:         m[addressfmt.FieldCity],
		County:       m[addressfmt.FieldCounty],
		State:        m[addressfmt.FieldState],
		Country:      m[addressfmt.FieldCountry],
		PostalCode:   m[addressfmt.FieldPostalCode],
	}
}

func runFormat(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "format")
	country := fs.String("country", "", "ISO 3166-1 alpha-2 country code (required)")
	mode := fs.String("mode", "both", "rendition: multiline, singleline or both")
	templates := fs.String("templates", env.cfg.TemplatesDir, "directory of templates overlaid on the bundled set")
	asJSON := fs.Bool("json", false, "print JSON")
	fields := addressFlags(fs)
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *country == "" {
		return fmt.Errorf("%w: -country is required", errUsage)
	}

	f, err := newFormatter(*templates)
	if err != nil {
		return err
	}
	addr := addressFromFlags(fields)

	switch addressfmt.Mode(*mode) {
	case addressfmt.ModeMultiline:
		out, err := f.FormatMultiline(*country, addr)
		if err != nil {
			return err
		}
		return printResult(env.stdout, *asJSON, map[string]string{"multiline": out}, out)
	case addressfmt.ModeSingleline:
		out, err := f.FormatSingleline(*country, addr)
		if err != nil {
			return err
		}
		return printResult(env.stdout, *asJSON, map[string]string{"singleline": out}, out)
	case "both":
		out, err := f.Format(*country, addr)
		if err != nil {
			return err
		}
		return printResult(env.stdout, *asJSON, out, out.Multiline+"\n\n"+out.Singleline)
	default:
		return fmt.Errorf("%w: unknown mode %q", errUsage, *mode)
	}
}

func printResult(w io.Writer, asJSON bool, v any, text string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func runBatch(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "batch")
	workers := fs.Int("workers", env.cfg.BatchWorkers, "records formatted concurrently")
	sanitize := fs.Bool("sanitize", false, "strip markup and control characters from components")
	templates := fs.String("templates", env.cfg.TemplatesDir, "directory of templates overlaid on the bundled set")
	asJSON := fs.Bool("json", false, "print every result as JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: batch needs at least one file or directory", errUsage)
	}

	var records []batch.Record
	for _, p := range fs.Args() {
		loaded, err := loadRecords(p)
		if err != nil {
			return err
		}
		records = append(records, loaded...)
	}

	f, err := newFormatter(*templates)
	if err != nil {
		return err
	}

	opts := []batch.Option{batch.WithWorkers(*workers)}
	if *sanitize {
		opts = append(opts, batch.WithSanitize())
	}
	results, err := batch.NewRunner(f, opts...).Run(ctx, records)
	if err != nil {
		return err
	}

	summary := batch.Summarize(results)
	if *asJSON {
		type item struct {
			batch.Result
			Error string `json:"error,omitempty"`
		}
		items := make([]item, len(results))
		for i, res := range results {
			items[i] = item{Result: res}
			if res.Err != nil {
				items[i].Error = res.Err.Error()
			}
		}
		if err := printResult(env.stdout, true, map[string]any{"summary": summary, "results": items}, ""); err != nil {
			return err
		}
	} else {
		for _, res := range batch.Failures(results) {
			fmt.Fprintf(env.stdout, "FAIL %s (%s): %v\n", res.Record.Origin, res.Record.Country, res.Err)
		}
		fmt.Fprintf(env.stdout, "%d records: %d passed, %d mismatched, %d failed\n",
			summary.Total, summary.Passed, summary.Mismatched, summary.Failed)
	}

	if summary.Passed != summary.Total {
		return errSilent
	}
	return nil
}

func loadRecords(p string) ([]batch.Record, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return batch.LoadFS(os.DirFS(p))
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return batch.Decode(p, data)
}

func runValidate(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "validate")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	dir := fs.Arg(0)
	if dir == "" {
		dir = env.cfg.TemplatesDir
	}
	if dir == "" {
		return fmt.Errorf("%w: validate needs a templates directory", errUsage)
	}
	if _, err := os.Stat(dir); err != nil {
		return err
	}

	fsys := os.DirFS(dir)
	err := addressfmt.Validate(addressfmt.YAMLSource(fsys), addressfmt.JSONSource(fsys))
	if err == nil {
		fmt.Fprintf(env.stdout, "%s: ok\n", dir)
		return nil
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			fmt.Fprintf(env.stdout, "%s: %v\n", dir, e)
		}
	} else {
		fmt.Fprintf(env.stdout, "%s: %v\n", dir, err)
	}
	return errSilent
}

func runCountries(_ context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "countries")
	templates := fs.String("templates", env.cfg.TemplatesDir, "directory of templates overlaid on the bundled set")
	asJSON := fs.Bool("json", false, "print JSON")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	f, err := newFormatter(*templates)
	if err != nil {
		return err
	}
	list := countries.List(f.Countries())
	if *asJSON {
		return printResult(env.stdout, true, list, "")
	}

	tw := tabwriter.NewWriter(env.stdout, 0, 4, 2, ' ', 0)
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\n", strings.ToUpper(c.Code), c.Name)
	}
	return tw.Flush()
}

func runServe(ctx context.Context, env *cliEnv, args []string) error {
	cfg := env.cfg
	fs := newFlagSet(env, "serve")
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	fs.StringVar(&cfg.TemplatesDir, "templates", cfg.TemplatesDir, "directory of templates overlaid on the bundled set")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	log := logger.NewWithSentry(cfg.LoggerOptions(), cfg.Sentry, server.RequestIDExtractor())
	defer logger.Flush(cfg.ShutdownTimeout)

	f, err := newFormatter(cfg.TemplatesDir)
	if err != nil {
		log.Error("failed to load templates", "error", err)
		return err
	}
	log.Info("templates loaded", "countries", len(f.Countries()))

	srv := server.New(f,
		server.WithLogger(log),
		server.WithMaxBodyBytes(cfg.MaxBodyBytes),
		server.WithRequestTimeout(cfg.RequestTimeout),
	)
	return server.Run(ctx, server.RunConfig{
		Addr:            cfg.HTTPAddr,
		Handler:         srv.Handler(),
		Logger:          log,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})
}
