package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/pkg/countries"
)

var errNoTerminal = errors.New("prompt needs an interactive terminal")

// prompter abstracts the terminal so the prompt flow can be tested.
type prompter interface {
	Select(message string, options []string) (int, error)
	Input(message string) (string, error)
}

type surveyPrompter struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (p surveyPrompter) stdio() (survey.AskOpt, error) {
	in, ok := p.stdin.(terminal.FileReader)
	if !ok {
		return nil, errNoTerminal
	}
	out, ok := p.stdout.(terminal.FileWriter)
	if !ok {
		return nil, errNoTerminal
	}
	return survey.WithStdio(in, out, p.stderr), nil
}

func (p surveyPrompter) Select(message string, options []string) (int, error) {
	stdio, err := p.stdio()
	if err != nil {
		return 0, err
	}
	var idx int
	prompt := &survey.Select{Message: message, Options: options, PageSize: 12}
	if err := survey.AskOne(prompt, &idx, stdio); err != nil {
		return 0, err
	}
	return idx, nil
}

func (p surveyPrompter) Input(message string) (string, error) {
	stdio, err := p.stdio()
	if err != nil {
		return "", err
	}
	var out string
	if err := survey.AskOne(&survey.Input{Message: message}, &out, stdio); err != nil {
		return "", err
	}
	return out, nil
}

func runPrompt(ctx context.Context, env *cliEnv, args []string) error {
	fs := newFlagSet(env, "prompt")
	templates := fs.String("templates", env.cfg.TemplatesDir, "directory of templates overlaid on the bundled set")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	f, err := newFormatter(*templates)
	if err != nil {
		return err
	}

	list := countries.List(f.Countries())
	options := make([]string, len(list))
	for i, c := range list {
		options[i] = fmt.Sprintf("%s (%s)", c.Name, strings.ToUpper(c.Code))
	}

	idx, err := env.prompt.Select("Country:", options)
	if err != nil {
		return promptErr(err)
	}
	country := list[idx].Code

	m := make(addressfmt.Map, len(addressfmt.FieldNames))
	for _, name := range addressfmt.FieldNames {
		if err := ctx.Err(); err != nil {
			return err
		}
		value, err := env.prompt.Input(strings.ReplaceAll(name, "_", " ") + ":")
		if err != nil {
			return promptErr(err)
		}
		m[name] = strings.TrimSpace(value)
	}

	out, err := f.Format(country, addressFromMap(m))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(env.stdout, "\n%s\n\n%s\n", out.Multiline, out.Singleline)
	return err
}

func promptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errSilent
	}
	return err
}
