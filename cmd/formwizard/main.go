package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	theme "github.com/goliatone/go-theme"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/contract"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/renderers/summary"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/session"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, env *environment, args []string) error
}

var commands = []command{
	{name: "check", summary: "print live fields and submit errors for an answers file", run: runCheck},
	{name: "run", summary: "walk a screen in the terminal and print the answers", run: runWizard},
	{name: "summary", summary: "render the review page for a screen as HTML", run: runSummary},
	{name: "contract", summary: "print the OpenAPI document for the submitted answers", run: runContract},
}

type environment struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// errInvalid marks a run that completed but found validation errors.
var errInvalid = errors.New("answers are invalid")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("formwizard", flag.ContinueOnError)
	global.SetOutput(stderr)
	logLevel := global.String("log-level", "warn", "log level (debug, info, warn, error)")
	logFormat := global.String("log-format", "text", "log format (text, json)")
	global.Usage = func() { usage(global) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		usage(global)
		return exitUsage
	}

	logger, err := logging.New(stderr, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "formwizard: %v\n", err)
		return exitUsage
	}
	env := &environment{stdout: stdout, stderr: stderr, logger: logger}

	for _, cmd := range commands {
		if cmd.name != rest[0] {
			continue
		}
		err := cmd.run(ctx, env, rest[1:])
		switch {
		case err == nil:
			return exitOK
		case errors.Is(err, errInvalid):
			return exitInvalid
		case errors.Is(err, flag.ErrHelp):
			return exitOK
		case errors.Is(err, tui.ErrAborted):
			fmt.Fprintln(stderr, "formwizard: aborted")
			return exitInvalid
		default:
			fmt.Fprintf(stderr, "formwizard %s: %v\n", cmd.name, err)
			return exitUsage
		}
	}

	fmt.Fprintf(stderr, "formwizard: unknown command %q\n", rest[0])
	usage(global)
	return exitUsage
}

func usage(global *flag.FlagSet) {
	out := global.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [command flags]\n\nCommands:\n", filepath.Base(os.Args[0]))
	for _, cmd := range commands {
		fmt.Fprintf(out, "  %-9s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(out, "\nFlags:")
	global.PrintDefaults()
}

// screenFlags are shared by every command that targets one screen.
type screenFlags struct {
	schema  string
	screen  string
	answers string
	locale  string
}

func (f *screenFlags) register(set *flag.FlagSet) {
	set.StringVar(&f.schema, "schema", "", "screen document file or directory (required)")
	set.StringVar(&f.screen, "screen", "", "screen id (defaults to the first screen)")
	set.StringVar(&f.answers, "answers", "", "JSON answers file")
	set.StringVar(&f.locale, "locale", "en", "message locale (BCP 47)")
}

func (f *screenFlags) load() (formwizard.Screen, formwizard.Answers, error) {
	if strings.TrimSpace(f.schema) == "" {
		return formwizard.Screen{}, nil, errors.New("-schema is required")
	}
	store, err := formwizard.LoadScreens(f.schema)
	if err != nil {
		return formwizard.Screen{}, nil, err
	}
	id := f.screen
	if id == "" {
		screens := store.Screens()
		if len(screens) == 0 {
			return formwizard.Screen{}, nil, fmt.Errorf("no screens in %s", f.schema)
		}
		id = screens[0].ID
	}
	screen, err := formwizard.LookupScreen(store, id)
	if err != nil {
		return formwizard.Screen{}, nil, err
	}

	a := formwizard.Answers{}
	if f.answers != "" {
		a, err = formwizard.LoadAnswers(f.answers)
		if err != nil {
			return formwizard.Screen{}, nil, err
		}
	}
	return screen, a, nil
}

func (f *screenFlags) validationOptions(logger *slog.Logger) ([]validation.Option, error) {
	tag, err := language.Parse(f.locale)
	if err != nil {
		return nil, fmt.Errorf("invalid -locale %q: %w", f.locale, err)
	}
	return []validation.Option{validation.WithLocale(tag), validation.WithLogger(logger)}, nil
}

func runCheck(_ context.Context, env *environment, args []string) error {
	set := flag.NewFlagSet("check", flag.ContinueOnError)
	set.SetOutput(env.stderr)
	var flags screenFlags
	flags.register(set)
	if err := set.Parse(args); err != nil {
		return err
	}

	screen, a, err := flags.load()
	if err != nil {
		return err
	}
	opts, err := flags.validationOptions(env.logger)
	if err != nil {
		return err
	}

	result := formwizard.Check(screen, a, opts...)
	if err := writeJSON(env.stdout, result); err != nil {
		return err
	}
	if !result.Valid() {
		return errInvalid
	}
	return nil
}

func runWizard(ctx context.Context, env *environment, args []string) error {
	set := flag.NewFlagSet("run", flag.ContinueOnError)
	set.SetOutput(env.stderr)
	var flags screenFlags
	flags.register(set)
	format := set.String("format", "json", "output format (json, form, pretty)")
	if err := set.Parse(args); err != nil {
		return err
	}

	outputFormat, ok := tui.ParseOutputFormat(*format)
	if !ok {
		return fmt.Errorf("unsupported -format %q", *format)
	}
	screen, a, err := flags.load()
	if err != nil {
		return err
	}
	opts, err := flags.validationOptions(env.logger)
	if err != nil {
		return err
	}

	renderer, err := tui.New(
		tui.WithPromptDriver(tui.NewSurveyDriver(env.stderr)),
		tui.WithOutputFormat(outputFormat),
		tui.WithLogger(env.logger),
		tui.WithSessionOptions(session.WithValidationOptions(opts...)),
	)
	if err != nil {
		return err
	}
	out, err := renderer.Render(ctx, screen, render.RenderOptions{Answers: a})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.stdout, string(out))
	return err
}

func runSummary(ctx context.Context, env *environment, args []string) error {
	set := flag.NewFlagSet("summary", flag.ContinueOnError)
	set.SetOutput(env.stderr)
	var flags screenFlags
	flags.register(set)
	themeFile := set.String("theme-file", "", "YAML file with one or more theme manifests")
	themeName := set.String("theme", "", "theme name (defaults to the first manifest)")
	variant := set.String("variant", "", "theme variant")
	action := set.String("action", "", "form action; when empty no confirm form is rendered")
	output := set.String("output", "", "output file (stdout if empty)")
	if err := set.Parse(args); err != nil {
		return err
	}

	screen, a, err := flags.load()
	if err != nil {
		return err
	}
	opts, err := flags.validationOptions(env.logger)
	if err != nil {
		return err
	}

	var rendererOpts []summary.Option
	if *themeFile != "" {
		manifests, err := loadManifests(*themeFile)
		if err != nil {
			return err
		}
		selector, err := summary.NewStaticSelector(manifests...)
		if err != nil {
			return err
		}
		rendererOpts = append(rendererOpts, summary.WithThemeSelector(selector))
	}
	renderer, err := summary.New(rendererOpts...)
	if err != nil {
		return err
	}

	result := formwizard.Check(screen, a, opts...)
	html, err := renderer.Render(ctx, screen, render.RenderOptions{
		Answers: a,
		Errors:  result.Errors,
		Locale:  flags.locale,
		Theme:   *themeName,
		Variant: *variant,
		Action:  *action,
	})
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = env.stdout.Write(html)
		return err
	}
	if err := os.WriteFile(*output, html, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	env.logger.Info("summary written", slog.String("path", *output), slog.String("screen", screen.ID))
	return nil
}

func runContract(ctx context.Context, env *environment, args []string) error {
	set := flag.NewFlagSet("contract", flag.ContinueOnError)
	set.SetOutput(env.stderr)
	schemaPath := set.String("schema", "", "screen document file or directory (required)")
	title := set.String("title", "", "document title")
	version := set.String("version", "", "document version")
	if err := set.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*schemaPath) == "" {
		return errors.New("-schema is required")
	}

	store, err := formwizard.LoadScreens(*schemaPath)
	if err != nil {
		return err
	}
	doc, err := contract.Document(ctx, contract.Info{Title: *title, Version: *version}, store.Screens()...)
	if err != nil {
		return err
	}
	return writeJSON(env.stdout, doc)
}

type manifestFile struct {
	Themes []themeFile `yaml:"themes"`
}

type themeFile struct {
	Name     string                       `yaml:"name"`
	Version  string                       `yaml:"version"`
	Tokens   map[string]string            `yaml:"tokens"`
	Variants map[string]map[string]string `yaml:"variants"`
}

// loadManifests reads theme manifests written as
//
//	themes:
//	  - name: clinic
//	    tokens: {brand.primary: "#0a6"}
//	    variants:
//	      dark: {surface: "#111"}
func loadManifests(path string) ([]*theme.Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme file: %w", err)
	}
	var file manifestFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode theme file %s: %w", path, err)
	}

	out := make([]*theme.Manifest, 0, len(file.Themes))
	for _, entry := range file.Themes {
		manifest := &theme.Manifest{
			Name:    entry.Name,
			Version: entry.Version,
			Tokens:  entry.Tokens,
		}
		if len(entry.Variants) > 0 {
			manifest.Variants = make(map[string]theme.Variant, len(entry.Variants))
			for name, tokens := range entry.Variants {
				manifest.Variants[name] = theme.Variant{Tokens: tokens}
			}
		}
		out = append(out, manifest)
	}
	return out, nil
}

func writeJSON(w io.Writer, value any) error {
	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
