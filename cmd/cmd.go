package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/thiagokokada/statetree/internal/buildinfo"
	"github.com/thiagokokada/statetree/internal/config"
	"github.com/thiagokokada/statetree/internal/git"
	gitbackend "github.com/thiagokokada/statetree/internal/git/backend"
	"github.com/thiagokokada/statetree/internal/manifest"
	"github.com/thiagokokada/statetree/internal/render"
	"github.com/thiagokokada/statetree/internal/statetree"
	"github.com/thiagokokada/statetree/internal/watch"
)

const usage = `usage: statetree [flags] <root-url> [environment...]

Exports the states of each named environment (every environment when none
is named) of the root repository as YAML.

`

func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("statetree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "path to config.yaml (default: user config directory)")
	list := fs.Bool("list", false, "list environments and exit")
	diff := fs.String("diff", "", "show a unified diff between two environments, e.g. base,prod")
	watchRoot := fs.Bool("watch", false, "export again whenever a local root repository changes")
	noVerify := fs.Bool("no-verify", false, "skip reference verification before exporting")
	jobs := fs.Int("jobs", statetree.DefaultJobs, "number of states verified concurrently")
	maxCopies := fs.Int("max-working-copies", git.DefaultMaxWorkingCopies, "maximum number of working copies on disk at once")
	backend := fs.String("backend", gitbackend.KindCLI, "git backend: cli or native")
	color := fs.String("color", render.ColorAuto.String(), "colorize output: auto, always, or never")
	theme := fs.String("theme", render.ThemeAuto.String(), "color theme: auto, light, or dark")
	gitTimeout := fs.Duration("git-timeout", 0, "timeout for each git invocation (0 disables)")
	manifestPath := fs.String("manifest", manifest.DefaultFile, "manifest path inside each environment branch")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, buildinfo.Read())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "no-verify":
			cfg.Verify = !*noVerify
		case "jobs":
			cfg.Jobs = *jobs
		case "max-working-copies":
			cfg.MaxWorkingCopies = *maxCopies
		case "backend":
			cfg.Backend = strings.ToLower(strings.TrimSpace(*backend))
		case "color":
			cfg.Color = *color
		case "theme":
			cfg.Theme = *theme
		case "git-timeout":
			cfg.GitTimeout = config.Duration(*gitTimeout)
		case "manifest":
			cfg.Manifest = *manifestPath
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	root := cfg.Root
	environments := fs.Args()
	if len(environments) > 0 {
		root, environments = environments[0], environments[1:]
	}
	if root == "" {
		fs.Usage()
		return errors.New("missing root repository URL")
	}
	var diffPair [2]string
	if *diff != "" {
		a, b, ok := strings.Cut(*diff, ",")
		a, b = strings.TrimSpace(a), strings.TrimSpace(b)
		if !ok || a == "" || b == "" || strings.Contains(b, ",") {
			return fmt.Errorf("-diff wants two environments separated by a comma, got %q", *diff)
		}
		diffPair = [2]string{a, b}
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run", uuid.NewString()))

	gitBackend, err := gitbackend.New(cfg.Backend, gitbackend.Options{
		Timeout: time.Duration(cfg.GitTimeout),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	svc := git.NewWithBackend(gitBackend, git.Options{MaxWorkingCopies: cfg.MaxWorkingCopies, Logger: logger})
	resolver := statetree.NewResolver(svc, statetree.Options{
		Manifest: cfg.Manifest,
		Jobs:     cfg.Jobs,
		Verify:   cfg.Verify,
		Logger:   logger,
	})
	colorMode, _ := render.ParseColorMode(cfg.Color)
	themePref, _ := render.ParseTheme(cfg.Theme)
	printer := render.NewPrinter(render.Options{Color: colorMode, Theme: themePref, Logger: logger})

	app := &app{
		root:     root,
		resolver: resolver,
		printer:  printer,
		stdout:   stdout,
	}
	action := func(ctx context.Context) error {
		switch {
		case *list:
			return app.list(ctx)
		case *diff != "":
			return app.diff(ctx, diffPair[0], diffPair[1])
		default:
			return app.export(ctx, environments)
		}
	}
	if !*watchRoot {
		return action(ctx)
	}
	path, ok := watch.LocalPath(root)
	if !ok {
		return fmt.Errorf("-watch needs a local root repository, not %s", root)
	}
	logger.Info("watching root repository", slog.String("path", path))
	return watch.Run(ctx, path, watch.Options{Logger: logger}, action)
}

// loadConfig reads an explicit config path strictly and the default path
// only when it exists.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path, true)
	}
	path, err := config.DefaultPath()
	if err != nil {
		return config.Default(), nil
	}
	cfg, err := config.Load(path, false)
	if errors.Is(err, fs.ErrPermission) {
		return config.Default(), nil
	}
	return cfg, err
}

type app struct {
	root     string
	resolver *statetree.Resolver
	printer  *render.Printer
	stdout   io.Writer
}

func (a *app) list(ctx context.Context) error {
	tree, err := a.resolver.Scan(ctx, a.root)
	if err != nil {
		return err
	}
	for _, name := range tree.Names() {
		if _, err := fmt.Fprintln(a.stdout, name); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) export(ctx context.Context, environments []string) error {
	docs, err := a.resolver.Resolve(ctx, a.root, environments...)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if len(docs) > 1 {
			if _, err := fmt.Fprintf(a.stdout, "# %s\n", doc.Environment); err != nil {
				return err
			}
		}
		if err := a.printer.YAML(a.stdout, doc.Data); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) diff(ctx context.Context, from, to string) error {
	docs, err := a.resolver.Resolve(ctx, a.root, from, to)
	if err != nil {
		return err
	}
	out, err := render.Diff(from, docs[0].Data, to, docs[1].Data)
	if err != nil {
		return err
	}
	return a.printer.Diff(a.stdout, out)
}
