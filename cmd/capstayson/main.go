package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/example/capstayson/internal/config"
	"github.com/example/capstayson/internal/logging"
	"github.com/example/capstayson/internal/notify"
	"github.com/example/capstayson/internal/theme"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type runnable interface{ Run() error }

type root struct {
	fs      *flag.FlagSet
	program string
	stdout  io.Writer
	stderr  io.Writer
	getenv  func(string) string

	configPath    string
	themeName     string
	logFormat     string
	logLevel      string
	exportAlerts  bool
	publishAlerts bool
	copyAlerts    bool

	config      *config.Config
	log         *zap.Logger
	notifier    *notify.Notifier
	activeTheme *theme.Theme
}

func (r *root) Program() string { return r.program }

func (r *root) FlagSet() *flag.FlagSet { return r.fs }

func newRoot(stdout, stderr io.Writer, getenv func(string) string) *root {
	r := &root{
		fs:      newFlagSet("capstayson"),
		program: "capstayson",
		stdout:  stdout,
		stderr:  stderr,
		getenv:  getenv,
	}
	r.fs.StringVar(&r.configPath, "config", "", "path to the configuration file")
	r.fs.StringVar(&r.themeName, "theme", "", "editor colour theme (light, dark or a theme file)")
	r.fs.StringVar(&r.logFormat, "log-format", "", "log output format: console or json")
	r.fs.StringVar(&r.logLevel, "log-level", "", "minimum log level: debug, info, warn or error")
	r.fs.BoolVar(&r.exportAlerts, "notify-export", false, "show a desktop notification after exporting a PNG")
	r.fs.BoolVar(&r.publishAlerts, "notify-publish", false, "show a desktop notification after publishing to the feed")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notification after copying to the clipboard")
	return r
}

// setup loads configuration and applies the root flags over it.
// Precedence is CLI > environment > config file > default.
func (r *root) setup() error {
	loader := config.NewLoader(version, r.configPath)
	cfg, err := loader.Load()
	if err != nil {
		if r.configPath != "" {
			return fmt.Errorf("load config: %w", err)
		}
		fmt.Fprintf(r.stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
		config.ApplyEnv(cfg, r.getenv)
	}
	set := map[string]bool{}
	r.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if r.themeName != "" {
		cfg.Theme = r.themeName
	}
	if r.logFormat != "" {
		cfg.LogFormat = r.logFormat
	}
	if r.logLevel != "" {
		cfg.LogLevel = r.logLevel
	}
	if set["notify-export"] {
		cfg.Notify.Export = r.exportAlerts
	}
	if set["notify-publish"] {
		cfg.Notify.Publish = r.publishAlerts
	}
	if set["notify-copy"] {
		cfg.Notify.Copy = r.copyAlerts
	}
	r.config = cfg

	log, err := logging.New(logging.Options{Format: cfg.LogFormat, Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	r.log = log.With(zap.String("version", version))

	r.notifier = notify.New(notify.LoadPreferences(r.getenv), notify.WithLogger(r.log))
	r.notifier.Enable(notify.EventExport, cfg.Notify.Export)
	r.notifier.Enable(notify.EventPublish, cfg.Notify.Publish)
	r.notifier.Enable(notify.EventCopy, cfg.Notify.Copy)

	r.activeTheme = r.loadTheme(cfg.Theme)
	return nil
}

func (r *root) loadTheme(name string) *theme.Theme {
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && !strings.EqualFold(name, "default") {
			fmt.Fprintf(r.stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := parseFlags(r.fs, args, r); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]
	if cmdName == "version" {
		return (&versionCmd{r: r}).Run()
	}
	if cmdName == "help" {
		return &UsageError{of: r}
	}
	if err := r.setup(); err != nil {
		return err
	}
	defer logging.Sync(r.log)

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "compose":
		cmd, err = parseComposeCmd(subArgs, r)
	case "publish":
		cmd, err = parsePublishCmd(subArgs, r)
	case "feed":
		cmd, err = parseFeedCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot(os.Stdout, os.Stderr, os.Getenv)
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
