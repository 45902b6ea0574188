package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/capstayson/internal/config"
	"github.com/example/capstayson/internal/theme"
)

type configCmd struct {
	*root
	fs *flag.FlagSet
}

func (c *configCmd) Program() string { return c.root.program + " config" }

func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	c := &configCmd{root: r, fs: newFlagSet("config")}
	if err := parseFlags(c.fs, args, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}
	switch args[0] {
	case "print":
		fmt.Fprint(c.stdout, c.config.String())
		return nil
	case "save":
		return c.runSave()
	case "themes":
		for _, name := range theme.Embedded() {
			fmt.Fprintln(c.stdout, name)
		}
		for name := range c.config.Themes {
			fmt.Fprintf(c.stdout, "%s (config)\n", name)
		}
		return nil
	default:
		return &UsageError{of: c, msg: fmt.Sprintf("unknown config command: %s", args[0])}
	}
}

func (c *configCmd) runSave() error {
	path := config.NewLoader(version, c.configPath).GetConfigPath()
	if path == "" {
		path = c.configPath
	}
	if path == "" {
		path = config.DefaultPath()
	}
	if path == "" {
		return fmt.Errorf("no home directory to save the configuration in")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(c.config.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.stderr, "Configuration saved to %s\n", path)
	return nil
}
