package main

import (
	"bytes"
	"embed"
	"flag"
	"fmt"
	"io"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var helpFS embed.FS

var (
	helpOnce sync.Once
	helpTmpl *template.Template
)

func parseHelpTemplates() {
	helpTmpl = template.Must(template.New("").Funcs(map[string]any{
		"flags": func(fs *flag.FlagSet) []flagInfo {
			result := []flagInfo{}
			if fs == nil {
				return result
			}
			fs.VisitAll(func(f *flag.Flag) {
				result = append(result, flagInfo{f.Name, f.DefValue, f.Usage})
			})
			return result
		},
	}).ParseFS(helpFS, "templates/*.txt"))
}

type flagInfo struct {
	Name     string
	DefValue string
	Usage    string
}

// HelpData is implemented by every command that can render help.
type HelpData interface {
	Program() string
	Template() string
	FlagSet() *flag.FlagSet
}

// UsageError renders the help of the command it was raised by.
type UsageError struct {
	of  HelpData
	msg string
}

func (e *UsageError) Error() string {
	help, err := e.renderHelp()
	if err != nil {
		return err.Error()
	}
	if e.msg != "" {
		return e.msg + "\n\n" + help
	}
	return help
}

func (e *UsageError) renderHelp() (string, error) {
	helpOnce.Do(parseHelpTemplates)
	var buf bytes.Buffer
	if err := helpTmpl.ExecuteTemplate(&buf, e.of.Template(), e.of); err != nil {
		return "", fmt.Errorf("render help: %w", err)
	}
	return buf.String(), nil
}

// newFlagSet returns a flag set that reports problems through UsageError
// instead of printing them.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags parses args into fs, turning -h and bad flags into a UsageError.
func parseFlags(fs *flag.FlagSet, args []string, h HelpData) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return &UsageError{of: h}
		}
		return &UsageError{of: h, msg: err.Error()}
	}
	return nil
}

func (r *root) Template() string { return "root.txt" }

func (e *editCmd) Template() string { return "edit.txt" }

func (c *composeCmd) Template() string { return "compose.txt" }

func (p *publishCmd) Template() string { return "publish.txt" }

func (f *feedCmd) Template() string { return "feed.txt" }

func (s *serveCmd) Template() string { return "serve.txt" }

func (c *configCmd) Template() string { return "config.txt" }

func (v *versionCmd) Template() string { return "version.txt" }
