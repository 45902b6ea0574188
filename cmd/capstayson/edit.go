package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/capstayson/internal/clipboard"
	"github.com/example/capstayson/internal/editor"
	"github.com/example/capstayson/internal/platform"
)

type editCmd struct {
	*root
	fs            *flag.FlagSet
	output        string
	handle        string
	fromClipboard bool
	noFeed        bool
	photo         string
}

func (e *editCmd) Program() string { return e.root.program + " edit" }

func (e *editCmd) FlagSet() *flag.FlagSet { return e.fs }

type keyHelp struct {
	Keys string
	Help string
}

// Actions describes the editor shortcuts for the help template.
func (e *editCmd) Actions() []keyHelp {
	var out []keyHelp
	for _, a := range editor.Actions() {
		var keys []string
		for _, k := range a.Keys {
			keys = append(keys, describeKey(k))
		}
		out = append(out, keyHelp{Keys: strings.Join(keys, " "), Help: a.Help})
	}
	return out
}

func describeKey(k editor.KeyShortcut) string {
	name := ""
	if k.Rune > 0 {
		name = string(k.Rune)
	} else {
		name = strings.TrimPrefix(k.Code.String(), "Code")
	}
	if k.Modifiers != 0 {
		name = "Ctrl+" + name
	}
	return name
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := newFlagSet("edit")
	e := &editCmd{root: r, fs: fs}
	fs.StringVar(&e.output, "o", "", "output PNG path for Ctrl+S (default <photo>-capped.png)")
	fs.StringVar(&e.handle, "handle", r.config.Feed.Handle, "handle attached to published posts")
	fs.BoolVar(&e.fromClipboard, "from-clipboard", false, "read the photo from the clipboard")
	fs.BoolVar(&e.noFeed, "no-feed", false, "disable publishing from the editor")
	if err := parseFlags(fs, args, e); err != nil {
		return nil, err
	}
	switch {
	case e.fromClipboard && fs.NArg() > 0:
		return nil, &UsageError{of: e, msg: "a photo path cannot be combined with -from-clipboard"}
	case !e.fromClipboard && fs.NArg() != 1:
		return nil, &UsageError{of: e}
	case fs.NArg() == 1:
		e.photo = fs.Arg(0)
	}
	if e.output == "" {
		e.output = defaultOutput(e.photo, r.config.SaveDir)
	}
	return e, nil
}

// defaultOutput derives "<name>-capped.png" next to the photo, or in
// saveDir when one is configured.
func defaultOutput(photo, saveDir string) string {
	name := "capstayson.png"
	dir := ""
	if photo != "" {
		base := filepath.Base(photo)
		name = strings.TrimSuffix(base, filepath.Ext(base)) + "-capped.png"
		dir = filepath.Dir(photo)
	}
	if saveDir != "" {
		dir = saveDir
	}
	if dir == "" || dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

func (e *editCmd) Run() error {
	capImg, err := e.capImage()
	if err != nil {
		return err
	}
	opts := []editor.SessionOption{
		editor.WithOutput(e.output),
		editor.WithSessionLogger(e.log.Named("editor")),
		editor.WithNotifier(e.notifier),
		editor.WithClipboard(editor.Clipboard{
			WritePNG:  clipboard.WritePNG,
			WriteText: clipboard.WriteText,
			ReadImage: clipboard.ReadImage,
		}),
	}
	if !e.noFeed {
		store, closeFn, err := e.openFeed(context.Background())
		if err != nil {
			fmt.Fprintf(e.stderr, "warning: feed unavailable, publishing disabled: %v\n", err)
		} else {
			defer closeFn()
			opts = append(opts, editor.WithPublisher(store, e.handle, e.site()))
		}
	}

	winOpts := []editor.WindowOption{
		editor.WithTheme(e.activeTheme),
		editor.WithWindowLogger(e.log.Named("window")),
		editor.WithMaxSize(e.config.Editor.Width, e.config.Editor.Height),
	}
	var session *editor.Session
	if e.fromClipboard {
		img, err := clipboard.ReadImage()
		if err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
		session = editor.NewSession(img, capImg, opts...)
		winOpts = append(winOpts, editor.WithTitle(platform.AppName+" - clipboard"))
	} else {
		f, err := os.Open(e.photo)
		if err != nil {
			return err
		}
		defer f.Close()
		session = editor.NewSession(nil, capImg, opts...)
		winOpts = append(winOpts,
			editor.WithPhotoReader(f),
			editor.WithTitle(platform.AppName+" - "+filepath.Base(e.photo)))
	}
	editor.NewWindow(session, winOpts...).Run()
	return nil
}
