package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/example/capstayson/internal/feed"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type publishCmd struct {
	*root
	fs     *flag.FlagSet
	caps   int
	handle string
	path   string
}

func (p *publishCmd) Program() string { return p.root.program + " publish" }

func (p *publishCmd) FlagSet() *flag.FlagSet { return p.fs }

func parsePublishCmd(args []string, r *root) (*publishCmd, error) {
	fs := newFlagSet("publish")
	p := &publishCmd{root: r, fs: fs}
	fs.IntVar(&p.caps, "caps", 1, "number of caps in the image")
	fs.StringVar(&p.handle, "handle", r.config.Feed.Handle, "handle attached to the post")
	if err := parseFlags(fs, args, p); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: p}
	}
	p.path = fs.Arg(0)
	return p, nil
}

func postLink(site, id string) string {
	return strings.TrimRight(site, "/") + "/post/" + id
}

func (p *publishCmd) Run() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return fmt.Errorf("%s is not a PNG", p.path)
	}
	ctx := context.Background()
	store, closeFn, err := p.openFeed(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	post, err := store.Publish(ctx, feed.PublishRequest{PNG: data, Caps: p.caps, Handle: p.handle})
	if err != nil {
		return err
	}
	link := postLink(p.site(), post.ID)
	p.notifier.Publish(link)
	fmt.Fprintln(p.stdout, link)
	return nil
}
