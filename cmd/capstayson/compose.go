package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/capstayson/internal/feed"
	"github.com/example/capstayson/internal/imageio"
	"github.com/example/capstayson/internal/overlay"
	"github.com/example/capstayson/internal/render"
)

// capSpec is one -cap flag: x,y[,size[,rotation[,flags]]].
type capSpec struct {
	X, Y     float64
	Size     float64
	Rotation float64
	FlipX    bool
	FlipY    bool
}

func parseCapSpec(s string) (capSpec, error) {
	def := overlay.DefaultPlacement()
	spec := capSpec{Size: def.Size}
	parts := strings.Split(s, ",")
	if len(parts) < 2 || len(parts) > 5 {
		return capSpec{}, fmt.Errorf("cap %q: want x,y[,size[,rotation[,flags]]]", s)
	}
	nums := []*float64{&spec.X, &spec.Y, &spec.Size, &spec.Rotation}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if i == 4 {
			for _, c := range strings.ToLower(p) {
				switch c {
				case 'h':
					spec.FlipX = true
				case 'v':
					spec.FlipY = true
				default:
					return capSpec{}, fmt.Errorf("cap %q: unknown flag %q", s, c)
				}
			}
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return capSpec{}, fmt.Errorf("cap %q: %w", s, err)
		}
		*nums[i] = v
	}
	return spec, nil
}

func (c capSpec) fields() overlay.Fields {
	return overlay.Fields{
		X:        overlay.Float(c.X),
		Y:        overlay.Float(c.Y),
		Size:     overlay.Float(c.Size),
		Rotation: overlay.Float(c.Rotation),
		FlipX:    overlay.Bool(c.FlipX),
		FlipY:    overlay.Bool(c.FlipY),
	}
}

// capList collects repeated -cap flags.
type capList []capSpec

func (l *capList) String() string { return fmt.Sprintf("%d caps", len(*l)) }

func (l *capList) Set(s string) error {
	spec, err := parseCapSpec(s)
	if err != nil {
		return err
	}
	*l = append(*l, spec)
	return nil
}

type composeCmd struct {
	*root
	fs      *flag.FlagSet
	output  string
	caps    capList
	publish bool
	handle  string
	photo   string
}

func (c *composeCmd) Program() string { return c.root.program + " compose" }

func (c *composeCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseComposeCmd(args []string, r *root) (*composeCmd, error) {
	fs := newFlagSet("compose")
	c := &composeCmd{root: r, fs: fs}
	fs.StringVar(&c.output, "o", "", "output PNG path, - for stdout (default <photo>-capped.png)")
	fs.Var(&c.caps, "cap", "add a cap at x,y[,size[,rotation[,flags]]] (repeatable)")
	fs.BoolVar(&c.publish, "publish", false, "also publish the result to the feed")
	fs.StringVar(&c.handle, "handle", r.config.Feed.Handle, "handle attached to the published post")
	if err := parseFlags(fs, args, c); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.photo = fs.Arg(0)
	if c.output == "" {
		c.output = defaultOutput(c.photo, r.config.SaveDir)
	}
	return c, nil
}

// buildModel returns a model holding one overlay per spec, or the default
// overlay when specs is empty.
func buildModel(specs []capSpec) *overlay.Model {
	m := overlay.NewModel()
	for i, spec := range specs {
		if i > 0 {
			m.Add()
		}
		m.Update(m.SelectedID(), spec.fields())
	}
	return m
}

func (c *composeCmd) Run() error {
	base, err := imageio.DecodeFile(c.photo)
	if err != nil {
		return err
	}
	capImg, err := c.capImage()
	if err != nil {
		return err
	}
	m := buildModel(c.caps)
	p := render.NewPipeline(m, render.WithBase(base), render.WithCap(capImg), render.WithLogger(c.log))
	data, err := p.ExportPNG()
	if err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	if err := imageio.WriteFile(c.output, data, c.stdout); err != nil {
		return err
	}
	c.notifier.Export(c.output, nil)
	if c.output != "-" {
		fmt.Fprintf(c.stderr, "wrote %s (%d caps)\n", c.output, m.Len())
	}
	if !c.publish {
		return nil
	}
	ctx := context.Background()
	store, closeFn, err := c.openFeed(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	post, err := store.Publish(ctx, feed.PublishRequest{PNG: data, Caps: m.Len(), Handle: c.handle})
	if err != nil {
		return err
	}
	c.notifier.Publish(postLink(c.site(), post.ID))
	fmt.Fprintf(c.stderr, "published %s\n", postLink(c.site(), post.ID))
	return nil
}
