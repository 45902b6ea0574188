package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/example/capstayson/internal/feed"
)

type feedCmd struct {
	*root
	fs *flag.FlagSet
}

func (f *feedCmd) Program() string { return f.root.program + " feed" }

func (f *feedCmd) FlagSet() *flag.FlagSet { return f.fs }

func parseFeedCmd(args []string, r *root) (*feedCmd, error) {
	f := &feedCmd{root: r, fs: newFlagSet("feed")}
	if err := parseFlags(f.fs, args, f); err != nil {
		return nil, err
	}
	if f.fs.NArg() < 1 {
		return nil, &UsageError{of: f}
	}
	return f, nil
}

func (f *feedCmd) Run() error {
	ctx := context.Background()
	store, closeFn, err := f.openFeed(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	args := f.fs.Args()
	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return f.runList(ctx, store, rest)
	case "show":
		if len(rest) != 1 {
			return &UsageError{of: f}
		}
		post, err := store.FindByID(ctx, rest[0])
		if err != nil {
			return err
		}
		printPost(f.stdout, post)
		return nil
	case "like":
		if len(rest) != 1 {
			return &UsageError{of: f}
		}
		post, err := store.ToggleLike(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(f.stdout, "%s now has %d likes\n", post.ID, post.Likes)
		return nil
	case "comment":
		return f.runComment(ctx, store, rest)
	case "profile":
		if len(rest) != 1 {
			return &UsageError{of: f}
		}
		p, err := store.Profile(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(f.stdout, "@%s  %d creations  %d likes  joined %s\n",
			p.Handle, p.TotalCreations, p.TotalLikes, p.JoinedDate.Format(time.DateOnly))
		printPosts(f.stdout, p.Posts)
		return nil
	case "users":
		users, err := store.Users(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Fprintf(f.stdout, "@%s\n", u)
		}
		return nil
	case "share":
		if len(rest) != 1 {
			return &UsageError{of: f}
		}
		if _, err := store.FindByID(ctx, rest[0]); err != nil {
			return err
		}
		fmt.Fprintln(f.stdout, feed.ShareURL(f.site(), rest[0]))
		return nil
	default:
		return &UsageError{of: f, msg: fmt.Sprintf("unknown feed command: %s", sub)}
	}
}

func (f *feedCmd) runList(ctx context.Context, store *feed.Store, args []string) error {
	fs := newFlagSet("list")
	all := fs.Bool("all", false, "list every post")
	n := fs.Int("n", feed.DefaultRecent, "number of recent posts")
	if err := parseFlags(fs, args, f); err != nil {
		return err
	}
	var (
		posts []feed.Post
		err   error
	)
	if *all {
		posts, err = store.ListAll(ctx)
	} else {
		posts, err = store.ListRecent(ctx, *n)
	}
	if err != nil {
		return err
	}
	printPosts(f.stdout, posts)
	return nil
}

func (f *feedCmd) runComment(ctx context.Context, store *feed.Store, args []string) error {
	fs := newFlagSet("comment")
	author := fs.String("author", f.config.Feed.Handle, "comment author")
	if err := parseFlags(fs, args, f); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return &UsageError{of: f}
	}
	c, err := store.AddComment(ctx, fs.Arg(0), strings.Join(fs.Args()[1:], " "), *author)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.stdout, "comment %s added\n", c.ID)
	return nil
}

func printPosts(w io.Writer, posts []feed.Post) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tCAPS\tLIKES\tCOMMENTS\tHANDLE")
	for _, p := range posts {
		handle := p.TwitterHandle
		if handle != "" {
			handle = "@" + handle
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			p.ID, p.Timestamp.Local().Format(time.DateTime), p.Caps, p.Likes, len(p.Comments), handle)
	}
	_ = tw.Flush()
}

func printPost(w io.Writer, p feed.Post) {
	fmt.Fprintf(w, "%s\n  url:   %s\n  when:  %s\n  caps:  %d\n  likes: %d\n",
		p.ID, p.URL, p.Timestamp.Local().Format(time.DateTime), p.Caps, p.Likes)
	if p.TwitterHandle != "" {
		fmt.Fprintf(w, "  by:    @%s\n", p.TwitterHandle)
	}
	for _, c := range p.Comments {
		author := c.Author
		if author == "" {
			author = "anonymous"
		}
		fmt.Fprintf(w, "  - %s: %s\n", author, c.Text)
	}
}
