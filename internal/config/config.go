package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/capstayson/internal/theme"
)

// Notify selects which events raise a desktop notification.
type Notify struct {
	Export  bool
	Publish bool
	Copy    bool
}

// Feed configures where published composites go.
type Feed struct {
	// Dir holds blobs and the metadata document for the file backend.
	Dir string
	// RedisAddr switches the backend to redis when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Site is the public origin used for blob URLs and share links.
	Site string
	// Listen is the address `capstayson serve` binds.
	Listen   string
	MaxPosts int
	// Handle is the default author for publish.
	Handle string
}

// Editor holds editor defaults.
type Editor struct {
	// CapPath replaces the embedded cap image when set.
	CapPath string
	Width   int
	Height  int
}

// Config holds the application configuration.
type Config struct {
	Theme     string
	SaveDir   string
	LogFormat string
	LogLevel  string
	Notify    Notify
	Feed      Feed
	Editor    Editor
	Themes    map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Feed: Feed{
			Listen:   ":8080",
			MaxPosts: 100,
		},
		Editor: Editor{
			Width:  1024,
			Height: 768,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	root := [][2]string{
		{"theme", c.Theme},
		{"save_dir", c.SaveDir},
		{"log_format", c.LogFormat},
		{"log_level", c.LogLevel},
	}
	for _, kv := range root {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv[0], kv[1])
		}
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "publish = %v\n", c.Notify.Publish)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[feed]\n")
	for _, kv := range [][2]string{
		{"dir", c.Feed.Dir},
		{"redis_addr", c.Feed.RedisAddr},
		{"redis_password", c.Feed.RedisPassword},
		{"site", c.Feed.Site},
		{"listen", c.Feed.Listen},
		{"handle", c.Feed.Handle},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv[0], kv[1])
		}
	}
	if c.Feed.RedisDB != 0 {
		fmt.Fprintf(&sb, "redis_db = %d\n", c.Feed.RedisDB)
	}
	fmt.Fprintf(&sb, "max_posts = %d\n", c.Feed.MaxPosts)
	sb.WriteString("\n")

	sb.WriteString("[editor]\n")
	if c.Editor.CapPath != "" {
		fmt.Fprintf(&sb, "cap = %s\n", c.Editor.CapPath)
	}
	fmt.Fprintf(&sb, "width = %d\n", c.Editor.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Editor.Height)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
