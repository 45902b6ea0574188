package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/capstayson/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			currentTheme = nil

			if strings.HasPrefix(strings.ToLower(currentSection), "theme.") {
				themeName := currentSection[len("theme."):]
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch section := strings.ToLower(currentSection); {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case section == "feed":
			err = setFeedField(&cfg.Feed, key, value)
		case section == "editor":
			err = setEditorField(&cfg.Editor, key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			section := currentSection
			if section == "" {
				section = "root"
			}
			return nil, fmt.Errorf("line %d in section [%s]: %w", lineNo, section, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "log_format":
		cfg.LogFormat = value
	case "log_level":
		cfg.LogLevel = value
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "export", "save":
		n.Export = b
	case "publish":
		n.Publish = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setFeedField(f *Feed, key, value string) error {
	switch strings.ToLower(key) {
	case "dir":
		f.Dir = value
	case "redis_addr":
		f.RedisAddr = value
	case "redis_password":
		f.RedisPassword = value
	case "redis_db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for key %s: %w", key, err)
		}
		f.RedisDB = n
	case "site":
		f.Site = value
	case "listen":
		f.Listen = value
	case "max_posts":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("max_posts must be a positive integer, got %q", value)
		}
		f.MaxPosts = n
	case "handle":
		f.Handle = value
	}
	return nil
}

func setEditorField(e *Editor, key, value string) error {
	switch strings.ToLower(key) {
	case "cap":
		e.CapPath = value
	case "width", "height":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		if strings.EqualFold(key, "width") {
			e.Width = n
		} else {
			e.Height = n
		}
	}
	return nil
}
