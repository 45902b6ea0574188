package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
save_dir = /tmp/caps
log_format = json

[notify]
export = true
publish = false
copy = true

[feed]
dir = /var/lib/capstayson
redis_addr = localhost:6379
redis_db = 2
site = "https://capstayson.fun"
max_posts = 50
handle = @me

[editor]
cap = /opt/cap.png
width = 800

[theme.My_Theme]
Background = #111111
StatusText: teal
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" || cfg.SaveDir != "/tmp/caps" || cfg.LogFormat != "json" {
		t.Errorf("root section: %+v", cfg)
	}
	if cfg.Notify != (Notify{Export: true, Copy: true}) {
		t.Errorf("notify: %+v", cfg.Notify)
	}
	want := Feed{
		Dir:       "/var/lib/capstayson",
		RedisAddr: "localhost:6379",
		RedisDB:   2,
		Site:      "https://capstayson.fun",
		Listen:    ":8080",
		MaxPosts:  50,
		Handle:    "@me",
	}
	if cfg.Feed != want {
		t.Errorf("feed: %+v", cfg.Feed)
	}
	if cfg.Editor != (Editor{CapPath: "/opt/cap.png", Width: 800, Height: 768}) {
		t.Errorf("editor: %+v", cfg.Editor)
	}

	th, ok := cfg.Themes["My_Theme"]
	if !ok {
		t.Fatal("Expected theme 'My_Theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.StatusText.G != 0x80 {
		t.Errorf("Unexpected theme colours: %+v", th)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"[notify]\nexport = maybe\n",
		"[feed]\nmax_posts = 0\n",
		"[editor]\nwidth = wide\n",
		"[theme.x]\nBackground = #12\n",
	}
	for _, in := range tests {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("expected an error for %q", in)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
save_dir = /home/user/caps

[notify]
export = true
publish = true
copy = false

[feed]
site = https://example.org
redis_db = 3

[theme.custom]
Name = custom
Background = #000000
MessageBackground = #FFFFFF80
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	require.NoError(t, err)

	assert.Equal(t, cfg.Theme, cfg2.Theme)
	assert.Equal(t, cfg.SaveDir, cfg2.SaveDir)
	assert.Equal(t, cfg.Notify, cfg2.Notify)
	assert.Equal(t, cfg.Feed, cfg2.Feed)
	assert.Equal(t, cfg.Editor, cfg2.Editor)
	require.Contains(t, cfg2.Themes, "custom")
	assert.Equal(t, *cfg.Themes["custom"], *cfg2.Themes["custom"])
}

func TestApplyEnv(t *testing.T) {
	cfg := New()
	cfg.Feed.Dir = "/from/file"
	env := map[string]string{
		EnvFeedDir:   "/from/env",
		EnvRedisAddr: "redis:6379",
		EnvRedisDB:   "nope",
		EnvListen:    " :9000 ",
		EnvTheme:     "",
	}
	ApplyEnv(cfg, func(k string) string { return env[k] })
	assert.Equal(t, "/from/env", cfg.Feed.Dir)
	assert.Equal(t, "redis:6379", cfg.Feed.RedisAddr)
	assert.Equal(t, 0, cfg.Feed.RedisDB)
	assert.Equal(t, ":9000", cfg.Feed.Listen)
	assert.Equal(t, "", cfg.Theme)
}

func TestLoaderOverridePathAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.rc")
	require.NoError(t, os.WriteFile(path, []byte("theme = light\n[feed]\nlisten = :7000\n"), 0o644))
	t.Setenv(EnvListen, ":7100")
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoader("v1.0.0", path).Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, ":7100", cfg.Feed.Listen, "environment beats the file")
}

func TestLoaderDotEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	confDir := filepath.Join(home, ".config", "capstayson")
	require.NoError(t, os.MkdirAll(confDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(confDir, ".env"), []byte("CAPSTAYSON_HANDLE=dotenv_user\n"), 0o644))
	t.Setenv(EnvHandle, "")
	require.NoError(t, os.Unsetenv(EnvHandle))

	cfg, err := NewLoader("v1.0.0", "").Load()
	require.NoError(t, err)
	assert.Equal(t, "dotenv_user", cfg.Feed.Handle)
}

func TestLoaderMissingFileGivesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := NewLoader("v1.0.0", filepath.Join(t.TempDir(), "absent.rc")).Load()
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Feed.MaxPosts)
}
