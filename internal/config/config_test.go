package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/tmp/outreach.db")
	if cfg.Database.Path != "/tmp/outreach.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.BoardType() != domain.BoardSpeakers {
		t.Fatalf("unexpected board type %q", cfg.Board.Type)
	}
	if !cfg.Board.RetractOnRollback {
		t.Fatal("expected retract_on_rollback enabled by default")
	}
	if cfg.Board.HistoryLimit != app.DefaultHistoryLimit || cfg.PollInterval() != app.DefaultPollInterval {
		t.Fatalf("unexpected board defaults %+v", cfg.Board)
	}
	if cfg.RemoteTimeout() != 30*time.Second {
		t.Fatalf("unexpected remote timeout %s", cfg.RemoteTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	defaults := Default("/tmp/outreach.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"), defaults)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != defaults.Database.Path {
		t.Fatalf("expected default db path, got %q", cfg.Database.Path)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[remote]
base_url = "https://outreach.example.org/api"
token = "u1"
timeout = "5s"

[board]
type = "Sponsors"
poll_interval = "3s"
history_limit = 20
retract_on_rollback = false

[board.filter]
assigned_to_me = true
search = " acme "

[logging]
level = "debug"

[server]
bind = ":9090"

[[server.users]]
roll_number = "a1"
name = "Admin"
is_admin = true

[[server.users]]
roll_number = "u1"
name = "Member"

[cache]
redis_url = "redis://localhost:6379/0"
ttl = "1m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path, Default("/tmp/default.db"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Path != "/tmp/default.db" {
		t.Fatalf("unexpected db path %q", cfg.Database.Path)
	}
	if cfg.BoardType() != domain.BoardSponsors || cfg.PollInterval() != 3*time.Second {
		t.Fatalf("unexpected board config %+v", cfg.Board)
	}
	if cfg.Board.RetractOnRollback || cfg.Board.HistoryLimit != 20 {
		t.Fatalf("expected board overrides, got %+v", cfg.Board)
	}
	if cfg.RemoteTimeout() != 5*time.Second || cfg.Remote.Token != "u1" {
		t.Fatalf("unexpected remote config %+v", cfg.Remote)
	}
	if q := cfg.ListQuery(); !q.AssignedToMe || q.Search != "acme" {
		t.Fatalf("unexpected list query %+v", q)
	}
	users := cfg.SeedUsers()
	if len(users) != 2 || !users[0].IsAdmin || users[1].RollNumber != "u1" {
		t.Fatalf("unexpected seed users %+v", users)
	}
	if cfg.CacheTTL() != time.Minute || cfg.Cache.RedisURL == "" {
		t.Fatalf("unexpected cache config %+v", cfg.Cache)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"board type":      "[board]\ntype = \"vendors\"\n",
		"poll interval":   "[board]\npoll_interval = \"soon\"\n",
		"negative limit":  "[board]\nhistory_limit = -1\n",
		"filter conflict": "[board.filter]\nassigned_to_me = true\nunassigned = true\n",
		"log level":       "[logging]\nlevel = \"loud\"\n",
		"base url":        "[remote]\nbase_url = \"ftp://x\"\n",
		"duplicate user":  "[[server.users]]\nroll_number = \"u1\"\nname = \"A\"\n[[server.users]]\nroll_number = \"u1\"\nname = \"B\"\n",
		"redis url":       "[cache]\nredis_url = \"http://x\"\n",
		"cache ttl":       "[cache]\nttl = \"never\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}
			if _, err := Load(path, Default("/tmp/default.db")); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b", "config.toml")
	if err := EnsureConfigDir(target); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(target)); err != nil {
		t.Fatalf("expected dir to exist, stat error %v", err)
	}
}
