package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
)

type Config struct {
	Remote   RemoteConfig   `toml:"remote"`
	Board    BoardConfig    `toml:"board"`
	Logging  LoggingConfig  `toml:"logging"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
}

type RemoteConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
	Timeout string `toml:"timeout"`
}

type BoardConfig struct {
	Type              string       `toml:"type"`
	PollInterval      string       `toml:"poll_interval"`
	HistoryLimit      int          `toml:"history_limit"`
	RetractOnRollback bool         `toml:"retract_on_rollback"`
	Filter            FilterConfig `toml:"filter"`
}

type FilterConfig struct {
	AssignedToMe bool   `toml:"assigned_to_me"`
	Unassigned   bool   `toml:"unassigned"`
	Search       string `toml:"search"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // empty or relative resolves under the platform log dir
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type ServerConfig struct {
	Bind        string       `toml:"bind"`
	APIEndpoint string       `toml:"api_endpoint"`
	Users       []UserConfig `toml:"users"`
}

type UserConfig struct {
	RollNumber string `toml:"roll_number"`
	Name       string `toml:"name"`
	IsAdmin    bool   `toml:"is_admin"`
}

type CacheConfig struct {
	RedisURL string `toml:"redis_url"`
	TTL      string `toml:"ttl"`
}

func Default(dbPath string) Config {
	return Config{
		Remote: RemoteConfig{
			BaseURL: "http://127.0.0.1:8080/api",
			Timeout: "30s",
		},
		Board: BoardConfig{
			Type:              string(domain.BoardSpeakers),
			PollInterval:      app.DefaultPollInterval.String(),
			HistoryLimit:      app.DefaultHistoryLimit,
			RetractOnRollback: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
			},
		},
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:8080",
			APIEndpoint: "/api",
		},
		Cache: CacheConfig{
			TTL: "30s",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if raw := strings.TrimSpace(c.Remote.BaseURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid remote.base_url: %q", c.Remote.BaseURL)
		}
	}
	if _, err := parsePositiveDuration("remote.timeout", c.Remote.Timeout); err != nil {
		return err
	}

	if _, err := domain.ParseBoardType(c.Board.Type); err != nil {
		return fmt.Errorf("invalid board.type: %q", c.Board.Type)
	}
	if _, err := parsePositiveDuration("board.poll_interval", c.Board.PollInterval); err != nil {
		return err
	}
	if c.Board.HistoryLimit < 0 {
		return errors.New("board.history_limit must be >= 0")
	}
	if c.Board.Filter.AssignedToMe && c.Board.Filter.Unassigned {
		return errors.New("board.filter.assigned_to_me and board.filter.unassigned are mutually exclusive")
	}

	if level := strings.TrimSpace(c.Logging.Level); level != "" {
		if _, err := charmLog.ParseLevel(level); err != nil {
			return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
		}
	}

	seenUser := map[string]struct{}{}
	for idx, user := range c.Server.Users {
		roll := strings.TrimSpace(user.RollNumber)
		if roll == "" {
			return fmt.Errorf("server.users[%d].roll_number is required", idx)
		}
		if strings.TrimSpace(user.Name) == "" {
			return fmt.Errorf("server.users[%d].name is required", idx)
		}
		if _, ok := seenUser[roll]; ok {
			return fmt.Errorf("server.users[%d].roll_number is duplicated: %s", idx, roll)
		}
		seenUser[roll] = struct{}{}
	}

	if raw := strings.TrimSpace(c.Cache.RedisURL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return fmt.Errorf("invalid cache.redis_url: %q", c.Cache.RedisURL)
		}
	}
	if strings.TrimSpace(c.Cache.TTL) != "" {
		if _, err := time.ParseDuration(strings.TrimSpace(c.Cache.TTL)); err != nil {
			return fmt.Errorf("invalid cache.ttl: %q", c.Cache.TTL)
		}
	}

	return nil
}

// BoardType returns the configured board, falling back to speakers.
func (c Config) BoardType() domain.BoardType {
	board, err := domain.ParseBoardType(c.Board.Type)
	if err != nil {
		return domain.BoardSpeakers
	}
	return board
}

// PollInterval returns the parsed poll cadence, or the default when unset.
func (c Config) PollInterval() time.Duration {
	d, err := parsePositiveDuration("board.poll_interval", c.Board.PollInterval)
	if err != nil || d == 0 {
		return app.DefaultPollInterval
	}
	return d
}

// RemoteTimeout returns the per-request timeout for the HTTP client.
func (c Config) RemoteTimeout() time.Duration {
	d, err := parsePositiveDuration("remote.timeout", c.Remote.Timeout)
	if err != nil || d == 0 {
		return 30 * time.Second
	}
	return d
}

// CacheTTL returns the lead-list cache lifetime; zero disables caching.
func (c Config) CacheTTL() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Cache.TTL))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// ListQuery maps the board filter onto a list query.
func (c Config) ListQuery() app.ListQuery {
	return app.ListQuery{
		AssignedToMe: c.Board.Filter.AssignedToMe,
		Unassigned:   c.Board.Filter.Unassigned,
		Search:       strings.TrimSpace(c.Board.Filter.Search),
	}
}

// SeedUsers converts the configured server users.
func (c Config) SeedUsers() []domain.User {
	out := make([]domain.User, 0, len(c.Server.Users))
	for _, user := range c.Server.Users {
		out = append(out, domain.User{
			RollNumber: strings.TrimSpace(user.RollNumber),
			Name:       strings.TrimSpace(user.Name),
			IsAdmin:    user.IsAdmin,
		})
	}
	return out
}

func parsePositiveDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", field, raw)
	}
	return d, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
