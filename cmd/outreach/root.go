package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/janmejai2002/tedx-outreach-sub000/internal/adapters/remote/httpclient"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/app"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/config"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/domain"
	"github.com/janmejai2002/tedx-outreach-sub000/internal/platform"
)

// cliApp holds persistent flag values and the runtime resolved from them.
type cliApp struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
	token      string
	board      string
	baseURL    string

	paths  platform.Paths
	cfg    config.Config
	logger *runtimeLogger
	now    func() time.Time
}

func newRootCmd(a *cliApp) *cobra.Command {
	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv("OUTREACH_DEV_MODE"); ok {
		defaultDevMode = envDev
	}

	cmd := &cobra.Command{
		Use:          "outreach",
		Short:        "Pipeline board client and reference lead service",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Run the reference service locally
  outreach serve

  # Show the speakers board
  outreach board --token u1

  # Move one lead, then work the board interactively
  outreach move 12 researched
  outreach shell --board sponsors
`),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", envOr("OUTREACH_CONFIG", ""), "path to config TOML")
	flags.StringVar(&a.dbPath, "db", envOr("OUTREACH_DB_PATH", ""), "path to the reference service sqlite database")
	flags.StringVar(&a.appName, "app", envOr("OUTREACH_APP_NAME", platform.DefaultAppName), "application name for config/data path resolution")
	flags.BoolVar(&a.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")
	flags.StringVar(&a.token, "token", envOr("OUTREACH_TOKEN", ""), "bearer token for the lead service")
	flags.StringVar(&a.board, "board", "", "board type: speakers, sponsors or creatives")
	flags.StringVar(&a.baseURL, "url", "", "lead service base URL")

	cmd.AddCommand(newPathsCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newBoardCmd(a))
	cmd.AddCommand(newMoveCmd(a))
	cmd.AddCommand(newUpdateCmd(a))
	cmd.AddCommand(newCreateCmd(a))
	cmd.AddCommand(newBulkCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newShellCmd(a))
	return cmd
}

// setup resolves paths, loads config, and builds the runtime logger.
func (a *cliApp) setup(cmd *cobra.Command) error {
	if a.now == nil {
		a.now = time.Now
	}
	paths, err := platform.DefaultPathsWithOptions(platform.Options{AppName: a.appName, DevMode: a.devMode})
	if err != nil {
		return err
	}
	a.paths = paths

	configPath := strings.TrimSpace(a.configPath)
	if configPath == "" {
		configPath = paths.ConfigPath
	}
	dbPath := strings.TrimSpace(a.dbPath)
	dbOverridden := dbPath != ""
	if !dbOverridden {
		dbPath = paths.DBPath
	}
	cfg, err := config.Load(configPath, config.Default(dbPath))
	if err != nil {
		return fmt.Errorf("load config %q: %w", configPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = dbPath
	}
	if token := strings.TrimSpace(a.token); token != "" {
		cfg.Remote.Token = token
	}
	if board := strings.TrimSpace(a.board); board != "" {
		if _, err := domain.ParseBoardType(board); err != nil {
			return err
		}
		cfg.Board.Type = board
	}
	if baseURL := strings.TrimSpace(a.baseURL); baseURL != "" {
		cfg.Remote.BaseURL = baseURL
	}
	a.cfg = cfg

	logger, err := newRuntimeLogger(cmd.ErrOrStderr(), a.appName, a.devMode, paths.LogDir, cfg.Logging, a.now)
	if err != nil {
		return fmt.Errorf("configure runtime logger: %w", err)
	}
	a.logger = logger
	logger.Debug("startup configuration resolved", "app", a.appName, "dev_mode", a.devMode, "command", cmd.Name())
	logger.Debug("configuration loaded", "config_path", configPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Debug("dev file logging enabled", "path", devPath)
	}
	return nil
}

func (a *cliApp) teardown() error {
	if err := a.logger.Close(); err != nil {
		return fmt.Errorf("close runtime log sink: %w", err)
	}
	return nil
}

// openBoard connects to the lead service and loads the configured board.
func (a *cliApp) openBoard(ctx context.Context) (*app.Board, error) {
	boardType := a.cfg.BoardType()
	if strings.TrimSpace(a.cfg.Remote.Token) == "" {
		return nil, errors.New("no token configured: pass --token or set OUTREACH_TOKEN")
	}
	client, err := httpclient.New(a.cfg.Remote.BaseURL, boardType,
		httpclient.WithToken(a.cfg.Remote.Token),
		httpclient.WithHTTPClient(&http.Client{Timeout: a.cfg.RemoteTimeout()}),
	)
	if err != nil {
		return nil, fmt.Errorf("configure lead service client: %w", err)
	}
	stages, err := domain.DefaultStageSet(boardType)
	if err != nil {
		return nil, err
	}
	board := app.NewBoard(client, app.BoardConfig{
		Stages:            stages,
		Query:             a.cfg.ListQuery(),
		PollInterval:      a.cfg.PollInterval(),
		HistoryLimit:      a.cfg.Board.HistoryLimit,
		RetractOnRollback: a.cfg.Board.RetractOnRollback,
	}, a.logger)
	if err := board.Load(ctx); err != nil {
		a.logger.Error("board load failed", "board", boardType, "err", err)
		return nil, fmt.Errorf("load %s board: %w", boardType, err)
	}
	a.logger.Info("board loaded", "board", boardType, "count", board.Store().Len())
	return board, nil
}

func newPathsCmd(a *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config, data and log locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", a.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", a.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", a.paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", a.paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", a.cfg.Database.Path)
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", a.paths.LogDir)
			return nil
		},
	}
}

// ensureDBDir creates the parent directory of a file-backed database path.
func ensureDBDir(path string) error {
	if path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
