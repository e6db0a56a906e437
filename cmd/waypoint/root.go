package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/waypoint/internal/artifact"
	"github.com/kingrea/waypoint/internal/catalog"
	"github.com/kingrea/waypoint/internal/config"
	"github.com/kingrea/waypoint/internal/logbook"
	"github.com/kingrea/waypoint/internal/logging"
	"github.com/kingrea/waypoint/internal/metrics"
	"github.com/kingrea/waypoint/internal/packet"
	"github.com/kingrea/waypoint/internal/processes"
	"github.com/kingrea/waypoint/internal/session"
	"github.com/kingrea/waypoint/internal/tui"
	"github.com/kingrea/waypoint/internal/wizard"
	"github.com/kingrea/waypoint/plugins"
)

const templateFetchTimeout = 30 * time.Second

// cli carries the flags and console logger shared by every subcommand.
type cli struct {
	workspace string
	verbose   bool
	logger    *zap.Logger
}

// env is everything a command needs once the project is loaded.
type env struct {
	cfg      *config.Config
	log      *logging.Logger
	registry *catalog.Registry
	metrics  *metrics.Metrics
	source   packet.Source
	compiler *packet.Compiler
	sessions *session.Store
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	var resume bool
	var sessionID string

	root := &cobra.Command{
		Use:   "waypoint",
		Short: "Plan and prepare gender marker and name change paperwork",
		Long: `waypoint walks you through the legal name and gender marker updates you
want, works out every other process they depend on, asks only the questions
those forms need, and builds a printable packet of filled forms and guides.

Run without arguments to start the interactive wizard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.logger != nil {
				return nil
			}
			zcfg := zap.NewProductionConfig()
			zcfg.Encoding = "console"
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if c.verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWizard(resume, sessionID)
		},
	}
	root.PersistentFlags().StringVarP(&c.workspace, "workspace", "w", "", "project directory (default: current directory)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose logging")
	root.Flags().BoolVar(&resume, "resume", false, "resume the most recent session")
	root.Flags().StringVar(&sessionID, "session", "", "resume a specific session")

	root.AddCommand(
		c.newResolveCmd(),
		c.newFieldsCmd(),
		c.newCompileCmd(),
		c.newServeCmd(),
		c.newCatalogCmd(),
		c.newTemplatesCmd(),
		c.newSessionsCmd(),
	)
	return root
}

func (c *cli) projectDir() (string, error) {
	if c.workspace != "" {
		return filepath.Abs(c.workspace)
	}
	return os.Getwd()
}

func (c *cli) console() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

// load prepares the .waypoint directory and builds the shared components.
func (c *cli) load() (*env, error) {
	dir, err := c.projectDir()
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !os.IsNotExist(err) {
		c.console().Warn("ignoring unreadable .env", zap.Error(err))
	}
	if err := config.InitWaypointDir(dir); err != nil {
		return nil, fmt.Errorf("initialize .waypoint: %w", err)
	}
	cfg, err := config.NewConfig(dir)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(dir, cfg.LogLevel())
	if err != nil {
		return nil, err
	}
	if c.verbose {
		log.SetLevel("debug")
	}
	registry := processes.Default()
	extra, err := plugins.RegisterProcessPlugins(registry, cfg)
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	if len(extra) > 0 {
		log.Info("process plugins loaded", zap.Int("count", len(extra)))
	}
	m := metrics.New()
	source, err := packet.SourceFromConfig(cfg.Project.Templates, processes.Templates(), &http.Client{Timeout: templateFetchTimeout})
	if err != nil {
		_ = log.Close()
		return nil, err
	}
	compiler := packet.NewCompiler(source,
		packet.WithGuides(registry),
		packet.WithLogger(log.Named("packet")),
		packet.WithMetrics(m),
	)
	sessions := session.New(artifact.NewStore(cfg.SessionsDir()),
		session.WithOutputDir(cfg.OutputDir()),
		session.WithLogger(log.Named("session")),
	)
	log.Debug("project loaded",
		zap.String("dir", dir),
		zap.String("templates", source.Name()),
		zap.String("jurisdiction", cfg.Jurisdiction()),
	)
	return &env{
		cfg:      cfg,
		log:      log,
		registry: registry,
		metrics:  m,
		source:   source,
		compiler: compiler,
		sessions: sessions,
	}, nil
}

func (e *env) Close() {
	if e == nil {
		return
	}
	_ = e.log.Close()
}

func (e *env) newState(opts ...wizard.Option) *wizard.State {
	return wizard.New(e.registry, append([]wizard.Option{wizard.WithMetrics(e.metrics)}, opts...)...)
}

func (c *cli) runWizard(resume bool, sessionID string) error {
	e, err := c.load()
	if err != nil {
		return err
	}
	defer e.Close()

	book, err := logbook.New(e.cfg.JourneyPath())
	if err != nil {
		return fmt.Errorf("open journey log: %w", err)
	}
	opts := []tui.AppOption{
		tui.WithLogbook(book),
		tui.WithMetrics(e.metrics),
		tui.WithSessions(e.sessions),
	}
	if resume && sessionID == "" {
		latest, err := e.sessions.Latest()
		if err != nil {
			return err
		}
		sessionID = latest
	}
	if sessionID != "" {
		state := e.newState(wizard.WithLogbook(book))
		if err := e.sessions.Load(sessionID, state); err != nil {
			return err
		}
		opts = append(opts, tui.WithState(state))
	}
	app, err := tui.NewApp(e.cfg, e.registry, e.compiler, opts...)
	if err != nil {
		return err
	}
	e.log.Info("wizard started", zap.String("session", app.State().ID()))
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}
	return nil
}
