// Sous-Chef: a voice/text cooking assistant that walks through a recipe
// one step at a time.
//
// Usage:
//
//	souschef cook --sample toast
//	souschef recipes list
//	souschef serve --addr :8080
package main

import (
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/souschef/internal/config"
	"github.com/hammamikhairi/souschef/internal/conversation"
	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/engine"
	"github.com/hammamikhairi/souschef/internal/gpt"
	"github.com/hammamikhairi/souschef/internal/logger"
	"github.com/hammamikhairi/souschef/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs: flags, config and the logger.
type app struct {
	cfgPath string
	logFile string
	dbPath  string
	verbose bool
	quiet   bool

	cfg     *config.Config
	log     *logger.Logger
	closers []io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "souschef",
		Short:         "Step-by-step cooking guidance by voice or text",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Name() == "cook")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to a YAML config file (default ./souschef.yaml if present)")
	f.BoolVar(&a.verbose, "verbose", false, "enable verbose/debug logging")
	f.BoolVar(&a.quiet, "quiet", false, "disable all logging")
	f.StringVar(&a.logFile, "log-file", "", "file to write logs to during cook (\"stderr\" to log to console)")
	f.StringVar(&a.dbPath, "db", "", "path to the SQLite database")

	root.AddCommand(
		newCookCmd(a),
		newRecipesCmd(a),
		newGenerateCmd(a),
		newHistoryCmd(a),
		newStatsCmd(a),
		newMarkCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads config and builds the logger. The cook command logs to a
// file so the terminal UI is not disturbed.
func (a *app) setup(toFile bool) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.logFile != "" {
		cfg.Log.File = a.logFile
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if a.verbose {
		level = logger.LevelVerbose
	}
	if a.quiet {
		level = logger.LevelOff
	}

	var out io.Writer = os.Stderr
	if toFile && cfg.Log.File != "" && cfg.Log.File != "stderr" {
		if dir := filepath.Dir(cfg.Log.File); dir != "." {
			_ = os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.Log.File, err)
		} else {
			out = f
			a.closers = append(a.closers, f)
		}
	}

	// Third-party libs such as the whisper transcriber use the standard
	// logger; keep them off the terminal.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	a.log = logger.New(level, out)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
	a.closers = nil
}

func (a *app) openDB() (*storage.SQLiteStore, error) {
	db, err := storage.NewSQLiteStore(a.cfg.Database.Path, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db)
	return db, nil
}

// agent returns the completion-backed agent, or nil when no completion
// service is configured or AI is switched off.
func (a *app) agent(noAI bool) *gpt.Agent {
	if noAI {
		return nil
	}
	g := a.cfg.GPT
	if !g.Enabled() {
		a.log.Info("AI disabled: set GPT_CHAT_KEY (or OPENAI_API_KEY) to enable")
		return nil
	}
	client := gpt.NewClient(g.Endpoint, g.Key, a.log,
		gpt.WithModel(g.Model),
		gpt.WithAPIVersion(g.APIVersion),
		gpt.WithHTTPTimeout(g.Timeout),
	)
	a.log.Info("AI enabled (model=%s)", g.Model)
	return gpt.NewAgent(client, a.log)
}

// newEngine wires a dialogue engine. A nil agent leaves the keyword
// classifier alone and answers questions with the rephrase line.
func (a *app) newEngine(recipes domain.RecipeSource, agent *gpt.Agent, opts ...engine.Option) *engine.Engine {
	d := a.cfg.Dialogue

	var primary domain.IntentClassifier
	var answerer engine.Answerer
	if agent != nil {
		primary = agent
		answerer = agent
	}
	classifier := conversation.NewClassifier(primary, a.log, conversation.WithClassifyTimeout(d.ClassifyTimeout))

	base := []engine.Option{
		engine.WithHistorySize(d.HistorySize),
		engine.WithAnswerTimeout(d.AnswerTimeout),
		engine.WithListenRetries(d.ListenRetries),
		engine.WithRetryBackoff(d.RetryBackoff),
	}
	if a.cfg.TurnLog.Path != "" {
		base = append(base, engine.WithTurnLog(storage.NewTurnLog(a.cfg.TurnLog.Path)))
	}

	return engine.New(engine.Deps{
		Recipes:    recipes,
		Sessions:   storage.NewMemoryStore(a.log),
		Classifier: classifier,
		Answerer:   answerer,
	}, a.log, append(base, opts...)...)
}

// user resolves --user to a stored user ID; empty means anonymous.
func (a *app) user(cmd *cobra.Command, db *storage.SQLiteStore, name string) (int64, error) {
	if name == "" {
		return 0, nil
	}
	return db.AddUser(cmd.Context(), name)
}

func requireUser(name string) error {
	if name == "" {
		return errors.New("--user is required")
	}
	return nil
}
