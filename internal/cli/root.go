// Package cli implements the tint command line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/tint/internal/cascade"
	"github.com/opencode-ai/tint/internal/config"
	"github.com/opencode-ai/tint/internal/db"
	"github.com/opencode-ai/tint/internal/engine"
	"github.com/opencode-ai/tint/internal/logging"
)

var (
	flagConfig   string
	flagDatabase string
	flagLogLevel string
	flagJSON     bool

	appConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tint",
	Short: "Design token engine",
	Long:  "tint stores design tokens, resolves references, regenerates color scales and enforces contrast compliance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagDatabase != "" {
			cfg.Database = flagDatabase
		}
		if flagLogLevel != "" {
			cfg.Log.Level = flagLogLevel
		}
		appConfig = cfg

		logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "db", "", "path to the token database")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON instead of tables")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the loaded application configuration.
func GetConfig() *config.Config {
	return appConfig
}

// IsJSONOutput reports whether --json was requested.
func IsJSONOutput() bool {
	return flagJSON
}

// WriteOutput encodes value as indented JSON.
func WriteOutput(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// openDatabase opens the configured sqlite database, creating parent
// directories and applying migrations as needed.
func openDatabase() (*db.DB, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	if dir := filepath.Dir(cfg.Database); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	database, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.MigrateUp(context.Background()); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return database, nil
}

// session bundles a running engine with its backing database so commands
// can load state, mutate it and persist the result.
type session struct {
	Engine   *engine.Engine
	Database *db.DB
	Graph    *db.GraphStore
}

// openSession loads the persisted token graph into a fresh engine.
func openSession(ctx context.Context) (*session, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, err
	}

	graph := db.NewGraphStore(database)
	doc, err := graph.Load(ctx)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("load token graph: %w", err)
	}

	eng := engine.New(engineConfig(), db.NewEventRepository(database))
	if err := eng.Import(ctx, doc); err != nil {
		database.Close()
		return nil, fmt.Errorf("import token graph: %w", err)
	}

	return &session{Engine: eng, Database: database, Graph: graph}, nil
}

// Save persists the engine state back to the database.
func (s *session) Save(ctx context.Context) error {
	if err := s.Graph.Save(ctx, s.Engine.Export()); err != nil {
		return fmt.Errorf("save token graph: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *session) Close() {
	s.Database.Close()
}

func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	app := GetConfig()
	if app == nil {
		return cfg
	}

	cfg.AutoScan = app.Compliance.AutoScan
	cfg.Cascade = cascade.Config{
		LightSaturation:     app.Cascade.LightSaturation,
		LightValue:          app.Cascade.LightValue,
		DarkSaturationBoost: app.Cascade.DarkSaturationBoost,
		DarkValueScale:      app.Cascade.DarkValueScale,
		DarkValueFloor:      app.Cascade.DarkValueFloor,
	}
	return cfg
}
