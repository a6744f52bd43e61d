package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"nutrition-backend/internal/catalog"
	"nutrition-backend/internal/kvstore"
	"nutrition-backend/internal/meals"
	"nutrition-backend/internal/recommendations"
	"nutrition-backend/internal/shared/config"
	"nutrition-backend/internal/shared/storage/db"
	"nutrition-backend/internal/shared/telemetry"
)

type options struct {
	dbPath      string
	userID      string
	catalogPath string
	verbose     bool
}

// env is what a subcommand needs once the store is open.
type env struct {
	db      *sql.DB
	store   *kvstore.SQL
	locks   *kvstore.KeyLocks
	catalog *catalog.Catalog
	userID  string
}

func (e *env) recommender() *recommendations.Service {
	cfg := recommendations.DefaultConfig().WithOverrides(config.Load().Recommendations)
	return recommendations.NewService(e.catalog, e.store, e.locks, cfg, nil)
}

func (e *env) meals() *meals.Service {
	return meals.NewService(e.store, e.locks, nil)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "nutrictl",
		Short:         "Nutrient-deficit recommendations over a local store",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.verbose {
				telemetry.SetOutput(stderr)
			} else {
				telemetry.SetOutput(io.Discard)
			}
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = telemetry.Logger().Sync()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dbPath, "db", envOr("NUTRICTL_DB", "nutrition.db"), "SQLite database file")
	flags.StringVar(&opts.userID, "user", envOr("NUTRICTL_USER", "local"), "user id the log belongs to")
	flags.StringVar(&opts.catalogPath, "catalog", "", "food catalog file (.yaml or .json); defaults to the built-in dataset")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "write structured logs to stderr")

	root.AddCommand(
		newMigrateCmd(opts),
		newRecommendCmd(opts),
		newAcceptCmd(opts),
		newLogCmd(opts),
		newFoodsCmd(opts),
	)
	return root
}

// open connects to the SQLite file, applies migrations and loads the catalog.
func open(ctx context.Context, opts *options) (*env, error) {
	if strings.TrimSpace(opts.userID) == "" {
		return nil, fmt.Errorf("--user must not be empty")
	}
	conn, err := openDB(ctx, opts.dbPath)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(opts.catalogPath)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &env{
		db:      conn,
		store:   kvstore.NewSQL(conn, db.DialectSQLite),
		locks:   kvstore.NewKeyLocks(),
		catalog: cat,
		userID:  opts.userID,
	}, nil
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	conn, err := db.Connect(ctx, "sqlite:"+path, db.DefaultMigrateOptions())
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, conn, db.DialectSQLite); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return catalog.Parse(data, format)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
