package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"media-resolver/internal/cloud"
	"media-resolver/internal/database"
	"media-resolver/internal/fetcher"
	"media-resolver/internal/ffprobe"
	"media-resolver/internal/logging"
	"media-resolver/internal/media"
	"media-resolver/internal/pipeline"
	"media-resolver/internal/resolver"
	"media-resolver/internal/startup"
)

const (
	defaultDatabaseDir = "/database"
	defaultCacheDir    = "/cache"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command needs: flags and, once opened, the catalog.
type app struct {
	out         io.Writer
	databaseDir string
	cacheDir    string
	compact     bool
	verbose     bool
	allowDirs   []string

	db    *database.Database
	store *database.MediaStore
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "assetprobe",
		Short:         "Inspect and maintain the media resolver asset catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if !a.verbose {
				logging.SetLevel(logging.LevelWarn)
			}
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.databaseDir, "database-dir", envOr("DATABASE_DIR", defaultDatabaseDir), "database directory")
	flags.StringVar(&a.cacheDir, "cache-dir", envOr("CACHE_DIR", defaultCacheDir), "download cache directory")
	flags.BoolVar(&a.compact, "compact", false, "print compact JSON even on a terminal")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at the configured LOG_LEVEL instead of warnings only")
	flags.StringSliceVar(&a.allowDirs, "allow-dir", nil, "directory uncatalogued paths may be read from (repeatable)")

	root.AddCommand(
		a.resolveCmd(),
		a.metadataCmd(),
		a.importCmd(),
		a.indexCmd(),
		a.statsCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// open connects to the catalog and the configured cloud backend.
func (a *app) open(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, err := database.New(ctx, filepath.Join(a.databaseDir, "catalog.db"))
	if err != nil {
		return fmt.Errorf("failed to open catalog (DATABASE_DIR=%s): %w", a.databaseDir, err)
	}

	cfg := startup.CloudConfigFromEnv()
	if err := startup.ValidateCloudConfig(cfg); err != nil {
		_ = db.Close()
		return err
	}
	downloader, err := cloud.New(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("cloud backend %s: %w", cfg.Backend, err)
	}

	a.db = db
	a.store = database.NewMediaStore(db, downloader, a.cacheDir)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func (a *app) pipeline() *pipeline.Pipeline {
	return pipeline.New(
		resolver.New(a.store),
		fetcher.New(a.store),
		media.NewStdDecoder(media.DefaultMaxPixels),
		pipeline.WithVideoProber(ffprobe.NewProber(envOr("FFPROBE_PATH", ffprobe.DefaultBinary))),
		pipeline.WithAllowedRoots(a.allowDirs...),
	)
}

// print writes v as JSON, indented for terminals.
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	if !a.compact && isTerminal(a.out) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
