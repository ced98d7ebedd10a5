package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/louisbranch/crosspromo/internal/platform/config"
	collabsqlite "github.com/louisbranch/crosspromo/internal/services/collab/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath   string `env:"COLLAB_DB_PATH"`
	Manifest string
	Verbose  bool
}

// ParseConfig parses env defaults and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "collab.db")
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to collab sqlite database (default: CROSSPROMO_COLLAB_DB_PATH or data/collab.db)")
	fs.StringVar(&cfg.Manifest, "manifest", "", "path to a JSON seed manifest (default: embedded demo)")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run loads the manifest and applies it to the configured database.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	manifest, err := LoadManifest(cfg.Manifest)
	if err != nil {
		return err
	}
	store, err := collabsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open collab store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "Error: close collab store: %v\n", closeErr)
		}
	}()

	result, err := Apply(ctx, store, manifest, out, cfg.Verbose)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %q: %d parties, %d stores, %d products, %d legacy agreements, %d proposals (%d accepted, %d rejected, %d skipped)\n",
		manifest.Name, result.Parties, result.Stores, result.Products, result.Legacy,
		result.Submitted, result.Accepted, result.Rejected, result.Skipped)
	return nil
}
