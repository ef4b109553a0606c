// Package cli implements the portalctl command line.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/config"
	"csd-portal/ops-portal/ops-portal-backend/internal/fixtures"
	"csd-portal/ops-portal/ops-portal-backend/internal/pages"
)

// Version is the current version of portalctl
var Version = "0.1.0"

type rootOptions struct {
	verbose bool
	seed    uint64
	size    int
}

// NewRootCmd builds the portalctl command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Operate on ops portal page definitions offline",
		Long: `portalctl validates page definition files and exports page tables
without running the API server.

Pages are mounted over the same seeded fixture dataset the server uses, so a
given --seed and --size always produce the same rows.

Examples:
  portalctl validate pages.yaml
  portalctl export --page settlements --filter status=Failed --format xlsx --out failed.xlsx`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().Uint64Var(&opts.seed, "seed", fixtures.DefaultSeed, "Fixture dataset seed")
	cmd.PersistentFlags().IntVar(&opts.size, "size", fixtures.DefaultSize, "Number of settlement instructions to generate")

	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) logger() *zap.Logger {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := config.NewLogger(config.LoggingConfig{Level: level, Format: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// registry loads definitions from path, or the built-in pages when path is
// empty, and validates them against the fixture datasets.
func (o *rootOptions) registry(path string, logger *zap.Logger) (*pages.Registry, error) {
	defs, err := pages.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return pages.NewRegistry(defs, pages.FixtureSources(fixtures.Generate(o.seed, o.size)), logger)
}

// filterFlag collects repeated key=value filter selections
type filterFlag struct {
	keys   []string
	values map[string]string
}

var _ pflag.Value = (*filterFlag)(nil)

func (f *filterFlag) String() string {
	parts := make([]string, 0, len(f.keys))
	for _, k := range f.keys {
		parts = append(parts, k+"="+f.values[k])
	}
	return strings.Join(parts, ",")
}

func (f *filterFlag) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	if f.values == nil {
		f.values = map[string]string{}
	}
	if _, seen := f.values[key]; !seen {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
	return nil
}

func (f *filterFlag) Type() string {
	return "key=value"
}
