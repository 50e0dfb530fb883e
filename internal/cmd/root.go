package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/willfong/sqlimport/internal/config"
	"github.com/willfong/sqlimport/internal/ui"
)

var (
	cfgFile string
	v       = viper.New()
)

// errReported is returned after a failure was already shown to the user, so
// Execute only sets the exit status.
var errReported = errors.New("failed")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sqlimport",
	Short: "Load INSERT statements from SQL dumps into a database",
	Long: `Parse the INSERT statements of a SQL dump and load their rows into a
MySQL/MariaDB, PostgreSQL or SQLite database.

Rows are grouped by table, checked against the live schema and written in
chunks, one transaction per table. A table that fails is rolled back and
reported; the remaining tables are still imported.

Settings come from flags, SQLIMPORT_* environment variables (a .env file is
read first), an optional --config file, and the defaults in
internal/config/defaults.go.

Example usage:
  sqlimport import dump.sql --db "user:pass@tcp(localhost:3306)/shop"
  sqlimport import dump.sql.gz --driver postgres --db "postgres://localhost/shop" --dry-run
  sqlimport parse dump.sql`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		u := ui.New()
		u.SetNoColor(v.GetBool("no_color"))
		fmt.Fprintln(os.Stderr, u.Error(err.Error()))
	}
	return err
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	flags.BoolP("verbose", "v", false, "log progress to stderr")
	flags.Bool("no-color", false, "disable colors and animations")
	flags.Bool("debug", false, "log every statement and chunk to stderr")

	bindFlags(flags, map[string]string{
		"verbose":      "verbose",
		"no_color":     "no-color",
		"import.debug": "debug",
	})

	// Silence usage and errors on failure - Execute prints its own message
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// initConfig wires the configuration sources into v. Precedence, highest
// first: flags, environment (including .env), config file, defaults.
func initConfig() error {
	if err := config.LoadDotEnv(config.DotEnvFile); err != nil {
		return err
	}

	config.SetDefaults(v)
	config.ConfigureEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	}
	return nil
}

// bindFlags maps viper keys to flags of fs.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// loadConfig returns the merged configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(v)
}

// newUI returns the terminal UI honouring --no-color.
func newUI(cfg *config.Config) *ui.UI {
	u := ui.New()
	if cfg.NoColor {
		u.SetNoColor(true)
	}
	return u
}

// newLogger returns the diagnostics logger: debug with source locations for
// --debug, info for --verbose, warnings otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelWarn}
	switch {
	case cfg.Import.DebugVerbose:
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	case cfg.Verbose:
		opts.Level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
