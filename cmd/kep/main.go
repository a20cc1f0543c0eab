package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/kep/pkg/config"
	"github.com/coolbeans/kep/pkg/definition"
	"github.com/coolbeans/kep/pkg/logging"
	"github.com/coolbeans/kep/pkg/reader"
)

var version = "0.1.0"

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "kep",
		Short: "Extract time series from statistical bulletins",
		Long: `kep reads the tables of a statistical bulletin, identifies each table's
variable and unit from its header text and emits labeled annual, quarterly
and monthly observations.

Settings come from KEP_* environment variables, an optional --config file
and command line flags, in increasing order of precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.String("spec-dir", "", "Directory of YAML specifications (default: built-in specification)")
	flags.String("spec", "", "Specification name to use from --spec-dir")

	rootCmd.AddCommand(a.extractCmd())
	rootCmd.AddCommand(a.specCmd())
	rootCmd.AddCommand(a.watchCmd())
	rootCmd.AddCommand(envCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	override := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	override("log-level", &cfg.Logging.Level)
	override("log-format", &cfg.Logging.Format)
	override("spec-dir", &cfg.Spec.Dir)
	override("spec", &cfg.Spec.Name)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// specification returns the configured specification: the named one from
// the specification directory, or the built-in one.
func (a *app) specification() (*definition.Specification, error) {
	if a.cfg.Spec.Dir == "" {
		return definition.Default(), nil
	}
	reg, err := definition.NewRegistryWithDirectory(a.cfg.Spec.Dir, definition.WithRegistryLogger(a.logger))
	if err != nil {
		return nil, err
	}
	s, ok := reg.Get(a.cfg.Spec.Name)
	if !ok {
		return nil, fmt.Errorf("specification %q not found in %s (have: %v)", a.cfg.Spec.Name, a.cfg.Spec.Dir, reg.Names())
	}
	return s, nil
}

// readerOptions converts the reader settings.
func (a *app) readerOptions() reader.Options {
	return reader.Options{
		Encoding:  a.cfg.Reader.Encoding,
		Delimiter: []rune(a.cfg.Reader.Delimiter)[0],
		Sheet:     a.cfg.Reader.Sheet,
	}
}

func envCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "List the environment variables kep reads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Usage()
		},
	}
}
