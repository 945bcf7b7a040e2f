// Command csvload loads a delimited text file into a database table.
//
//	csvload --table customers [--override_wipe true|false] [--mapping path]
//	csvload serve
//
// The mapping file binds --table to a source file and target table.
// Connection settings come from DB_* environment variables or a .env file.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
	"github.com/JonMunkholm/csvload/internal/mapping"
	"github.com/JonMunkholm/csvload/internal/warehouse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, exitMessage(err))
		stop()
		os.Exit(1)
	}
}

// app holds state shared by the root command and its subcommands.
type app struct {
	cfg         *config.Config
	mappingPath string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		table        string
		overrideWipe string
	)

	cmd := &cobra.Command{
		Use:           "csvload",
		Short:         "Load a CSV file into a database table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := mapping.ParseOverride(overrideWipe)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLoad(cmd.Context(), cmd.OutOrStdout(), table, overrideWipe)
		},
	}

	cmd.Flags().StringVar(&table, "table", "", "Mapping key of the load to run (required)")
	cmd.Flags().StringVar(&overrideWipe, "override_wipe", "", "Override the mapping's wipe_and_load: true or false")
	cmd.PersistentFlags().StringVar(&a.mappingPath, "mapping", "", "Mapping file (default: MAPPING_FILE)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Debug logging")
	_ = cmd.MarkFlagRequired("table")

	cmd.AddCommand(newServeCmd(a))
	return cmd
}

// setup reads .env, loads configuration and installs the logger. Variables
// already set in the environment win over .env.
func (a *app) setup() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return &core.ConfigurationError{Reason: "environment", Err: err}
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	logging.Setup(level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())

	if a.mappingPath == "" {
		a.mappingPath = cfg.Mapping.File
	}
	return nil
}

func (a *app) loader() *core.Loader {
	return core.NewLoader(
		warehouse.NewOpener(a.cfg.Database, warehouse.Options{
			BatchSize: a.cfg.Load.BatchSize,
			MaxConns:  a.cfg.Database.MaxConns,
		}),
		loaderOptions(a.cfg),
	)
}

func loaderOptions(cfg *config.Config) core.LoaderOptions {
	return core.LoaderOptions{
		Ingest: core.IngestOptions{
			SampleBytes:      cfg.Ingest.SampleBytes,
			FallbackEncoding: cfg.Ingest.FallbackEncoding,
			Delimiter:        cfg.Ingest.DelimiterRune(),
		},
		Infer:   core.InferOptions{MaxTextLength: cfg.Ingest.MaxTextLength},
		Timeout: cfg.Load.Timeout,
	}
}

func (a *app) runLoad(ctx context.Context, out io.Writer, key, overrideWipe string) error {
	m, err := mapping.Load(a.mappingPath)
	if err != nil {
		return err
	}
	override, err := mapping.ParseOverride(overrideWipe)
	if err != nil {
		return err
	}
	req, err := m.Request(key, override)
	if err != nil {
		return err
	}

	res, err := a.loader().Load(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Loaded %d rows from %s into %s", res.Inserted, res.FileName, res.Table)
	switch {
	case res.Created:
		fmt.Fprint(out, " (table created)")
	case res.Truncated:
		fmt.Fprint(out, " (table wiped)")
	}
	fmt.Fprintln(out)
	for _, w := range res.Warnings {
		fmt.Fprintln(out, "warning:", w.String())
	}
	return nil
}

// exitMessage renders err for the terminal: the mapped message, code and
// action when the error is recognized, the raw error otherwise.
func exitMessage(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return "Error: " + err.Error()
}
