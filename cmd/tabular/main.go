package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tabular-dev/tabular/pkg/config"
	"github.com/tabular-dev/tabular/pkg/logger"
	"github.com/tabular-dev/tabular/pkg/observability"
	"github.com/tabular-dev/tabular/pkg/reader"
	"github.com/tabular-dev/tabular/pkg/source"
	"github.com/tabular-dev/tabular/pkg/table"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "tabular",
		Short: "Tabular - columnar table engine with a parallel text reader",
		Long: `Tabular materialises columnar tables from delimited text files.
It parses input in parallel chunks, promotes column types on the fly, and
places columns either on the heap or in memory-mapped files.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Tabular v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newReadCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newReadCommand() *cobra.Command {
	var (
		configPath string
		sep        string
		dest       string
		workers    int
		nrowLimit  int64
		fill       bool
		verbose    bool
		progress   bool
		trace      bool
		output     string
	)

	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Parse a delimited text file into a columnar table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if sep != "" {
				cfg.Read.Sep = sep
			}
			if workers > 0 {
				cfg.Read.Workers = workers
			}
			if nrowLimit > 0 {
				cfg.Read.NRowLimit = nrowLimit
			}
			if fill {
				cfg.Read.Fill = true
			}
			if dest != "" {
				cfg.Storage.Dir = dest
			}

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			if err := logger.Init(logger.Config{
				Level:    level,
				Encoding: cfg.Logging.Encoding,
			}); err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if trace {
				shutdown, err := observability.Init(cmd.Context(), observability.DefaultTracingConfig())
				if err != nil {
					return err
				}
				defer shutdown(context.Background()) //nolint:errcheck
			}

			return runRead(cmd.Context(), args[0], cfg, verbose, progress, output)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file")
	cmd.Flags().StringVarP(&sep, "sep", "s", "", "field separator (default: auto-detect)")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "column directory (default: in-memory)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parse workers (default: all processors)")
	cmd.Flags().Int64VarP(&nrowLimit, "nrows", "n", 0, "maximum rows to read")
	cmd.Flags().BoolVar(&fill, "fill", false, "pad short rows with NA")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging of the parse passes")
	cmd.Flags().BoolVar(&progress, "progress", false, "print percent progress")
	cmd.Flags().BoolVar(&trace, "trace", false, "emit read spans to stdout")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the table as JSON to this file ('-' for stdout)")
	return cmd
}

func runRead(ctx context.Context, path string, cfg *config.Config, verbose, progress bool, output string) error {
	rc := cfg.ReaderConfig()
	rc.Verbose = verbose
	rc.ShowProgress = progress

	cb := reader.Callbacks{ChooseDestination: cfg.DestinationHook()}
	if progress {
		cb.Progress = func(percent int) {
			fmt.Fprintf(os.Stderr, "\rread: %3d%%", percent)
			if percent >= 100 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	src, err := source.File(path)
	if err != nil {
		return err
	}
	defer src.Release() //nolint:errcheck

	start := time.Now()
	t, err := reader.New(rc, cb).Read(ctx, src)
	if err != nil {
		return err
	}
	defer t.Release() //nolint:errcheck

	logger.Info("table materialised",
		zap.String("file", path),
		zap.Int("rows", t.NRows()),
		zap.Int("cols", t.NCols()),
		zap.Duration("elapsed", time.Since(start)))

	printSchema(t)
	if output != "" {
		return writeJSON(t, output)
	}
	return nil
}

func printSchema(t *table.Table) {
	fmt.Printf("%d rows x %d columns\n", t.NRows(), t.NCols())
	for j := 0; j < t.NCols(); j++ {
		fmt.Printf("  %-24s %s\n", t.Name(j), t.Column(j).Type())
	}
}

func writeJSON(t *table.Table, output string) error {
	if output == "-" {
		return t.WriteJSON(os.Stdout)
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return t.WriteJSON(f)
}
