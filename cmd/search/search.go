// Package search implements the "search" subcommand: load the fragment-ion
// index, resolve a spectrum-file parser for the configured dataset, and run
// the search pipeline to completion.
package search

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pepmatch/psmsearch/internal/conf"
	"github.com/pepmatch/psmsearch/internal/errors"
	"github.com/pepmatch/psmsearch/internal/exchange"
	"github.com/pepmatch/psmsearch/internal/index"
	"github.com/pepmatch/psmsearch/internal/metrics"
	"github.com/pepmatch/psmsearch/internal/output"
	"github.com/pepmatch/psmsearch/internal/searchmanager"
	"github.com/pepmatch/psmsearch/internal/specfile"
)

// Command creates the "search" subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a peptide-spectrum match search against a fragment-ion index",
		Long:  "Search one spectrum file or a directory of spectrum files against a fragment-ion index, reporting the top-scoring peptide matches per spectrum.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Search.DBPath, "index", viper.GetString("search.dbpath"), "Path to the fragment-ion index")
	cmd.Flags().StringVar(&settings.Search.IndexLoader, "index-loader", viper.GetString("search.indexloader"), "Name of the registered index loader to build/load the fragment-ion index with")
	cmd.Flags().StringVar(&settings.Search.Dataset, "dataset", viper.GetString("search.dataset"), "Path to a spectrum file or a directory of spectrum files")
	cmd.Flags().StringVar(&settings.Search.Workspace, "workspace", viper.GetString("search.workspace"), "Path where per-batch staging files are written")
	cmd.Flags().IntVarP(&settings.Search.Threads, "threads", "j", viper.GetInt("search.threads"), "Max concurrent compute threads")
	cmd.Flags().IntVar(&settings.Search.PrepThreads, "prepthreads", viper.GetInt("search.prepthreads"), "Max concurrent I/O prep threads")
	cmd.Flags().Float64Var(&settings.Search.DM, "dm", viper.GetFloat64("search.dm"), "Precursor mass tolerance window half-width, Da")
	cmd.Flags().Float64Var(&settings.Search.DF, "df", viper.GetFloat64("search.df"), "Fragment bin tolerance, Da")
	cmd.Flags().IntVar(&settings.Search.TopMatches, "topmatches", viper.GetInt("search.topmatches"), "Top-K matches reported per spectrum")
	cmd.Flags().Float64Var(&settings.Search.ExpectMax, "expectmax", viper.GetFloat64("search.expectmax"), "E-value ceiling for reporting a PSM")
	cmd.Flags().StringVar(&settings.Output.Driver, "output-driver", viper.GetString("output.driver"), "Output sink: file or sqlite")
	cmd.Flags().StringVar(&settings.Output.Path, "output-path", viper.GetString("output.path"), "Output CSV file path (file driver) or database path (sqlite driver)")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

func run(ctx context.Context, settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, err := loadIndex(settings)
	if err != nil {
		return err
	}

	newParser, err := resolveParser(settings.Search.Dataset)
	if err != nil {
		return err
	}

	sink, err := openSink(settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Error("closing output sink", "error", err)
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	var transport exchange.Transport
	if settings.Exchange.Enabled && settings.Exchange.NumRanks <= 1 {
		slog.Warn("exchange.enabled is set but no Transport collaborator is wired into this build; running single-rank with an identity CarryForward")
	}

	sc, err := searchmanager.New(settings, idx, newParser, sink, m, transport)
	if err != nil {
		return fmt.Errorf("building search context: %w", err)
	}

	slog.Info("starting search", "dataset", settings.Search.Dataset, "index", settings.Search.DBPath, "threads", settings.Search.Threads)
	if err := sc.Run(ctx); err != nil {
		return fmt.Errorf("search run: %w", err)
	}
	slog.Info("search complete")
	return nil
}

// loadIndex resolves an index.Loader for settings.Search.IndexLoader and
// uses it to build or load the fragment-ion index from settings.Search.DBPath.
func loadIndex(settings *conf.Settings) (*index.Index, error) {
	loader, err := index.For(settings.Search.IndexLoader)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryConfiguration).Component("search").
			Context("operation", "resolve_index_loader").Build()
	}
	loader = index.NewCachingLoader(loader, settings.Search.Reindex, settings.Search.NoCache)
	idx, err := loader(settings.Search.DBPath)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryFileIO).Component("search").
			Context("operation", "load_index").Context("path", settings.Search.DBPath).Build()
	}
	return idx, nil
}

// resolveParser sniffs the spectrum file extension from dataset (a single
// file, or the first recognized file found walking a directory) and looks
// up the specfile.Factory registered for it.
func resolveParser(dataset string) (specfile.Factory, error) {
	ext, err := sniffExtension(dataset)
	if err != nil {
		return nil, err
	}
	factory, err := specfile.For(ext)
	if err != nil {
		return nil, errors.New(err).Category(errors.CategoryConfiguration).Component("search").
			Context("operation", "resolve_parser").Context("extension", ext).Build()
	}
	return factory, nil
}

func sniffExtension(dataset string) (string, error) {
	info, err := os.Stat(dataset)
	if err != nil {
		return "", errors.New(err).Category(errors.CategoryFileIO).Component("search").
			Context("operation", "stat_dataset").Context("path", dataset).Build()
	}
	if !info.IsDir() {
		return strings.ToLower(filepath.Ext(dataset)), nil
	}

	var found string
	walkErr := filepath.WalkDir(dataset, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found != "" || d.IsDir() {
			return nil
		}
		if ext := strings.ToLower(filepath.Ext(path)); ext == ".mzml" || ext == ".mgf" {
			found = ext
		}
		return nil
	})
	if walkErr != nil {
		return "", errors.New(walkErr).Category(errors.CategoryFileIO).Component("search").
			Context("operation", "sniff_dataset").Context("path", dataset).Build()
	}
	if found == "" {
		return "", errors.New(fmt.Errorf("no recognized spectrum files under %s", dataset)).
			Category(errors.CategoryConfiguration).Component("search").Context("operation", "sniff_dataset").Build()
	}
	return found, nil
}

func openSink(settings *conf.Settings) (output.Sink, error) {
	switch settings.Output.Driver {
	case "sqlite", "datastore":
		return output.NewDatastoreSink(settings.Output.Path)
	case "file", "":
		return output.NewFileSink(settings.Output.Path)
	default:
		return nil, errors.New(fmt.Errorf("unknown output driver %q", settings.Output.Driver)).
			Category(errors.CategoryConfiguration).Component("search").Context("operation", "open_sink").Build()
	}
}
