package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/semgraph/config"
	"github.com/c360studio/semgraph/graph"
	edgemetrics "github.com/c360studio/semgraph/processor/edge-metrics"
	"github.com/c360studio/semgraph/processor/enrichment"
	repoindexer "github.com/c360studio/semgraph/processor/repo-indexer"
)

// indexOptions are the flags of the index command.
type indexOptions struct {
	roots        []string
	preset       string
	smoothing    float64
	output       string
	format       string
	publish      bool
	watch        bool
	metricsAddr  string
	embeddedNATS bool
	query        queryFlags
}

// queryFlags narrow exported edges.
type queryFlags struct {
	minWeight   float64
	importance  []string
	top         int
	temperature float64
}

func (f *queryFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.minWeight, "min-weight", 0, "Drop edges lighter than this weight")
	fs.StringSliceVar(&f.importance, "importance", nil, "Keep only these importance levels (critical, high, medium, low)")
	fs.IntVar(&f.top, "top", 0, "Keep the n heaviest edges")
	fs.Float64Var(&f.temperature, "softmax", 0, "Add softmax-normalized weights at this temperature")
}

func (f queryFlags) build() (graph.Query, error) {
	q := graph.Query{MinWeight: f.minWeight, Top: f.top, Temperature: f.temperature}
	for _, s := range f.importance {
		l, err := graph.ParseImportance(s)
		if err != nil {
			return graph.Query{}, err
		}
		q.Importance = append(q.Importance, l)
	}
	if f.top < 0 || f.temperature < 0 {
		return graph.Query{}, errors.New("--top and --softmax must not be negative")
	}
	return q, nil
}

func indexCmd(g *globalFlags) *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index [ROOT...]",
		Short: "Index the repository and export the weighted graph",
		Long: `Index walks the repository, extracts every supported file and writes the
enriched graph to each configured sink.

ROOT arguments may be directories or glob patterns such as ./services/*; each
matching directory is indexed as its own graph. With several roots the export
file name gets the root's base name appended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			opts.roots = args
			ctx, cancel := signalContext()
			defer cancel()
			return runIndex(ctx, cfg, logger, opts)
		},
	}

	cmd.Flags().StringVar(&opts.preset, "preset", "", "Dimension weight preset (default, debugging, architecture, dataflow)")
	cmd.Flags().Float64Var(&opts.smoothing, "smoothing", 0, "Laplace smoothing for structural weights (bare flag: 1)")
	cmd.Flags().Lookup("smoothing").NoOptDefVal = strconv.FormatFloat(edgemetrics.DefaultSmoothing, 'g', -1, 64)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Export file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Export format (json, yaml, ntriples)")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish nodes and edges to NATS JetStream")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-index when files change")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&opts.embeddedNATS, "embedded-nats", false, "Use an embedded NATS server instead of nats.url")
	opts.query.register(cmd.Flags())

	return cmd
}

func runIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts indexOptions) error {
	if opts.preset != "" {
		cfg.Weighting.Preset = opts.preset
		cfg.Weighting.Dimensions = nil
	}
	if opts.smoothing != 0 {
		cfg.Weighting.Smoothing = opts.smoothing
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	roots := []string{cfg.Repo.Path}
	if len(opts.roots) > 0 {
		var err error
		if roots, err = repoindexer.ResolveRoots(opts.roots); err != nil {
			return err
		}
	}
	if opts.watch && len(roots) > 1 {
		return fmt.Errorf("--watch takes a single root, got %d", len(roots))
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	out, err := resolveOutput(cfg.Output, opts.output, opts.format)
	if err != nil {
		return err
	}
	if out.Query, err = opts.query.build(); err != nil {
		return err
	}

	var shared []repoindexer.Sink
	if opts.publish || cfg.Storage.Backend == config.BackendJetStream {
		if err := app.Connect(opts.embeddedNATS); err != nil {
			return err
		}
	}
	if opts.publish {
		p, err := app.Publisher(ctx)
		if err != nil {
			return err
		}
		shared = append(shared, publishSink(p, uuid.NewString))
	}
	store, err := app.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	if store != nil {
		shared = append(shared, storeSink(store, cfg.Weighting.Preset, logger))
	}

	if opts.metricsAddr != "" {
		go func() {
			if err := app.ServeMetrics(ctx, opts.metricsAddr); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	var ix *repoindexer.Indexer
	var errs []error
	for _, root := range roots {
		target := out
		if len(roots) > 1 {
			target = out.ForRoot(root)
		}
		ix, err = app.NewIndexer(root, append([]repoindexer.Sink{exportSink(target)}, shared...)...)
		if err != nil {
			return err
		}
		if _, err := ix.Index(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			errs = append(errs, err)
		}
	}
	if !opts.watch {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		logger.Warn("Initial index failed", "error", err)
	}

	w, err := repoindexer.NewWatcher(ix, cfg.Repo.Debounce, logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	for ev := range w.Events() {
		if ev.Error != nil {
			logger.Warn("Re-index failed", "changed", ev.Changed, "error", ev.Error)
			continue
		}
		logger.Info("Re-indexed", "changed", ev.Changed, "edges", len(ev.Result.Relations))
	}
	return <-runErr
}

func parseCmd(g *globalFlags) *cobra.Command {
	var (
		format string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "parse FILE...",
		Short: "Extract and enrich the given files as one graph",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return runParse(ctx, cfg, logger, args, format, raw, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format (json, yaml, ntriples)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the full enrichment result, diagnostics included, as JSON")

	return cmd
}

func runParse(ctx context.Context, cfg *config.Config, logger *slog.Logger, paths []string, format string, raw bool, w io.Writer) error {
	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	files := make([]enrichment.File, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, enrichment.File{Path: filepath.ToSlash(p), Content: content})
	}

	res, err := app.pipeline.Run(ctx, files)
	if err != nil {
		return err
	}
	for _, d := range res.Diagnostics {
		logger.Warn("Extraction diagnostic", "path", d.Path, "kind", d.Kind, "severity", d.Severity, "message", d.Message)
	}

	if raw {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	out, err := resolveOutput(config.OutputConfig{Format: cfg.Output.Format}, "", format)
	if err != nil {
		return err
	}
	out.Stdout = w
	return out.Write(graph.FromResult(res))
}

func languagesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the registered extractors and their strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := g.setup()
			if err != nil {
				return err
			}
			return printLanguages(cmd.OutOrStdout(), languageRows(buildExtractors(cfg.Extraction)))
		},
	}
}

func printLanguages(out io.Writer, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LANGUAGE\tSTRATEGY\tEXTENSIONS\tSEPARATOR\tNODES\tRELATIONS\tDESCRIPTION")
	fmt.Fprintln(w, "--------\t--------\t----------\t---------\t-----\t---------\t-----------")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", r[0], r[1], r[2], r[3], r[4], r[5], r[6])
	}
	return w.Flush()
}

// printPath writes each hop of the path through ids and the path's score.
func printPath(out io.Writer, g graph.Graph, mode graph.PathMode, ids []string) error {
	hops, err := graph.Trace(g.Edges, ids...)
	if err != nil {
		return err
	}
	score, err := graph.PathWeight(hops, mode)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTYPE\tTARGET\tWEIGHT\tIMPORTANCE")
	for _, e := range hops {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\t%s\n", e.Source, e.Type, e.Target, e.Weight, e.Importance)
	}
	fmt.Fprintf(w, "\n%s path weight:\t%.4f\n", mode, score)
	return w.Flush()
}

func snapshotsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Inspect stored graph snapshots",
	}

	var (
		format string
		query  queryFlags
	)
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Export a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, func(ctx context.Context, app *App) error {
				s, err := app.store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				out, err := resolveOutput(config.OutputConfig{Format: app.cfg.Output.Format}, "", format)
				if err != nil {
					return err
				}
				if out.Query, err = query.build(); err != nil {
					return err
				}
				out.Stdout = cmd.OutOrStdout()
				return out.Write(s.Graph)
			})
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "", "Export format (json, yaml, ntriples)")
	query.register(show.Flags())

	var mode string
	path := &cobra.Command{
		Use:   "path ID NODE NODE...",
		Short: "Score a path of node IDs through a stored snapshot",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, func(ctx context.Context, app *App) error {
				s, err := app.store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printPath(cmd.OutOrStdout(), s.Graph, graph.PathMode(mode), args[1:])
			})
		},
	}
	path.Flags().StringVar(&mode, "mode", string(graph.PathMultiplicative), "How hop weights combine (multiplicative, additive)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List stored snapshots, newest first",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(g, func(ctx context.Context, app *App) error {
					infos, err := app.store.List(ctx)
					if err != nil {
						return err
					}
					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
					fmt.Fprintln(w, "ID\tCREATED\tPRESET\tFILES\tNODES\tEDGES\tROOT")
					for _, i := range infos {
						fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
							i.ID, i.CreatedAt.Format("2006-01-02 15:04:05"), i.Preset, i.Files, i.Nodes, i.Edges, i.Root)
					}
					return w.Flush()
				})
			},
		},
		show,
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a stored snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(g, func(ctx context.Context, app *App) error {
					return app.store.Delete(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

// withStore opens the configured snapshot store for fn.
func withStore(g *globalFlags, fn func(ctx context.Context, app *App) error) error {
	cfg, logger, err := g.setup()
	if err != nil {
		return err
	}
	switch cfg.Storage.Backend {
	case "", config.BackendNone:
		return errors.New("no snapshot store configured; set storage.backend")
	case config.BackendJetStream:
		if cfg.NATS.URL == "" {
			return errors.New("jetstream snapshots need nats.url; an embedded server starts empty")
		}
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	ctx, cancel := signalContext()
	defer cancel()
	if cfg.Storage.Backend == config.BackendJetStream {
		if err := app.Connect(false); err != nil {
			return err
		}
	}
	if _, err := app.OpenStore(ctx); err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	return fn(ctx, app)
}

func configCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := g.setup()
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default user config if none exists",
			RunE: func(cmd *cobra.Command, args []string) error {
				return config.NewLoader(setupLogger(g.logLevel)).EnsureUserConfig()
			},
		},
	)
	return cmd
}
