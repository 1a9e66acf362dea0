package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/claimlens/internal/datasource"
	"github.com/vanderheijden86/claimlens/pkg/analysis"
	"github.com/vanderheijden86/claimlens/pkg/config"
	"github.com/vanderheijden86/claimlens/pkg/debug"
	"github.com/vanderheijden86/claimlens/pkg/export"
	"github.com/vanderheijden86/claimlens/pkg/model"
	"github.com/vanderheijden86/claimlens/pkg/version"
)

var errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

// insightCache memoizes generated insight sets for the life of the process.
// One-shot runs pay a single miss per view; watch mode skips regeneration
// when a database event fires without changing the queried aggregates.
var insightCache = analysis.NewCache(analysis.DefaultCacheTTL)

type options struct {
	dbPath        string
	loadCSV       string
	view          string
	sortBy        string
	limit         int
	metric        string
	providerTypes string
	compareBy     string
	metrics       string
	jsonOut       bool
	plain         bool
	svgPath       string
	watch         bool
}

func main() {
	var opts options
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file path (default: XDG config dir)")
	flag.StringVar(&opts.dbPath, "db", "", "SQLite database path (default from config)")
	flag.StringVar(&opts.loadCSV, "load", "", "Load a provider billing CSV into the database and exit")
	flag.StringVar(&opts.view, "view", "report", "Analysis view: provider, geographic, risk, comparative, report")
	flag.StringVar(&opts.sortBy, "sort-by", "", "Provider view sort column")
	flag.IntVar(&opts.limit, "limit", 0, "Row limit for provider and risk views")
	flag.StringVar(&opts.metric, "metric", "", "Geographic view metric column")
	flag.StringVar(&opts.providerTypes, "provider-types", "", "Risk view type filter: top5, top10, all")
	flag.StringVar(&opts.compareBy, "compare-by", "", "Comparative dimension: provider_type, state")
	flag.StringVar(&opts.metrics, "metrics", "", "Comparative metrics, comma separated")
	flag.BoolVar(&opts.jsonOut, "json", false, "Emit insights as JSON")
	flag.BoolVar(&opts.plain, "plain", false, "Emit raw markdown without terminal rendering")
	flag.StringVar(&opts.svgPath, "svg", "", "Also write the view's ranking chart to this SVG file")
	flag.BoolVar(&opts.watch, "watch", false, "Re-run the view whenever the database file changes")
	flag.Parse()

	if *help {
		fmt.Println("Usage: cl [options]")
		fmt.Println("\nInsight generation over provider billing aggregates.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("cl %s\n", version.Version)
		os.Exit(0)
	}

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFrom(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fatal("loading config: %v", err)
	}
	applyConfigDefaults(&opts, cfg)

	if opts.loadCSV != "" {
		runLoad(opts)
		os.Exit(0)
	}

	if _, err := os.Stat(opts.dbPath); err != nil {
		fatal("database not found at %s (use --load to import a CSV first)", opts.dbPath)
	}

	if opts.watch {
		runWatch(opts, cfg)
		return
	}

	if err := runOnce(os.Stdout, opts, cfg); err != nil {
		fatal("%v", err)
	}
}

func applyConfigDefaults(opts *options, cfg config.Config) {
	if opts.dbPath == "" {
		opts.dbPath = cfg.DatabasePath
	}
	if opts.sortBy == "" {
		opts.sortBy = cfg.Views.ProviderSortBy
	}
	if opts.metric == "" {
		opts.metric = cfg.Views.GeographicMetric
	}
	if opts.providerTypes == "" {
		opts.providerTypes = cfg.Views.RiskProviderTypes
	}
	if opts.compareBy == "" {
		opts.compareBy = cfg.Views.CompareBy
	}
	if opts.metrics == "" {
		opts.metrics = strings.Join(cfg.Views.CompareMetrics, ",")
	}
}

func runLoad(opts options) {
	if err := os.MkdirAll(filepath.Dir(opts.dbPath), 0o755); err != nil {
		fatal("creating database directory: %v", err)
	}
	fmt.Printf("Loading %s into %s...\n", opts.loadCSV, opts.dbPath)
	if err := datasource.LoadCSV(opts.loadCSV, opts.dbPath); err != nil {
		fatal("load failed: %v", err)
	}
	summary, err := datasource.Verify(opts.dbPath)
	if err != nil {
		fatal("verification failed: %v", err)
	}
	fmt.Printf("Loaded %d records: %d providers, %d provider types, %d states\n",
		summary.TotalRecords, summary.UniqueProviders, summary.ProviderTypes, summary.States)
}

// runOnce executes the selected view against the database and writes the
// rendered result to w.
func runOnce(w *os.File, opts options, cfg config.Config) error {
	reader, err := datasource.NewSQLiteReader(opts.dbPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	gen := analysis.NewGenerator(cfg.Thresholds)

	switch opts.view {
	case "provider", "geographic", "risk", "comparative":
		result, err := runView(reader, gen, opts.view, opts, cfg)
		if err != nil {
			return err
		}
		if opts.svgPath != "" {
			if err := writeChart(result, opts); err != nil {
				return err
			}
		}
		if opts.jsonOut {
			data, err := export.FormatJSON(result.set)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}
		return render(w, export.FormatMarkdown(result.set, result.title), opts.plain)

	case "report":
		return runReport(w, reader, gen, opts, cfg)

	default:
		return fmt.Errorf("unknown view %q (expected provider, geographic, risk, comparative, or report)", opts.view)
	}
}

// viewResult pairs a view's source table with its generated insights.
type viewResult struct {
	title string
	table *model.Table
	set   *analysis.InsightSet
}

func runView(reader *datasource.SQLiteReader, gen *analysis.Generator, view string, opts options, cfg config.Config) (*viewResult, error) {
	switch view {
	case "provider":
		limit := opts.limit
		if limit <= 0 {
			limit = cfg.Views.ProviderLimit
		}
		t, err := reader.ProviderDistribution(opts.sortBy, limit)
		if err != nil {
			return nil, err
		}
		params := analysis.ProviderParams{SortBy: opts.sortBy, Limit: limit}
		set := cachedInsights(view, t, params, func() *analysis.InsightSet {
			return gen.ProviderInsights(t, params)
		})
		return &viewResult{title: "Provider Type Analysis", table: t, set: set}, nil

	case "geographic":
		t, err := reader.GeographicDistribution(opts.metric)
		if err != nil {
			return nil, err
		}
		params := analysis.GeographicParams{Metric: opts.metric}
		set := cachedInsights(view, t, params, func() *analysis.InsightSet {
			return gen.GeographicInsights(t, params)
		})
		return &viewResult{title: "Geographic Analysis", table: t, set: set}, nil

	case "risk":
		filter, err := model.ParseProviderTypeFilter(opts.providerTypes)
		if err != nil {
			return nil, err
		}
		limit := opts.limit
		if limit <= 0 {
			limit = cfg.Views.RiskLimit
		}
		t, err := reader.RiskDistribution(filter, limit)
		if err != nil {
			return nil, err
		}
		params := analysis.RiskParams{ProviderTypes: filter, Limit: limit}
		set := cachedInsights(view, t, params, func() *analysis.InsightSet {
			return gen.RiskInsights(t, params)
		})
		return &viewResult{title: "Fraud Risk Analysis", table: t, set: set}, nil

	case "comparative":
		compareBy, err := model.ParseCompareDimension(opts.compareBy)
		if err != nil {
			return nil, err
		}
		metrics := splitMetrics(opts.metrics)
		t, err := reader.Comparative(compareBy)
		if err != nil {
			return nil, err
		}
		params := analysis.ComparativeParams{CompareBy: compareBy, Metrics: metrics}
		set := cachedInsights(view, t, params, func() *analysis.InsightSet {
			return gen.ComparativeInsights(t, params)
		})
		return &viewResult{title: "Comparative Analysis", table: t, set: set}, nil
	}
	return nil, fmt.Errorf("unknown view %q", view)
}

// cachedInsights returns the memoized set for a view request, generating
// and storing it on a miss.
func cachedInsights(view string, t *model.Table, params any, generate func() *analysis.InsightSet) *analysis.InsightSet {
	key := analysis.CacheKey(view, t, params)
	if set, ok := insightCache.Get(key); ok {
		debug.Log("%s view served from cache (%s)", view, key)
		return set
	}
	set := generate()
	insightCache.Set(key, set)
	return set
}

// runReport generates all four views concurrently and composes them into a
// single document headed by dataset counts.
func runReport(w *os.File, reader *datasource.SQLiteReader, gen *analysis.Generator, opts options, cfg config.Config) error {
	views := []string{"provider", "geographic", "risk", "comparative"}
	results := make([]*viewResult, len(views))

	var g errgroup.Group
	for i, view := range views {
		g.Go(func() error {
			r, err := runView(reader, gen, view, opts, cfg)
			if err != nil {
				return fmt.Errorf("%s view: %w", view, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	summary, err := reader.Summary()
	if err != nil {
		return err
	}

	sections := make([]export.ReportSection, len(results))
	for i, r := range results {
		sections[i] = export.ReportSection{Title: r.title, Set: r.set}
	}
	doc := export.Report(cfg.Title, &export.ReportSummary{
		TotalRecords:  summary.TotalRecords,
		ProviderTypes: summary.ProviderTypes,
		States:        summary.States,
	}, sections)

	return render(w, doc, opts.plain)
}

// runWatch re-runs the view whenever the database file changes. SQLite writes
// arrive as bursts of Write/Create events, so each burst triggers one rerun.
func runWatch(opts options, cfg config.Config) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fatal("creating watcher: %v", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(opts.dbPath)); err != nil {
		fatal("watching %s: %v", opts.dbPath, err)
	}

	rerun := func() {
		fmt.Print("\033[H\033[2J") // clear screen
		if err := runOnce(os.Stdout, opts, cfg); err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Error: %v", err)))
		}
	}
	rerun()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	base := filepath.Base(opts.dbPath)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				debug.Log("database changed (%s), re-running", event.Op)
				rerun()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Watch error: %v", err)))
		case <-sigCh:
			return
		}
	}
}

// writeChart exports the view's ranking as an SVG bar chart. The label and
// value columns follow the view's primary dimension and metric.
func writeChart(result *viewResult, opts options) error {
	var labelCol, valueCol string
	switch opts.view {
	case "provider":
		labelCol, valueCol = "Rndrng_Prvdr_Type", opts.sortBy
	case "geographic":
		labelCol, valueCol = "Rndrng_Prvdr_State_Abrvtn", opts.metric
	case "risk":
		labelCol, valueCol = "Provider_ID", "payment_per_service"
	case "comparative":
		labelCol = "Rndrng_Prvdr_Type"
		if opts.compareBy == "state" {
			labelCol = "Rndrng_Prvdr_State_Abrvtn"
		}
		valueCol = "total_medicare_payments"
	}
	return export.WriteBarChartFile(opts.svgPath, result.table, export.BarChartOptions{
		Title:    result.title,
		LabelCol: labelCol,
		ValueCol: valueCol,
	})
}

// render writes markdown to the terminal, through glamour unless plain output
// was requested or stdout is not a terminal.
func render(w *os.File, markdown string, plain bool) error {
	if plain || !isTerminal(w) {
		_, err := fmt.Fprint(w, markdown)
		return err
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		_, werr := fmt.Fprint(w, markdown)
		return werr
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		_, werr := fmt.Fprint(w, markdown)
		return werr
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func splitMetrics(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatal(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Error: "+format, args...)))
	os.Exit(1)
}
