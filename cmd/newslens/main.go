package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"newslens/internal/config"
	"newslens/internal/enrich"
	"newslens/internal/pipeline"
	"newslens/internal/readable"
	"newslens/internal/server"
	"newslens/internal/source"
	"newslens/internal/store"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newslens",
	Short:   "AI-enriched tech news corpus",
	Long:    "newslens fetches tech news, enriches each article with generated summaries, and serves the curated corpus.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(topupCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(articlesCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newslens", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newslens/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds and API key environment variables.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		count, err := st.Count()
		if err != nil {
			return fmt.Errorf("counting articles: %w", err)
		}
		categories, err := st.Categories()
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		fmt.Printf("Database: %s\n\n", st.Path())
		fmt.Printf("Articles: %d / %d target\n", count, cfg.Pipeline.TargetTotal)
		if len(categories) > 0 {
			fmt.Printf("Categories: %s\n", strings.Join(categories, ", "))
		}
		return nil
	},
}

// --- ingestion commands ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run the baseline pass: enrich and store the top articles from core sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd.Context(), pipeline.NewBaseline)
	},
}

var topupCmd = &cobra.Command{
	Use:   "topup",
	Short: "Run the expanded pass: fill the corpus up to the target from a broader source list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd.Context(), pipeline.NewExpanded)
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Run the fallback pass: store one article from a broad search if the corpus needs it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPass(cmd.Context(), pipeline.NewFallback)
	},
}

func runPass(ctx context.Context, build func(pipeline.Options) *pipeline.Controller) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts, cleanup, err := pipelineOptions(ctx, st)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := build(opts).Run(ctx)
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func printReport(r *pipeline.Report) {
	fmt.Printf("\n%s pass complete:\n", r.Pass)
	fmt.Printf("  Fetched: %d\n", r.Fetched)
	fmt.Printf("  Eligible: %d\n", r.Filtered)
	fmt.Printf("  Enriched: %d\n", r.Enriched)
	fmt.Printf("  Inserted: %d\n", r.Inserted)
	fmt.Printf("  Duplicates: %d\n", r.Duplicates)
	fmt.Printf("  Failed: %d\n", r.Failed)
	for _, e := range r.Errors {
		fmt.Printf("    %s: %s\n", e.Title, e.Message)
	}
	fmt.Printf("  Total stored: %d", r.TotalStored)
	if r.TargetReached {
		fmt.Print(" (target reached)")
	}
	fmt.Println()
}

// --- articles command ---

var articlesCategory string

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Inspect the stored corpus",
}

var articlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		articles, err := st.List(articlesCategory)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Println("No articles stored. Run 'newslens ingest' to populate the corpus.")
			return nil
		}

		for _, a := range articles {
			fmt.Printf("[%d] %s\n", a.ID, a.Title)
			fmt.Printf("      %s · %s · %s\n", a.Category, a.PublisherName, a.DatePosted.Format("2006-01-02"))
		}
		return nil
	},
}

var clearConfirmed bool

var articlesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirmed {
			return fmt.Errorf("this deletes every stored article; re-run with --yes to confirm")
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Clear()
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d article(s)\n", n)
		return nil
	},
}

func init() {
	articlesListCmd.Flags().StringVar(&articlesCategory, "category", "", "Filter by category")
	articlesClearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm deletion")
	articlesCmd.AddCommand(articlesListCmd)
	articlesCmd.AddCommand(articlesClearCmd)
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		opts, cleanup, err := pipelineOptions(ctx, st)
		runners := map[string]server.Runner{}
		if err != nil {
			// Serve read-only when credentials are absent.
			log.Printf("ingestion triggers disabled: %v", err)
		} else {
			defer cleanup()
			runners["baseline"] = pipeline.NewBaseline(opts)
			runners["topup"] = pipeline.NewExpanded(opts)
			runners["backfill"] = pipeline.NewFallback(opts)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(st, runners, cfg.Pipeline.TargetTotal, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- helpers ---

func openStore() (*store.Store, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return store.Open(filepath.Join(dataDir, "newslens.db"))
}

// pipelineOptions assembles the collaborators every ingestion pass
// shares. The returned cleanup releases the Gemini client.
func pipelineOptions(ctx context.Context, st *store.Store) (pipeline.Options, func(), error) {
	newsKey, err := cfg.NewsAPIKey()
	if err != nil {
		return pipeline.Options{}, nil, err
	}
	geminiKey, err := cfg.GeminiKey()
	if err != nil {
		return pipeline.Options{}, nil, err
	}

	gen, err := enrich.NewGemini(ctx, geminiKey, cfg.Gemini.Model)
	if err != nil {
		return pipeline.Options{}, nil, err
	}

	var feeds pipeline.FeedSource
	if len(cfg.Feeds) > 0 {
		feedConfigs := make([]source.FeedConfig, 0, len(cfg.Feeds))
		for _, f := range cfg.Feeds {
			feedConfigs = append(feedConfigs, source.FeedConfig{URL: f.URL, Name: f.Name})
		}
		feeds = source.NewFeedFetcher(feedConfigs)
	}

	return pipeline.Options{
		Client:           source.NewNewsAPIClient(newsKey),
		Feeds:            feeds,
		Enricher:         enrich.New(gen, cfg.Pacing()),
		Store:            st,
		Upgrader:         readable.NewExtractor(0),
		TargetTotal:      cfg.Pipeline.TargetTotal,
		BaselineTop:      cfg.Pipeline.BaselineTop,
		BaselinePageSize: cfg.NewsAPI.BaselinePageSize,
		ExpandedPageSize: cfg.NewsAPI.ExpandedPageSize,
		BroadPageSize:    cfg.NewsAPI.BroadPageSize,
		BroadQuery:       cfg.NewsAPI.BroadQuery,
		MinContentChars:  cfg.Pipeline.MinContentChars,
	}, gen.Close, nil
}
