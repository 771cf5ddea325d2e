package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"ontoforge/internal/analysis"
	"ontoforge/internal/artifact"
	"ontoforge/internal/config"
	"ontoforge/internal/generator"
	"ontoforge/internal/hierarchy"
	"ontoforge/internal/logging"
	"ontoforge/internal/merge"
	"ontoforge/internal/pipeline"
	"ontoforge/internal/report"
	"ontoforge/internal/retrieval"
	"ontoforge/internal/storage"
	"ontoforge/internal/views"
)

var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "ontoforge",
		Short:         "Build merged ontology hierarchies and origin views from RDF sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	logLevel   string

	buildOpts    pipeline.Options
	originKey    string
	inspectDepth int
	diagramDepth int
	asMermaid    bool
	outPath      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	buildCmd.Flags().BoolVar(&buildOpts.Clean, "clean", false, "Remove persisted artifacts before building")
	buildCmd.Flags().BoolVar(&buildOpts.MergeOnly, "merge-only", false, "Rerun merge and views from persisted per-origin artifacts")
	buildCmd.Flags().BoolVar(&buildOpts.MergeOnly, "fast", false, "Alias for --merge-only")
	buildCmd.Flags().BoolVar(&buildOpts.Publish, "publish", false, "Upload artifacts after the build")

	catalogCmd.Flags().StringVar(&originKey, "origin", "", "List the nodes of one origin")
	inspectCmd.Flags().IntVar(&inspectDepth, "depth", 2, "Maximum hops from the named classes")
	inspectCmd.Flags().BoolVar(&asMermaid, "mermaid", false, "Print the neighbourhood as a Mermaid class diagram")
	diagramCmd.Flags().IntVar(&diagramDepth, "depth", 0, "Maximum tree depth (0 for unbounded)")
	diagramCmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the diagram to a file instead of stdout")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration and builds the logger.
func setup() (*config.Config, *log.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newPipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, err
	}
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild ontologies, hierarchies and views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := newPipeline()
		if err != nil {
			return err
		}
		fmt.Printf("🚀 Building ontology artifacts into %s\n", cfg.Output.Dir)
		return p.Run(cmd.Context(), buildOpts)
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete persisted artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := newPipeline()
		if err != nil {
			return err
		}
		removed, err := p.Clean()
		if err != nil {
			return err
		}
		fmt.Printf("🧹 Removed %d artifacts from %s\n", removed, cfg.Output.Dir)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema [dir]",
	Short: "Write JSON Schemas for every artifact type",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		dir := filepath.Join(cfg.Output.Dir, "schemas")
		if len(args) > 0 {
			dir = args[0]
		}

		written, err := artifact.NewStore(dir, logger).WriteSchemas(map[string]any{
			"ontology":  &artifact.Ontology{},
			"hierarchy": &hierarchy.Node{},
			"report":    &report.PipelineReport{},
		})
		if err != nil {
			return err
		}
		for _, name := range written {
			fmt.Printf("📄 %s\n", filepath.Join(dir, name))
		}
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the artifact directory to the configured S3 bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _, err := newPipeline()
		if err != nil {
			return err
		}
		_, err = p.Publish(cmd.Context())
		return err
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Summarise the merged ontology stored in the SQLite catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return err
		}
		if cfg.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is not configured")
		}

		db, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer db.Close()

		return printCatalog(cmd.Context(), db)
	},
}

func printCatalog(ctx context.Context, db storage.OntologyStore) error {
	if originKey != "" {
		nodes, err := db.FindNodesByOrigin(ctx, originKey)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			fmt.Printf("%s\t%s\t%s\n", n.ID, n.Name, n.Source)
		}
		return nil
	}

	doc, err := db.LoadOntology(ctx)
	if err != nil {
		return err
	}
	counts, err := db.CountByOrigin(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("📚 %d nodes, %d edges (generated %s)\n", len(doc.Nodes), len(doc.Edges), doc.Meta.Generated)
	for _, k := range keys {
		fmt.Printf("  -> %s: %d\n", k, counts[k])
	}
	return nil
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <class>...",
	Short: "Show the neighbourhood and change impact of classes in the merged ontology",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		doc, err := artifact.NewStore(cfg.Output.Dir, logger).LoadOntology(artifact.MergedOntology)
		if err != nil {
			return err
		}
		g := doc.Graph()

		sg := retrieval.Extract(g, args, retrieval.Config{MaxHops: inspectDepth})
		if asMermaid {
			fmt.Print((&generator.MermaidGenerator{}).GenerateClassDiagram(sg.Graph(g)))
			return nil
		}

		impact := analysis.NewAnalyzer(g).AnalyzeImpact(args)
		for _, name := range impact.Missing {
			fmt.Printf("⚠️  %s not found\n", name)
		}
		fmt.Printf("🔎 %d nodes within %d hops, %d edges\n", len(sg.NodeIDs), sg.MaxHops, len(sg.Edges))
		for _, id := range sg.NodeIDs {
			n := g.Node(id)
			fmt.Printf("  [%d] %s (%s)\n", sg.Depth[id], n.Name, n.Origin)
		}

		keys := make([]string, 0, len(cfg.Origins))
		for _, o := range cfg.Origins {
			keys = append(keys, o.Key)
		}
		fmt.Printf("💥 Impact: %d direct, %d indirect, origins %v\n",
			len(impact.DirectlyAffected), len(impact.IndirectlyAffected), impact.Origins)
		for _, key := range analysis.AffectedViews(keys, impact.Origins) {
			fmt.Printf("  -> %s\n", views.FileName(key))
		}
		return nil
	},
}

var diagramCmd = &cobra.Command{
	Use:   "diagram [view]",
	Short: "Render the global hierarchy or one view as a Mermaid flowchart",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		store := artifact.NewStore(cfg.Output.Dir, logger)

		name := artifact.GlobalHierarchy
		if len(args) > 0 {
			name = filepath.ToSlash(filepath.Join(artifact.ViewsDir, views.FileName(args[0])))
		}
		root, err := store.LoadTree(name, merge.RootName)
		if err != nil {
			return err
		}

		out := (&generator.MermaidGenerator{MaxDepth: diagramDepth}).GenerateHierarchy(root)
		if outPath == "" {
			fmt.Print(out)
			return nil
		}
		if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
			return fmt.Errorf("failed to write diagram: %w", err)
		}
		fmt.Printf("🖼️  Wrote %s\n", outPath)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ontoforge", version)
	},
}
