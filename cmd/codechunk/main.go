package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"codechunk/internal/analysis"
	"codechunk/internal/chunk"
	"codechunk/internal/config"
	"codechunk/internal/git"
	"codechunk/internal/graph"
	"codechunk/internal/index"
	"codechunk/internal/retrieval"
	"codechunk/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "codechunk",
		Short: "Hierarchical chunker for Python codebases",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			log.Logger = logger
			zerolog.DefaultContextLogger = &logger
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	configPath   string
	snapshotPath string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "codechunk.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&snapshotPath, "snapshot", "s", "", "Snapshot path (defaults to the configured output)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	chunkCmd.Flags().StringVarP(&chunkOut, "out", "o", "", "Snapshot output path (defaults to the configured output)")
	chunkCmd.Flags().StringVar(&chunkDB, "db", "", "SQLite database path (defaults to the configured output)")
	chunkCmd.Flags().IntVarP(&chunkWorkers, "workers", "w", 0, "Parallel extraction workers (defaults to the configured count)")

	queryCmd.Flags().StringVar(&queryID, "id", "", "Look up one chunk by id")
	queryCmd.Flags().StringVar(&queryName, "name", "", "List chunks matching a name or qualified name")
	queryCmd.Flags().StringVar(&queryType, "type", "", "List chunks of one type")
	queryCmd.Flags().StringVar(&queryFile, "file", "", "List chunks extracted from one file")
	queryCmd.Flags().StringVar(&queryPackage, "package", "", "List chunks contained in one package")
	queryCmd.Flags().BoolVar(&queryRels, "relationships", false, "List relationships instead of chunks")
	queryCmd.Flags().StringVar(&relSource, "source", "", "Filter relationships by source chunk id")
	queryCmd.Flags().StringVar(&relTarget, "target", "", "Filter relationships by target chunk id")
	queryCmd.Flags().StringVar(&relKind, "kind", "", "Filter relationships by kind")
	queryCmd.Flags().BoolVar(&embedText, "embed-text", false, "Print matched chunks as embedding text")

	contextCmd.Flags().StringSliceVar(&ctxSeeds, "seed", nil, "Seed chunk id or name (repeatable)")
	contextCmd.Flags().IntVar(&ctxHops, "hops", 2, "Maximum hops from any seed")
	contextCmd.Flags().Float64Var(&ctxMinConf, "min-confidence", 0, "Drop edges below this confidence")
	contextCmd.Flags().StringSliceVar(&ctxKinds, "kinds", nil, "Edge kinds to follow (default all)")
	contextCmd.Flags().BoolVar(&ctxText, "text", false, "Print concatenated context text instead of ranked chunks")

	impactCmd.Flags().StringVar(&impactBase, "base", "HEAD", "Git ref to diff against")

	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(impactCmd)
}

// loadConfig reads the YAML config, falling back to defaults when the file
// is absent.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	return cfg
}

// loadIndex reads the snapshot written by a previous chunk run.
func loadIndex() *index.Index {
	cfg := loadConfig()
	path := snapshotPath
	if path == "" {
		path = cfg.Output.Snapshot
	}
	idx, err := index.Load(path)
	if err != nil {
		log.Fatal().Err(err).Str("snapshot", path).Msg("Failed to load snapshot (run 'codechunk chunk' first)")
	}
	return idx
}

var (
	chunkOut     string
	chunkDB      string
	chunkWorkers int

	chunkCmd = &cobra.Command{
		Use:   "chunk [path]",
		Short: "Chunk a codebase and write the snapshot and database",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()

			path := cfg.Project.Root
			if len(args) > 0 {
				path = args[0]
			}
			absPath, err := filepath.Abs(path)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to resolve path")
			}

			workers := cfg.Scan.Workers
			if chunkWorkers > 0 {
				workers = chunkWorkers
			}
			outPath := cfg.Output.Snapshot
			if chunkOut != "" {
				outPath = chunkOut
			}
			dbPath := cfg.Output.Database
			if chunkDB != "" {
				dbPath = chunkDB
			}

			fmt.Printf("📂 Chunking %s\n", absPath)

			start := time.Now()
			idx, err := index.Build(context.Background(), index.Options{
				Root:    absPath,
				Ignore:  cfg.Scan.Ignore,
				Workers: workers,
				Commit:  git.HeadCommit(absPath),
			})
			if err != nil {
				log.Fatal().Err(err).Msg("Build failed")
			}

			stats := idx.Stats()
			fmt.Printf("✅ Built %d chunks from %d files in %v.\n",
				stats.Chunks, stats.Files, time.Since(start).Round(time.Millisecond))
			for _, t := range chunk.Types() {
				if n := stats.ChunksByType[t]; n > 0 {
					fmt.Printf("   %-10s %d\n", t, n)
				}
			}
			fmt.Printf("🔗 %d relationships", stats.Relationships)
			if stats.Unresolved > 0 {
				fmt.Printf(" (%d unresolved: %s)", stats.Unresolved, reasonSummary(idx.Unresolved()))
			}
			fmt.Println()
			if stats.Diagnostics > 0 {
				fmt.Printf("⚠️  %d files skipped with syntax errors.\n", stats.Diagnostics)
			}

			saveStart := time.Now()
			if err := idx.Save(outPath); err != nil {
				log.Fatal().Err(err).Msg("Failed to write snapshot")
			}

			store, err := storage.NewSQLiteStore(dbPath)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to open database")
			}
			defer store.Close()
			if err := store.SaveSnapshot(context.Background(), idx.Snapshot()); err != nil {
				log.Fatal().Err(err).Msg("Failed to save database")
			}
			fmt.Printf("💾 Saved %s and %s in %v.\n",
				outPath, dbPath, time.Since(saveStart).Round(time.Millisecond))

			fmt.Printf("🎉 Done in %v.\n", time.Since(start).Round(time.Millisecond))
		},
	}
)

var (
	queryID      string
	queryName    string
	queryType    string
	queryFile    string
	queryPackage string
	queryRels    bool
	relSource    string
	relTarget    string
	relKind      string
	embedText    bool

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Look up chunks and relationships in a snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			idx := loadIndex()

			if queryRels {
				printRelationships(idx)
				return
			}

			var chunks []chunk.Chunk
			switch {
			case queryID != "":
				c, ok := idx.Chunk(queryID)
				if !ok {
					log.Fatal().Str("id", queryID).Msg("Chunk not found")
				}
				chunks = []chunk.Chunk{c}
			case queryName != "":
				chunks = idx.ChunksByName(queryName)
			case queryFile != "":
				chunks = idx.ChunksByFile(queryFile)
			case queryPackage != "":
				chunks = idx.ChunksByPackage(queryPackage)
			case queryType != "":
				t := chunk.Type(queryType)
				if !validType(t) {
					log.Fatal().Str("type", queryType).Msg("Unknown chunk type")
				}
				chunks = idx.ChunksByType(t)
			default:
				printStats(idx)
				return
			}
			printChunks(chunks)
		},
	}
)

var (
	ctxSeeds   []string
	ctxHops    int
	ctxMinConf float64
	ctxKinds   []string
	ctxText    bool

	contextCmd = &cobra.Command{
		Use:   "context",
		Short: "Extract the bounded-hop neighborhood around seed chunks",
		Run: func(cmd *cobra.Command, args []string) {
			if len(ctxSeeds) == 0 {
				log.Fatal().Msg("At least one --seed is required")
			}
			idx := loadIndex()

			var seeds []string
			for _, s := range ctxSeeds {
				if _, ok := idx.Chunk(s); ok {
					seeds = append(seeds, s)
					continue
				}
				matches := idx.ChunksByName(s)
				if len(matches) == 0 {
					log.Fatal().Str("seed", s).Msg("No chunk with this id or name")
				}
				for _, c := range matches {
					seeds = append(seeds, c.ID)
				}
			}

			rcfg := retrieval.DefaultConfig()
			rcfg.MaxHops = ctxHops
			rcfg.MinConfidence = ctxMinConf
			if len(ctxKinds) > 0 {
				rcfg.AllowedKinds = make(map[chunk.RelationKind]bool, len(ctxKinds))
				for _, k := range ctxKinds {
					rcfg.AllowedKinds[chunk.RelationKind(k)] = true
				}
			}

			sg := retrieval.Neighborhood(idx, seeds, rcfg)
			if ctxText {
				fmt.Println(sg.ContextText(idx))
				return
			}
			for _, c := range sg.RankedChunks(idx) {
				fmt.Printf("%.2f  %-9s %-40s %s\n", sg.NodeScores[c.ID], c.Type, c.Qualified(), c.ID)
			}
			fmt.Printf("🧭 %d chunks and %d edges within %d hops of %d seeds.\n",
				len(sg.NodeIDs), len(sg.Edges), rcfg.MaxHops, len(sg.SeedIDs))
		},
	}
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check span nesting and containment invariants of a snapshot",
	Run: func(cmd *cobra.Command, args []string) {
		idx := loadIndex()

		overlaps := analysis.VerifyCoverage(idx)
		for _, o := range overlaps {
			fmt.Printf("❌ %s: %s and %s claim crossing line spans\n", o.File, o.A, o.B)
		}
		issues := analysis.VerifyContainment(idx)
		for _, issue := range issues {
			fmt.Printf("❌ %s: %s\n", issue.ChunkID, issue.Problem)
		}

		if n := len(overlaps) + len(issues); n > 0 {
			fmt.Printf("Found %d violations.\n", n)
			os.Exit(1)
		}
		fmt.Printf("✅ %d chunks verified: spans nest cleanly and containment is a forest.\n", idx.Stats().Chunks)
	},
}

var (
	impactBase string

	impactCmd = &cobra.Command{
		Use:   "impact [path]",
		Short: "Map git changes to affected chunks and their dependents",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			idx := loadIndex()

			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			changes, err := git.GetChangedFiles(root, impactBase)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to read git changes")
			}
			if len(changes) == 0 {
				fmt.Println("✅ No changes detected.")
				return
			}
			fmt.Printf("📝 %d changed files since %s.\n", len(changes), impactBase)

			report := analysis.NewAnalyzer(idx).AnalyzeImpact(changes)
			fmt.Printf("🔍 %d chunks directly affected:\n", len(report.Direct))
			for _, c := range report.Direct {
				fmt.Printf("   %s\n", c.ID)
			}
			fmt.Printf("🔍 %d chunks indirectly affected (dependents):\n", len(report.Indirect))
			for _, c := range report.Indirect {
				fmt.Printf("   %s\n", c.ID)
			}
		},
	}
)

func printChunks(chunks []chunk.Chunk) {
	if len(chunks) == 0 {
		fmt.Println("No chunks matched.")
		return
	}
	if embedText {
		for i, c := range chunks {
			if i > 0 {
				fmt.Println("---")
			}
			fmt.Println(c.EmbeddingText())
		}
		return
	}
	for _, c := range chunks {
		loc := "-"
		if c.Location != nil {
			loc = fmt.Sprintf("%s:%d-%d", c.Location.Path, c.Location.StartLine, c.Location.EndLine)
		}
		fmt.Printf("%-9s %-40s %s\n", c.Type, c.Qualified(), loc)
		fmt.Printf("          %s\n", c.ID)
	}
	fmt.Printf("%d chunks.\n", len(chunks))
}

func printRelationships(idx *index.Index) {
	rels := idx.Relationships()
	if relSource != "" {
		rels = idx.RelationshipsFrom(relSource)
	} else if relTarget != "" {
		rels = idx.RelationshipsTo(relTarget)
	}

	n := 0
	for _, r := range rels {
		if relSource != "" && r.Source != relSource {
			continue
		}
		if relTarget != "" && r.Target != relTarget {
			continue
		}
		if relKind != "" && string(r.Kind) != relKind {
			continue
		}
		if r.Confidence > 0 {
			fmt.Printf("%-10s %s -> %s (%.2f)\n", r.Kind, r.Source, r.Target, r.Confidence)
		} else {
			fmt.Printf("%-10s %s -> %s\n", r.Kind, r.Source, r.Target)
		}
		n++
	}
	fmt.Printf("🔗 %d relationships.\n", n)
}

func printStats(idx *index.Index) {
	stats := idx.Stats()
	fmt.Printf("Root:          %s\n", idx.Root())
	if idx.Commit() != "" {
		fmt.Printf("Commit:        %s\n", idx.Commit())
	}
	fmt.Printf("Files:         %d\n", stats.Files)
	fmt.Printf("Chunks:        %d\n", stats.Chunks)
	for _, t := range chunk.Types() {
		if n := stats.ChunksByType[t]; n > 0 {
			fmt.Printf("  %-11s %d\n", t, n)
		}
	}
	fmt.Printf("Relationships: %d\n", stats.Relationships)
	fmt.Printf("Diagnostics:   %d\n", stats.Diagnostics)
	fmt.Printf("Unresolved:    %d\n", stats.Unresolved)
}

// reasonSummary tallies unresolved references by reason, most common first.
func reasonSummary(unresolved []graph.Unresolved) string {
	counts := make(map[graph.UnresolvedReason]int)
	for _, u := range unresolved {
		counts[u.Reason]++
	}

	reasons := make([]graph.UnresolvedReason, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})

	parts := make([]string, 0, len(reasons))
	for _, r := range reasons {
		parts = append(parts, fmt.Sprintf("%d %s", counts[r], r))
	}
	return strings.Join(parts, ", ")
}

func validType(t chunk.Type) bool {
	for _, known := range chunk.Types() {
		if known == t {
			return true
		}
	}
	return false
}
