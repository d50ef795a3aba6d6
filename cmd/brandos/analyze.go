package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jonathan/brandos/internal/config"
	"github.com/jonathan/brandos/internal/observability"
	"github.com/jonathan/brandos/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyze a brand website",
	Long: `Fetch a brand's homepage and key pages, extract its DNA and personas,
build the strategy, design tokens, health score and knowledge graph, and
save the report. The URL may come from --profile instead of the argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeProfile    string
	analyzeCompetitor string
	analyzeExtra      []string
	analyzeMaxPages   int
	analyzeDiscover   bool
	analyzeScreenshot bool
	analyzeNoDB       bool
	analyzeJSON       bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeProfile, "profile", "p", "", "YAML run profile")
	analyzeCmd.Flags().StringVar(&analyzeCompetitor, "competitor", "", "Competitor homepage for a battle card")
	analyzeCmd.Flags().StringSliceVar(&analyzeExtra, "extra", nil, "Additional pages to include (repeatable)")
	analyzeCmd.Flags().IntVar(&analyzeMaxPages, "max-pages", 0, "Maximum pages to fetch (default: 5, max: 15)")
	analyzeCmd.Flags().BoolVar(&analyzeDiscover, "discover", false, "Also try /about, /pricing and other key pages")
	analyzeCmd.Flags().BoolVar(&analyzeScreenshot, "screenshot", false, "Send a homepage screenshot to the analysis (needs Chrome)")
	analyzeCmd.Flags().BoolVar(&analyzeNoDB, "no-db", false, "Do not save anything, even when DATABASE_URL is set")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full result as JSON instead of a summary")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(analyzeProfile)
	if err != nil {
		return err
	}
	applyAnalyzeFlags(&profile, cmd.Flags(), args)
	if profile.URL == "" {
		return fmt.Errorf("a URL is required: pass it as an argument or set 'url' in the profile")
	}

	ctx := commandContext(cmd)
	a, err := newApp(ctx, appOptions{
		needLLM: true,
		noDB:    analyzeNoDB,
		browser: analyzeScreenshot || profile.UseBrowser,
		quiet:   true,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.Verbose = verbose || profile.Verbose
	opts := pipeline.AnalysisOptions{
		URL:           profile.URL,
		ExtraURLs:     profile.ExtraURLs,
		CompetitorURL: profile.CompetitorURL,
		MaxPages:      profile.MaxPages,
		Discover:      analyzeDiscover,
		Screenshot:    analyzeScreenshot,
		OnProgress:    printer.Progress,
	}
	if !analyzeJSON {
		opts.OnStart = func(id uuid.UUID) {
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", id)
		}
	} else {
		opts.OnProgress = nil
	}

	result, err := pipeline.RunAnalysis(ctx, a.deps, opts)
	if err != nil {
		printer.Errorf("analysis failed: %v", err)
		return err
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printer.PrintBrandReport(result.Report)
	if len(result.Failed) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%d page(s) could not be fetched\n", len(result.Failed))
	}
	return nil
}

// loadProfile reads the YAML profile at path, or starts from an empty one,
// and fills unset fields from the defaults.
func loadProfile(path string) (config.Profile, error) {
	p := &config.Profile{}
	if path != "" {
		loaded, err := config.LoadProfile(path)
		if err != nil {
			return config.Profile{}, err
		}
		p = loaded
	}
	merged := p.MergeWithDefaults(config.DefaultProfile())
	if err := merged.Validate(); err != nil {
		return config.Profile{}, err
	}
	return merged, nil
}

// applyAnalyzeFlags overrides profile values with the flags the user set.
func applyAnalyzeFlags(p *config.Profile, flags *pflag.FlagSet, args []string) {
	if len(args) > 0 {
		p.URL = args[0]
	}
	if flags.Changed("competitor") {
		p.CompetitorURL = analyzeCompetitor
	}
	if flags.Changed("extra") {
		p.ExtraURLs = analyzeExtra
	}
	if flags.Changed("max-pages") {
		p.MaxPages = analyzeMaxPages
	}
	if flags.Changed("verbose") {
		p.Verbose = verbose
	}
}

// writeFile writes data to path, or to stdout when path is "-".
func writeFile(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" || path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
