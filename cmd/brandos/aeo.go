package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jonathan/brandos/internal/aeo"
	"github.com/jonathan/brandos/internal/config"
	"github.com/jonathan/brandos/internal/observability"
	"github.com/jonathan/brandos/internal/pipeline"
)

var aeoCmd = &cobra.Command{
	Use:   "aeo [brand]",
	Short: "Check a brand's visibility in AI answer engines",
	Long: `Ask Gemini, ChatGPT and Perplexity the profile's keyword questions, build
the share-of-voice leaderboard and an action plan. Saved brands get rank
changes against their previous report.

With --defense the command instead asks branded questions ("Acme pricing",
"Acme vs Globex") on Gemini and reports how often competitors leak into the
answers, plus a defense playbook.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAEO,
}

var (
	aeoProfile    string
	aeoKeywords   []string
	aeoIntents    []string
	aeoRegion     string
	aeoAudience   string
	aeoRuns       int
	aeoRisk       bool
	aeoNoStrategy bool
	aeoNoDB       bool
	aeoJSON       bool
	aeoDefense    bool
	aeoRivals     []string
)

// maxDefenseKeywords bounds the branded keyword set; each keyword costs four queries.
const maxDefenseKeywords = 5

func init() {
	aeoCmd.Flags().StringVarP(&aeoProfile, "profile", "p", "", "YAML run profile")
	aeoCmd.Flags().StringSliceVarP(&aeoKeywords, "keyword", "k", nil, "Keyword to check (repeatable)")
	aeoCmd.Flags().StringSliceVar(&aeoIntents, "intent", nil, "Intent: Informational, Commercial, Transactional or General (repeatable)")
	aeoCmd.Flags().StringVar(&aeoRegion, "region", "", "Geo context for the prompts")
	aeoCmd.Flags().StringVar(&aeoAudience, "audience", "", "Audience context for commercial prompts")
	aeoCmd.Flags().IntVar(&aeoRuns, "runs", 0, "Repetitions per prompt for stability scoring (max 10)")
	aeoCmd.Flags().BoolVar(&aeoRisk, "risk", false, "Add reputation risk prompts")
	aeoCmd.Flags().BoolVar(&aeoNoStrategy, "no-strategy", false, "Skip the action plan")
	aeoCmd.Flags().BoolVar(&aeoNoDB, "no-db", false, "Do not save the report")
	aeoCmd.Flags().BoolVar(&aeoJSON, "json", false, "Print the full result as JSON")
	aeoCmd.Flags().BoolVar(&aeoDefense, "defense", false, "Run a brand defense simulation instead")
	aeoCmd.Flags().StringSliceVar(&aeoRivals, "competitor", nil, "Competitor to watch for in --defense answers (repeatable)")
	rootCmd.AddCommand(aeoCmd)
}

func runAEO(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile(aeoProfile)
	if err != nil {
		return err
	}
	applyAEOFlags(&profile, cmd.Flags(), args)
	if profile.Brand == "" {
		return fmt.Errorf("a brand is required: pass it as an argument or set 'brand' in the profile")
	}
	if len(profile.Keywords) == 0 {
		return fmt.Errorf("at least one --keyword is required")
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	if aeoDefense && len(profile.Keywords) > maxDefenseKeywords {
		return fmt.Errorf("--defense takes at most %d keywords", maxDefenseKeywords)
	}

	ctx := commandContext(cmd)
	a, err := newApp(ctx, appOptions{needLLM: true, noDB: aeoNoDB, quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	printer.Verbose = verbose || profile.Verbose
	opts := pipeline.AEOOptions{
		BrandName:    profile.Brand,
		Keywords:     profile.Keywords,
		Intents:      profile.Intents,
		Region:       profile.Region,
		Audience:     profile.Audience,
		Runs:         profile.Runs,
		Risk:         profile.Risk,
		SkipStrategy: aeoNoStrategy,
	}
	if !aeoJSON {
		opts.OnProgress = printer.Progress
		opts.OnStart = func(id uuid.UUID) {
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", id)
		}
	}
	if a.db != nil {
		brand, err := a.lookupBrand(ctx, profile.Brand)
		if err != nil {
			return fmt.Errorf("%w (run `brandos analyze` first or pass --no-db)", err)
		}
		opts.BrandID = &brand.ID
		opts.BrandName = brand.Name
	}

	if aeoDefense {
		return runDefense(ctx, cmd, a, printer, profile, opts.BrandName)
	}

	result, err := pipeline.RunAEO(ctx, a.deps, opts)
	if err != nil {
		printer.Errorf("visibility check failed: %v", err)
		return err
	}

	if aeoJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printer.PrintLeaderboard(opts.BrandName, result.Competitive)
	if result.RankPosition > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s ranks #%d\n", opts.BrandName, result.RankPosition)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s was not mentioned\n", opts.BrandName)
	}
	printer.PrintStrategy(result.Strategy)
	return nil
}

// runDefense runs the branded simulation on Gemini and prints the moat report.
func runDefense(ctx context.Context, cmd *cobra.Command, a *app, printer *observability.Printer, profile config.Profile, brandName string) error {
	var engine aeo.Engine
	for _, e := range a.deps.Engines {
		if e.Name() == aeo.EngineGemini {
			engine = e
		}
	}
	if engine == nil {
		return fmt.Errorf("brand defense needs the Gemini engine")
	}

	checker := aeo.NewChecker(nil, a.logger, a.deps.CheckerOptions...)
	report, err := checker.RunBrandedSimulation(ctx, engine, aeo.DefenseRequest{
		Brand:       brandName,
		Keywords:    profile.Keywords,
		Competitors: aeoRivals,
		Region:      profile.Region,
		Audience:    profile.Audience,
	})
	if err != nil {
		printer.Errorf("defense simulation failed: %v", err)
		return err
	}

	var strategy *aeo.DefenseStrategy
	if !aeoNoStrategy {
		if strategy, err = aeo.GenerateDefenseStrategy(ctx, a.deps.Client, brandName, report); err != nil {
			printer.Errorf("defense playbook failed: %v", err)
		}
	}

	if aeoJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"report": report, "strategy": strategy})
	}
	printer.PrintDefense(report, strategy)
	return nil
}

// applyAEOFlags overrides profile values with the flags the user set.
func applyAEOFlags(p *config.Profile, flags *pflag.FlagSet, args []string) {
	if len(args) > 0 {
		p.Brand = args[0]
	}
	if flags.Changed("keyword") {
		p.Keywords = aeoKeywords
	}
	if flags.Changed("intent") {
		p.Intents = aeoIntents
	}
	if flags.Changed("region") {
		p.Region = aeoRegion
	}
	if flags.Changed("audience") {
		p.Audience = aeoAudience
	}
	if flags.Changed("runs") {
		p.Runs = aeoRuns
	}
	if flags.Changed("risk") {
		p.Risk = aeoRisk
	}
}
