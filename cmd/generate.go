package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qaforge/casegen/internal/rag"
)

var (
	generatePlanPath   string
	generateCallID     int
	generateAllCalls   bool
	generatePromptPath string
	generateDryRun     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [doc.md|url]",
	Short: "Generate test cases from API documentation",
	Long: `Retrieves the most similar stored test cases for the documentation,
builds a bounded prompt and asks the model for new test cases. Parsed
records are upserted into the store unless --dry-run is set.

For large documentation, create a plan first and run per call:

  casegen plan big-api.md --out plan.json
  casegen generate --plan plan.json --call 1
  casegen generate --plan plan.json --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generatePlanPath, "plan", "", "plan JSON produced by 'casegen plan'")
	generateCmd.Flags().IntVar(&generateCallID, "call", 0, "run a single plan call by id")
	generateCmd.Flags().BoolVar(&generateAllCalls, "all", false, "run every plan call in order")
	generateCmd.Flags().StringVar(&generatePromptPath, "prompt", "", "custom prompt template file ({context}/{question} placeholders)")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "print results without writing the store")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	customPrompt := ""
	if generatePromptPath != "" {
		data, err := os.ReadFile(generatePromptPath)
		if err != nil {
			return fmt.Errorf("read prompt template: %w", err)
		}
		customPrompt = string(data)
	}

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.resumeEmbedded(ctx); err != nil {
		return err
	}

	if generatePlanPath != "" {
		return runPlannedGeneration(cmd, p, customPrompt)
	}

	if len(args) != 1 {
		return fmt.Errorf("documentation file or URL required without --plan")
	}
	documentation, err := loadDocumentation(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := p.workflow.GenerateTestCases(ctx, documentation, customPrompt)
	if err != nil {
		return err
	}
	return reportResult(cmd, p, res)
}

func runPlannedGeneration(cmd *cobra.Command, p *pipeline, customPrompt string) error {
	ctx := cmd.Context()

	plan, err := loadPlan(generatePlanPath)
	if err != nil {
		return err
	}

	var callIDs []int
	switch {
	case generateAllCalls:
		for _, call := range plan.GenerationCalls {
			callIDs = append(callIDs, call.CallID)
		}
	case generateCallID > 0:
		callIDs = []int{generateCallID}
	default:
		return fmt.Errorf("--plan requires --call <id> or --all")
	}

	for _, id := range callIDs {
		res, err := p.workflow.GenerateForCall(ctx, plan, id, customPrompt)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "call %d:\n", id)
		if err := reportResult(cmd, p, res); err != nil {
			return err
		}
	}
	return nil
}

// reportResult prints the generation outcome and persists the records.
func reportResult(cmd *cobra.Command, p *pipeline, res rag.Result) error {
	out := cmd.OutOrStdout()

	if len(res.GeneratedCases) == 0 {
		fmt.Fprintln(out, "no test cases parsed from the model response")
		fmt.Fprintf(out, "raw response (%d chars): %.200s\n", len(res.RawResponse), res.RawResponse)
		return nil
	}

	inserted, updated := 0, 0
	for _, rec := range res.GeneratedCases {
		if generateDryRun {
			continue
		}
		isNew, err := p.store.Upsert(rec)
		if err != nil {
			return fmt.Errorf("store %s/%s: %w", rec.ID, rec.Purpose, err)
		}
		if isNew {
			inserted++
		} else {
			updated++
		}
	}

	if generateDryRun {
		fmt.Fprintf(out, "generated %d test cases (dry run, store untouched)\n", len(res.GeneratedCases))
	} else {
		fmt.Fprintf(out, "generated %d test cases (%d new, %d updated)\n",
			len(res.GeneratedCases), inserted, updated)
	}
	for _, rec := range res.GeneratedCases {
		fmt.Fprintf(out, "  %s: %s\n", rec.ID, rec.Scenario)
	}
	return nil
}
