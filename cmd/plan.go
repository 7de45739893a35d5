package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qaforge/casegen/internal/docs"
	"github.com/qaforge/casegen/internal/planner"
)

var planOut string

var planCmd = &cobra.Command{
	Use:   "plan <doc.md|url>",
	Short: "Create a generation plan for large API documentation",
	Long: `Condenses the documentation, asks the model to decompose it into
focused generation calls and prints the validated plan as JSON. Use
--out to save the plan for 'casegen generate --plan'.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planOut, "out", "", "write the plan JSON to this file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	documentation, err := loadDocumentation(ctx, args[0])
	if err != nil {
		return err
	}

	plan, err := p.planner.CreatePlan(ctx, documentation)
	if err != nil {
		return err
	}

	if planOut != "" {
		if err := savePlan(planOut, plan); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "plan written to %s\n", planOut)
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// loadDocumentation reads a local file or fetches a URL.
func loadDocumentation(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return docs.LoadURL(ctx, source)
	}
	return docs.LoadFile(source)
}

// planFile is the on-disk plan format. The original documentation is
// excluded from the model's wire shape but must survive a save/load
// round trip for phase-2 generation.
type planFile struct {
	*planner.Plan
	OriginalDocumentation string `json:"original_documentation"`
}

func savePlan(path string, plan *planner.Plan) error {
	data, err := json.MarshalIndent(planFile{
		Plan:                  plan,
		OriginalDocumentation: plan.OriginalDocumentation,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

func loadPlan(path string) (*planner.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var pf planFile
	pf.Plan = &planner.Plan{}
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	pf.Plan.OriginalDocumentation = pf.OriginalDocumentation
	return pf.Plan, nil
}
