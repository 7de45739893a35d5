package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qaforge/casegen/internal/rag"
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed all stored test cases into the vector index",
	Long: `Reads every test case from the store, projects each into a bounded
retrievable document and writes them to the vector index in adaptively
sized batches. Partial failures are reported but do not abort the run.`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	records, err := p.store.GetAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "store is empty, nothing to embed")
		return nil
	}

	res, err := p.workflow.Embed(ctx, rag.BuildDocuments(records))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "embedded %d of %d documents\n", res.EmbeddedCount, res.TotalDocuments)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  warning: %s\n", e)
	}
	return nil
}
