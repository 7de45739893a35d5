package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and index status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	out := cmd.OutOrStdout()

	stored, err := p.store.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "store:    %d test case(s) in %s\n", stored, p.store.Path())

	indexed, err := p.knowledge.Count(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "index:    %d document(s)\n", indexed)

	if p.workflow.Resume(ctx) {
		fmt.Fprintln(out, "embedded: yes")
	} else {
		fmt.Fprintln(out, "embedded: no (run 'casegen embed')")
	}
	return nil
}
