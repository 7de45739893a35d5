package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qaforge/casegen/internal/coverage"
	"github.com/qaforge/casegen/internal/testcase"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Inspect and manage the test-case store",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored test cases",
	RunE:  runCasesList,
}

var casesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a test case",
	RunE:  runCasesAdd,
}

var (
	addID       string
	addPurpose  string
	addScenario string
	addTestData string
	addSteps    []string
	addExpected []string
	addNote     string
)

var casesDeleteCmd = &cobra.Command{
	Use:   "delete <id> [purpose]",
	Short: "Delete a test case, or every record with the id",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCasesDelete,
}

var casesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store statistics",
	RunE:  runCasesStats,
}

var casesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every stored test case",
	RunE:  runCasesValidate,
}

var casesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search test cases by substring",
	Args:  cobra.ExactArgs(1),
	RunE:  runCasesSearch,
}

var coverageDoc string

var casesCoverageCmd = &cobra.Command{
	Use:   "coverage --doc <doc.md>",
	Short: "Analyze flow coverage of the stored test cases",
	RunE:  runCasesCoverage,
}

func init() {
	casesAddCmd.Flags().StringVar(&addID, "id", "", "test case id (required)")
	casesAddCmd.Flags().StringVar(&addPurpose, "purpose", "", "purpose (required)")
	casesAddCmd.Flags().StringVar(&addScenario, "scenario", "", "scenario (required)")
	casesAddCmd.Flags().StringVar(&addTestData, "test-data", "", "test data")
	casesAddCmd.Flags().StringArrayVar(&addSteps, "step", nil, "step (repeatable)")
	casesAddCmd.Flags().StringArrayVar(&addExpected, "expect", nil, "expected result (repeatable)")
	casesAddCmd.Flags().StringVar(&addNote, "note", "", "note")
	_ = casesAddCmd.MarkFlagRequired("id")
	_ = casesAddCmd.MarkFlagRequired("purpose")
	_ = casesAddCmd.MarkFlagRequired("scenario")

	casesCoverageCmd.Flags().StringVar(&coverageDoc, "doc", "", "documentation file or URL (required)")
	_ = casesCoverageCmd.MarkFlagRequired("doc")

	casesCmd.AddCommand(casesListCmd, casesAddCmd, casesDeleteCmd,
		casesStatsCmd, casesValidateCmd, casesSearchCmd, casesCoverageCmd)
	rootCmd.AddCommand(casesCmd)
}

func runCasesList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	records, err := s.GetAll()
	if err != nil {
		return err
	}
	return printJSON(cmd, records)
}

func runCasesAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	rec := testcase.Record{
		ID:       testcase.CleanID(addID),
		Purpose:  addPurpose,
		Scenario: addScenario,
		TestData: addTestData,
		Steps:    addSteps,
		Expected: addExpected,
		Note:     addNote,
	}
	inserted, err := s.Upsert(rec)
	if err != nil {
		return err
	}
	if inserted {
		fmt.Fprintf(cmd.OutOrStdout(), "added %s/%s\n", rec.ID, rec.Purpose)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s/%s\n", rec.ID, rec.Purpose)
	}
	return nil
}

func runCasesDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	if len(args) == 2 {
		if err := s.Delete(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", args[0], args[1])
		return nil
	}

	removed, err := s.DeleteAll(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d record(s) with id %s\n", removed, args[0])
	return nil
}

func runCasesStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	stats, err := s.Stats()
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}

func runCasesValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	report, err := s.ValidateAll()
	if err != nil {
		return err
	}
	if err := printJSON(cmd, report); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("store validation failed")
	}
	return nil
}

func runCasesSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	records, err := s.Search(args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, records)
}

func runCasesCoverage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := openStore(cfg, newLogger(cfg))

	records, err := s.GetAll()
	if err != nil {
		return err
	}
	documentation, err := loadDocumentation(ctx, coverageDoc)
	if err != nil {
		return err
	}
	return printJSON(cmd, coverage.Analyze(records, documentation))
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
