package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/database"
	"github.com/ridoystarlord/erdkit/loader"
	"github.com/ridoystarlord/erdkit/typeoracle"
	"github.com/ridoystarlord/erdkit/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a diagram file",
	Long: `Validate your diagram file before loading it.

This command checks:
- Table and column naming (identifier rules, duplicates)
- Data types and default values against the target engine
- Relationship endpoints, self-links and duplicates
- Relationship types and derived foreign key flags
- Tables that are missing from the database (when DATABASE_URL is set)

Examples:
  erdkit validate                        # Validate schema.yaml
  erdkit validate --schema shop.json     # Validate another file
  erdkit validate --format json          # Output validation results as JSON
  DATABASE_URL=postgres://... erdkit validate  # Also check the database
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := validateDiagram(cmd.Context())
		if err != nil {
			return fmt.Errorf("schema validation failed: %w", err)
		}
		if validateFormat == "json" {
			err = outputJSON(result)
		} else {
			outputText(result)
		}
		if err == nil && !result.Valid {
			os.Exit(1)
		}
		return err
	},
}

var validateFormat string

func init() {
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

func validateDiagram(ctx context.Context) (*validator.ValidationResult, error) {
	d, err := loader.LoadDiagram(schemaFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	if d.Engine == "" {
		d.Engine = engine()
	}

	v := validator.NewDiagramValidator(typeoracle.Default{}, d.Engine)
	result := v.ValidateDiagram(d)

	pool, err := database.GetPool(ctx)
	if errors.Is(err, database.ErrNoDatabaseURL) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	defer database.ClosePool()
	if err := v.CheckDatabase(ctx, pool, d, result); err != nil {
		return nil, err
	}
	return result, nil
}

func outputJSON(result *validator.ValidationResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printIssues(heading string, issues []validator.ValidationError) {
	if len(issues) == 0 {
		return
	}
	fmt.Printf("\n%s (%d):\n", heading, len(issues))
	for i, issue := range issues {
		fmt.Printf("  %d. ", i+1)
		if issue.Table != "" {
			fmt.Printf("[%s]", issue.Table)
		}
		if issue.Column != "" {
			fmt.Printf(".%s", issue.Column)
		}
		if issue.Relationship != "" {
			fmt.Printf(" (relationship: %s)", issue.Relationship)
		}
		fmt.Printf(": %s\n", issue.Message)
	}
}

func outputText(result *validator.ValidationResult) {
	if result.Valid {
		color.Green("✅ Schema validation passed!")
	} else {
		color.Red("❌ Schema validation failed!")
	}

	printIssues("🔴 Errors", result.Errors)
	printIssues("🟡 Warnings", result.Warnings)
	printIssues("🔵 Info", result.Info)

	fmt.Printf("\n📊 Summary:\n")
	fmt.Printf("  • Errors: %d\n", len(result.Errors))
	fmt.Printf("  • Warnings: %d\n", len(result.Warnings))
	fmt.Printf("  • Info: %d\n", len(result.Info))

	if !result.Valid {
		fmt.Printf("\n💡 Fix the errors above before loading the diagram.\n")
	}
}
