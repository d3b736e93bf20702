package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/docs"
	"github.com/ridoystarlord/erdkit/loader"
	"github.com/ridoystarlord/erdkit/schema"
)

var (
	docsFormat  string
	docsOutput  string
	docsLogical bool
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Render the diagram",
	Long: `Render ERD diagrams from your diagram file.

Supported formats:
  - plantuml: PlantUML ERD diagram
  - mermaid: Mermaid ERD diagram
  - graphviz: Graphviz DOT format
  - svg: SVG drawing with routed relationships (uses --style and --mode)

Examples:
  erdkit docs --format plantuml --output erd.puml
  erdkit docs --format svg --style curved
  erdkit docs --format all --output docs/
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loader.LoadDiagram(schemaFile())
		if err != nil {
			return fmt.Errorf("error loading schema: %w", err)
		}
		if len(d.Tables) == 0 {
			return fmt.Errorf("no tables found in schema")
		}
		if docsLogical {
			d.ViewMode = schema.LogicalView
		}

		if docsFormat == "all" {
			if docsOutput == "" {
				docsOutput = "."
			}
			if err := os.MkdirAll(docsOutput, 0755); err != nil {
				return fmt.Errorf("error creating output directory: %w", err)
			}
			for _, f := range docs.Formats {
				if err := writeDoc(f, d, filepath.Join(docsOutput, f.DefaultFilename())); err != nil {
					return err
				}
			}
		} else {
			f := docs.Format(docsFormat)
			output := docsOutput
			if output == "" {
				output = f.DefaultFilename()
			}
			if err := writeDoc(f, d, output); err != nil {
				return err
			}
		}

		fmt.Println("✅ Documentation generated successfully!")
		return nil
	},
}

func init() {
	docsCmd.Flags().StringVarP(&docsFormat, "format", "f", "mermaid", "Output format (plantuml, mermaid, graphviz, svg, all)")
	docsCmd.Flags().StringVarP(&docsOutput, "output", "o", "", "Output file, or directory for --format all")
	docsCmd.Flags().BoolVar(&docsLogical, "logical", false, "Show logical names where set")
}

func writeDoc(f docs.Format, d schema.Diagram, output string) error {
	content, err := docs.Render(f, d, newRouter(), docs.SVGOptions{Style: routeStyle(), Mode: routeMode()})
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, []byte(content), 0644); err != nil {
		return fmt.Errorf("error writing %s file: %w", f, err)
	}
	fmt.Printf("✅ %s saved to: %s\n", f, output)
	return nil
}
