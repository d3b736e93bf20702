package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ridoystarlord/erdkit/database"
	"github.com/ridoystarlord/erdkit/introspect"
	"github.com/ridoystarlord/erdkit/loader"
)

var (
	introspectPerRow int
	introspectForce  bool
)

var introspectCmd = &cobra.Command{
	Use:   "introspect",
	Short: "Build a diagram from an existing database",
	Long: `Read tables, columns and foreign keys from a PostgreSQL database and
write them as a diagram, laid out on a grid.

Examples:
  erdkit introspect --url postgres://localhost/shop
  DATABASE_URL=postgres://... erdkit introspect --schema shop.json
  erdkit introspect --per-row 3 --force
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := schemaFile()
		if _, err := os.Stat(path); err == nil && !introspectForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		pool, err := database.GetPool(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database pool: %w", err)
		}
		defer database.ClosePool()

		tables, err := introspect.IntrospectDatabase(cmd.Context(), pool)
		if err != nil {
			return fmt.Errorf("error introspecting database: %w", err)
		}

		layout := introspect.DefaultLayout()
		layout.PerRow = introspectPerRow
		d := introspect.ToDiagram(tables, layout)
		d.Engine = engine()
		if err := loader.SaveDiagram(path, d); err != nil {
			return err
		}
		fmt.Printf("✅ Wrote %d tables and %d relationships to %s\n", len(d.Tables), len(d.Relationships), path)
		return nil
	},
}

func init() {
	introspectCmd.Flags().String("url", "", "Database URL (defaults to DATABASE_URL)")
	_ = viper.BindPFlag("database.url", introspectCmd.Flags().Lookup("url"))
	introspectCmd.Flags().IntVar(&introspectPerRow, "per-row", 4, "Tables per row in the layout")
	introspectCmd.Flags().BoolVarP(&introspectForce, "force", "F", false, "Overwrite an existing diagram file")
}
