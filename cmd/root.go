package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/utils"
)

var rootCmd = &cobra.Command{
	Use:   "erdkit",
	Short: "Entity-relationship diagram toolkit",
	Long: `erdkit edits, validates and renders entity-relationship diagrams.

Examples:

  erdkit init
  erdkit validate
  erdkit connect users.id orders
  erdkit docs --format svg
  erdkit studio
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.LoadEnv()
		if !routeStyle().Valid() {
			return fmt.Errorf("unknown route style %q (use curved or orthogonal)", routeStyle())
		}
		if !routeMode().Valid() {
			return fmt.Errorf("unknown route mode %q (use column or table)", routeMode())
		}
		return nil
	},
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("❌", err)
		os.Exit(1)
	}
}

// Register subcommands
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("schema", "s", "schema.yaml", "Diagram file (.yaml, .json or .msgpack)")
	flags.String("engine", string(schema.Postgres), "Target SQL engine for type checks")
	flags.String("style", string(router.Orthogonal), "Route style (curved, orthogonal)")
	flags.String("mode", string(router.ColumnLevel), "Route anchoring (column, table)")
	flags.BoolP("verbose", "v", false, "Log resolver and editor decisions")
	_ = viper.BindPFlag("schema.file", flags.Lookup("schema"))
	_ = viper.BindPFlag("engine", flags.Lookup("engine"))
	_ = viper.BindPFlag("route.style", flags.Lookup("style"))
	_ = viper.BindPFlag("route.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("log.verbose", flags.Lookup("verbose"))

	viper.SetEnvPrefix("ERDKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(cardinalityCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(introspectCmd)
	rootCmd.AddCommand(healthCmd)
}

func schemaFile() string { return viper.GetString("schema.file") }

func engine() schema.Engine { return schema.Engine(viper.GetString("engine")) }

func routeStyle() router.Style { return router.Style(viper.GetString("route.style")) }

func routeMode() router.Mode { return router.Mode(viper.GetString("route.mode")) }
