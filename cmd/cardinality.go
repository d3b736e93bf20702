package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/resolver"
	"github.com/ridoystarlord/erdkit/schema"
)

var cardinalityCmd = &cobra.Command{
	Use:   "cardinality <relationship> <type>",
	Short: "Change a relationship's type",
	Long: `Change the type of a relationship, found by id or name.

Every type except N:M also sets the referencing column's nullability:
the 0..1 and 0..N forms make it nullable, the others make it NOT NULL.

Types: 1:1, 1:N, N:1, N:M, 1:0..N, 1:0..1

Examples:
  erdkit cardinality fk_users_id_posts_user_id 1:0..N
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := schema.Cardinality(args[1])
		if !c.Valid() {
			names := make([]string, len(schema.Cardinalities))
			for i, v := range schema.Cardinalities {
				names[i] = string(v)
			}
			return fmt.Errorf("unknown relationship type %q (use %s)", args[1], strings.Join(names, ", "))
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		rel, err := findRelationship(s.Graph(), args[0])
		if err != nil {
			return err
		}
		g := s.Apply(func(g schema.Graph) schema.Graph {
			return resolver.UpdateCardinality(g, rel.ID, c)
		})
		if err := saveStore(s); err != nil {
			return err
		}

		col, _ := g.Column(rel.ToTable, rel.ToCol)
		color.Green("✅ %s is now %s", rel.Name, c)
		fmt.Printf("  %s\n", describeColumn(col))
		return nil
	},
}
