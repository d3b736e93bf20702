package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/resolver"
	"github.com/ridoystarlord/erdkit/schema"
)

var (
	connectConfirm     bool
	connectCreateNew   bool
	connectUseExisting string
	reconnectEnd       string
)

var errUnresolved = errors.New("connection needs a decision; nothing was saved")

var connectCmd = &cobra.Command{
	Use:   "connect <table.column> <table[.column]>",
	Short: "Connect a column to another table or column",
	Long: `Create a foreign key relationship, the way dragging a connector does.

The first argument is the referenced column. The second is either the
referencing column or just a table, in which case a foreign key column is
created (or an existing one chosen) in that table.

When the link needs a decision the conflict is printed and nothing is saved
unless a flag settles it:

  --confirm            overwrite a mismatched target column's type and nullability
  --create-new         add a new foreign key column despite similar columns
  --use-existing NAME  link to one of the offered candidate columns

Examples:
  erdkit connect users.id posts.user_id
  erdkit connect users.id comments --create-new
  erdkit connect users.id orders --use-existing customer_id
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		g := s.Graph()
		src, err := parseRef(g, args[0])
		if err != nil {
			return err
		}
		if src.column == nil {
			return fmt.Errorf("source %q must name a column", args[0])
		}
		tgt, err := parseRef(g, args[1])
		if err != nil {
			return err
		}

		req := resolver.Request{SourceTable: src.table.ID, SourceColumn: src.column.ID, TargetTable: tgt.table.ID}
		if tgt.column != nil {
			req.TargetColumn = tgt.column.ID
		}
		r := newResolver(s)
		return commit(s, r, r.Connect(g, req))
	},
}

var reconnectCmd = &cobra.Command{
	Use:   "reconnect <relationship> <table[.column]>",
	Short: "Move one end of a relationship",
	Long: `Move the source or target end of an existing relationship onto another
column. The rebuilt relationship gets a new id but keeps its name, type
and manual-edit flag. Conflicts are settled with the same
flags as connect.

Examples:
  erdkit connect reconnect fk_users_id_posts_user_id posts.author_id
  erdkit connect reconnect fk_users_id_posts_user_id accounts.id --end source
`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		g := s.Graph()
		rel, err := findRelationship(g, args[0])
		if err != nil {
			return err
		}
		to, err := parseRef(g, args[1])
		if err != nil {
			return err
		}
		end := resolver.TargetEnd
		switch reconnectEnd {
		case "source":
			end = resolver.SourceEnd
		case "target":
		default:
			return fmt.Errorf("unknown end %q (use source or target)", reconnectEnd)
		}
		colID := ""
		if to.column != nil {
			colID = to.column.ID
		}
		r := newResolver(s)
		return commit(s, r, r.Reconnect(g, rel.ID, end, to.table.ID, colID))
	},
}

func init() {
	for _, c := range []*cobra.Command{connectCmd, reconnectCmd} {
		c.Flags().BoolVar(&connectConfirm, "confirm", false, "Overwrite a mismatched target column")
		c.Flags().BoolVar(&connectCreateNew, "create-new", false, "Create a new foreign key column on collision")
		c.Flags().StringVar(&connectUseExisting, "use-existing", "", "Link to this candidate column on collision")
	}
	reconnectCmd.Flags().StringVar(&reconnectEnd, "end", "target", "Which end to move (source, target)")
	connectCmd.AddCommand(reconnectCmd)
}

// commit settles res with the decision flags and saves the outcome.
func commit(s *schema.Store, r *resolver.Resolver, res resolver.Result) error {
	if d, ok := res.(resolver.NeedsDecision); ok {
		res = decide(s.Graph(), r, d.Conflict)
	}
	switch res := res.(type) {
	case resolver.Committed:
		s.Commit(res.Graph)
		if err := saveStore(s); err != nil {
			return err
		}
		color.Green("✅ Created relationship %s (%s)", res.Relationship.Name, res.Relationship.Type)
		if res.Created != nil {
			fmt.Printf("➕ Added column %s %s\n", res.Created.Name, res.Created.Type)
		}
		return nil
	case resolver.NeedsDecision:
		printConflict(res.Conflict)
		return errUnresolved
	}
	color.Yellow("⚠️  Nothing to connect")
	return nil
}

func decide(g schema.Graph, r *resolver.Resolver, c resolver.Conflict) resolver.Result {
	switch {
	case c.Kind == resolver.Integrity && connectConfirm:
		return r.Confirm(g)
	case c.Kind == resolver.Collision && connectCreateNew:
		return r.CreateNew(g)
	case c.Kind == resolver.Collision && connectUseExisting != "":
		for _, cand := range c.Candidates {
			if cand.Name == connectUseExisting || cand.ID == connectUseExisting {
				return r.UseExisting(g, cand.ID)
			}
		}
	}
	return resolver.NeedsDecision{Conflict: c}
}

func printConflict(c resolver.Conflict) {
	switch c.Kind {
	case resolver.Integrity:
		color.Yellow("⚠️  %s and %s do not match:", c.Source.Name, c.Target.Name)
		fmt.Printf("  source: %s\n", describeColumn(c.Source))
		fmt.Printf("  target: %s\n", describeColumn(*c.Target))
		fmt.Println("Re-run with --confirm to overwrite the target column.")
	case resolver.Collision:
		color.Yellow("⚠️  The target table already has columns that could reference %s:", c.Source.Name)
		for _, cand := range c.Candidates {
			fmt.Printf("  • %s\n", describeColumn(cand))
		}
		fmt.Println("Re-run with --create-new or --use-existing <column>.")
	}
}

func describeColumn(c schema.Column) string {
	s := c.Name + " " + c.Type
	if c.Length != "" {
		s += "(" + c.Length + ")"
	}
	if c.IsNullable {
		s += " NULL"
	} else {
		s += " NOT NULL"
	}
	return s
}
