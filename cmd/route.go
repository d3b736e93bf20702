package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/routeedit"
	"github.com/ridoystarlord/erdkit/schema"
)

var (
	routeAdd    []float64
	routeDelete int
	routeReset  bool
)

var routeCmd = &cobra.Command{
	Use:   "route [relationship]",
	Short: "Show or edit relationship routes",
	Long: `Print the routed path of every relationship, or of one relationship.

With a relationship argument the route can also be edited:

  --add X,Y     insert a waypoint at X,Y in the nearest segment
  --delete N    remove waypoint N (removing the last one restores auto routing)
  --reset       drop every waypoint and side override

Examples:
  erdkit route
  erdkit route fk_users_id_posts_user_id --style curved
  erdkit route fk_users_id_posts_user_id --add 325,70
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		g := s.Graph()
		rels := g.Relationships()
		if len(args) == 1 {
			rel, err := findRelationship(g, args[0])
			if err != nil {
				return err
			}
			if edited, changed, err := editRoute(g, rel.ID); err != nil {
				return err
			} else if changed {
				s.Commit(edited)
				if err := saveStore(s); err != nil {
					return err
				}
			}
			rel, _ = s.Graph().Relationship(rel.ID)
			rels = []schema.Relationship{rel}
		}

		r := newRouter()
		tables := s.Graph().Tables()
		for _, rel := range rels {
			rt, ok := r.Plan(rel, tables, routeStyle(), routeMode())
			if !ok {
				fmt.Printf("%s: endpoints missing\n", rel.Name)
				continue
			}
			kind := "auto"
			if rel.Manual() {
				kind = fmt.Sprintf("manual, %d waypoints", len(rel.ControlPoints))
			}
			mid := rt.Midpoint()
			fmt.Printf("%s (%s, %s → %s)\n", rel.Name, kind, rt.Source.Side, rt.Target.Side)
			fmt.Printf("  path: %s\n", rt.Path())
			fmt.Printf("  label: %g,%g\n", mid.X, mid.Y)
		}
		return nil
	},
}

func init() {
	routeCmd.Flags().Float64SliceVar(&routeAdd, "add", nil, "Insert a waypoint at X,Y")
	routeCmd.Flags().IntVar(&routeDelete, "delete", -1, "Delete waypoint N")
	routeCmd.Flags().BoolVar(&routeReset, "reset", false, "Restore automatic routing")
}

func editRoute(g schema.Graph, relID string) (schema.Graph, bool, error) {
	e := routeedit.New(newRouter(), routeStyle(), routeMode(), routeedit.WithLogger(newLogger()))
	changed := false
	if routeReset {
		g, changed = e.ResetRouting(g, relID), true
	}
	if routeDelete >= 0 {
		g, changed = e.DeleteWaypoint(g, relID, routeDelete), true
	}
	if routeAdd != nil {
		if len(routeAdd) != 2 {
			return g, false, fmt.Errorf("--add takes X,Y")
		}
		g, changed = e.InsertWaypoint(g, relID, schema.Point{X: routeAdd[0], Y: routeAdd[1]}), true
	}
	return g, changed, nil
}
