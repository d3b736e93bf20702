package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ridoystarlord/erdkit/loader"
	"github.com/ridoystarlord/erdkit/schema"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter diagram file",
	Long: `Create a starter diagram with two related tables.

The file format follows the extension of --schema: .yaml, .json or .msgpack.

Examples:
  erdkit init                        # Writes schema.yaml
  erdkit init --schema shop.json     # Writes a JSON diagram`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := schemaFile()
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := loader.SaveDiagram(path, starterDiagram(engine())); err != nil {
			return err
		}
		fmt.Printf("✅ Created %s example file.\n", path)
		fmt.Printf("📝 Run 'erdkit studio' to edit it, or 'erdkit docs' to render it\n")
		return nil
	},
}

func starterDiagram(e schema.Engine) schema.Diagram {
	return schema.Diagram{
		Engine:   e,
		ViewMode: schema.PhysicalView,
		Tables: []schema.Table{
			{ID: "users", Name: "users", LogicalName: "User", Columns: []schema.Column{
				{ID: "users.id", Name: "id", Type: "INTEGER", IsPK: true, IsIdentity: true},
				{ID: "users.email", Name: "email", Type: "VARCHAR", Length: "255", IsUnique: true},
				{ID: "users.created_at", Name: "created_at", Type: "TIMESTAMP", DefaultValue: schema.Ptr("now()")},
			}},
			{ID: "posts", Name: "posts", LogicalName: "Post", X: 400, Columns: []schema.Column{
				{ID: "posts.id", Name: "id", Type: "INTEGER", IsPK: true, IsIdentity: true},
				{ID: "posts.title", Name: "title", Type: "TEXT"},
				{ID: "posts.user_id", Name: "user_id", Type: "INTEGER", IsFK: true},
			}},
		},
		Relationships: []schema.Relationship{{
			ID:        "posts.fk_users_id_posts_user_id",
			Name:      schema.RelationshipName("users", "id", "posts", "user_id"),
			FromTable: "users",
			FromCol:   "users.id",
			ToTable:   "posts",
			ToCol:     "posts.user_id",
			Type:      schema.OneToMany,
		}},
	}
}
