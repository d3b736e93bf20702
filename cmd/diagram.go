package cmd

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/ridoystarlord/erdkit/loader"
	"github.com/ridoystarlord/erdkit/resolver"
	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
	"github.com/ridoystarlord/erdkit/typeoracle"
)

func newLogger() *zap.Logger {
	if !viper.GetBool("log.verbose") {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// openStore loads the diagram named by --schema into a store.
func openStore() (*schema.Store, error) {
	d, err := loader.LoadDiagram(schemaFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	if d.Engine == "" {
		d.Engine = engine()
	}
	return schema.NewStore(d), nil
}

func saveStore(s *schema.Store) error {
	return loader.SaveDiagram(schemaFile(), s.Diagram())
}

func newResolver(s *schema.Store) *resolver.Resolver {
	return resolver.New(typeoracle.Default{}, s.Engine(), resolver.WithLogger(newLogger()), resolver.WithIDs(uuid.NewString))
}

func newRouter() *router.Router {
	return router.New(router.DefaultMetrics())
}

// ref is a "table" or "table.column" argument, matched against names
// case-insensitively.
type ref struct {
	table  schema.Table
	column *schema.Column
}

func parseRef(g schema.Graph, arg string) (ref, error) {
	tableName, colName, hasCol := strings.Cut(arg, ".")
	fold := cases.Fold()
	for _, t := range g.Tables() {
		if fold.String(t.Name) != fold.String(tableName) {
			continue
		}
		r := ref{table: t}
		if !hasCol {
			return r, nil
		}
		for _, c := range t.Columns {
			if fold.String(c.Name) == fold.String(colName) {
				r.column = &c
				return r, nil
			}
		}
		return ref{}, fmt.Errorf("column %q not found in table %s", colName, t.Name)
	}
	return ref{}, fmt.Errorf("table %q not found", tableName)
}

// findRelationship matches a relationship by id or by name.
func findRelationship(g schema.Graph, key string) (schema.Relationship, error) {
	if r, ok := g.Relationship(key); ok {
		return r, nil
	}
	for _, r := range g.Relationships() {
		if r.Name == key {
			return r, nil
		}
	}
	return schema.Relationship{}, fmt.Errorf("relationship %q not found", key)
}
