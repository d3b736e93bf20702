// Package docs exports a diagram as ERD text (Mermaid, PlantUML, Graphviz)
// or as a routed SVG drawing.
package docs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ridoystarlord/erdkit/router"
	"github.com/ridoystarlord/erdkit/schema"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

type Format string

const (
	PlantUML Format = "plantuml"
	Mermaid  Format = "mermaid"
	Graphviz Format = "graphviz"
	SVG      Format = "svg"
)

// Formats lists every export format in the order "all" writes them.
var Formats = []Format{PlantUML, Mermaid, Graphviz, SVG}

// DefaultFilename is the file name used when no output is given.
func (f Format) DefaultFilename() string {
	switch f {
	case PlantUML:
		return "erd.puml"
	case Mermaid:
		return "erd.md"
	case Graphviz:
		return "erd.dot"
	case SVG:
		return "erd.svg"
	}
	return ""
}

// Render produces d in the given format. The router and options are only
// used for SVG.
func Render(f Format, d schema.Diagram, r *router.Router, opts SVGOptions) (string, error) {
	switch f {
	case PlantUML:
		return PlantUMLContent(d), nil
	case Mermaid:
		return MermaidContent(d), nil
	case Graphviz:
		return GraphvizContent(d), nil
	case SVG:
		return SVGContent(d, r, opts), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// crowsFoot is the ER notation for a relationship type, read from the
// referenced side to the referencing side.
func crowsFoot(c schema.Cardinality) string {
	switch c {
	case schema.OneToOne:
		return "||--||"
	case schema.ManyToOne:
		return "}|--||"
	case schema.ManyToMany:
		return "}|--|{"
	case schema.OneToZeroOrMany:
		return "||--o{"
	case schema.OneToZeroOrOne:
		return "||--o|"
	default:
		return "||--|{"
	}
}

// tableName returns the name shown for t in the given view.
func tableName(t schema.Table, view schema.ViewMode) string {
	if view == schema.LogicalView && t.LogicalName != "" {
		return t.LogicalName
	}
	return t.Name
}

func columnName(c schema.Column, view schema.ViewMode) string {
	if view == schema.LogicalView && c.LogicalName != "" {
		return c.LogicalName
	}
	return c.Name
}

func displayType(c schema.Column) string {
	t := strings.ToUpper(c.Type)
	if c.Length != "" {
		t += "(" + c.Length + ")"
	}
	return t
}

// identifier makes a name safe where the format allows no spaces.
func identifier(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' {
			return '_'
		}
		return r
	}, name)
}

type endpoint struct {
	from, to schema.Table
	fromCol  schema.Column
	toCol    schema.Column
}

func resolve(g schema.Graph, r schema.Relationship) (endpoint, bool) {
	from, ok1 := g.Table(r.FromTable)
	to, ok2 := g.Table(r.ToTable)
	fromCol, ok3 := from.Column(r.FromCol)
	toCol, ok4 := to.Column(r.ToCol)
	return endpoint{from: from, to: to, fromCol: fromCol, toCol: toCol}, ok1 && ok2 && ok3 && ok4
}

func PlantUMLContent(d schema.Diagram) string {
	g := d.Graph()
	var content strings.Builder

	content.WriteString("@startuml\n")
	content.WriteString("!theme plain\n")
	content.WriteString("skinparam linetype ortho\n\n")

	for _, t := range g.Tables() {
		content.WriteString(fmt.Sprintf("entity \"%s\" as %s {\n", tableName(t, d.ViewMode), identifier(t.Name)))
		for _, col := range t.Columns {
			line := fmt.Sprintf("  %s : %s", columnName(col, d.ViewMode), displayType(col))
			if col.IsPK {
				line += " <<PK>>"
			}
			if col.IsFK {
				line += " <<FK>>"
			}
			if col.IsUnique {
				line += " <<UQ>>"
			}
			if !col.IsNullable {
				line += " <<NN>>"
			}
			if col.DefaultValue != nil {
				line += fmt.Sprintf(" <<DEFAULT: %s>>", *col.DefaultValue)
			}
			content.WriteString(line + "\n")
		}
		content.WriteString("}\n\n")
	}

	for _, r := range g.Relationships() {
		e, ok := resolve(g, r)
		if !ok {
			continue
		}
		content.WriteString(fmt.Sprintf("%s %s %s : \"%s\"\n",
			identifier(e.from.Name), crowsFoot(r.Type), identifier(e.to.Name), r.Name))
	}

	content.WriteString("@enduml\n")
	return content.String()
}

func MermaidContent(d schema.Diagram) string {
	g := d.Graph()
	var content strings.Builder

	content.WriteString("# Database Schema ERD\n\n")
	content.WriteString("```mermaid\nerDiagram\n")

	for _, t := range g.Tables() {
		content.WriteString(fmt.Sprintf("    %s {\n", identifier(tableName(t, d.ViewMode))))
		for _, col := range t.Columns {
			line := fmt.Sprintf("        %s %s", identifier(displayType(col)), identifier(columnName(col, d.ViewMode)))
			var keys []string
			if col.IsPK {
				keys = append(keys, "PK")
			}
			if col.IsFK {
				keys = append(keys, "FK")
			}
			if col.IsUnique {
				keys = append(keys, "UK")
			}
			if len(keys) > 0 {
				line += " " + strings.Join(keys, ",")
			}
			if col.DefaultValue != nil {
				line += fmt.Sprintf(" \"default %s\"", strings.ReplaceAll(*col.DefaultValue, "\"", "'"))
			}
			content.WriteString(line + "\n")
		}
		content.WriteString("    }\n")
	}

	for _, r := range g.Relationships() {
		e, ok := resolve(g, r)
		if !ok {
			continue
		}
		content.WriteString(fmt.Sprintf("    %s %s %s : %s\n",
			identifier(tableName(e.from, d.ViewMode)), crowsFoot(r.Type), identifier(tableName(e.to, d.ViewMode)), identifier(r.Name)))
	}

	content.WriteString("```\n")
	return content.String()
}

func GraphvizContent(d schema.Diagram) string {
	g := d.Graph()
	var content strings.Builder

	content.WriteString("digraph ERD {\n")
	content.WriteString("  rankdir=LR;\n")
	content.WriteString("  node [shape=record];\n\n")

	for _, t := range g.Tables() {
		var columns []string
		for _, col := range t.Columns {
			line := fmt.Sprintf("<%s> %s: %s", identifier(col.ID), columnName(col, d.ViewMode), displayType(col))
			if col.IsPK {
				line += " (PK)"
			}
			if col.IsFK {
				line += " (FK)"
			}
			if !col.IsNullable {
				line += " (NN)"
			}
			columns = append(columns, line)
		}
		content.WriteString(fmt.Sprintf("  %s [label=\"%s|%s\\l\"];\n",
			identifier(t.ID), tableName(t, d.ViewMode), strings.Join(columns, "\\l|")))
	}

	for _, r := range g.Relationships() {
		e, ok := resolve(g, r)
		if !ok {
			continue
		}
		content.WriteString(fmt.Sprintf("  %s:%s -> %s:%s [label=\"%s\"];\n",
			identifier(e.from.ID), identifier(e.fromCol.ID), identifier(e.to.ID), identifier(e.toCol.ID), r.Type))
	}

	content.WriteString("}\n")
	return content.String()
}
