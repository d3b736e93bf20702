package resolver

import "github.com/ridoystarlord/erdkit/schema"

// Request describes a drag-to-connect gesture. TargetColumn is empty when
// the pointer was released over a table rather than one of its rows.
type Request struct {
	SourceTable  string `json:"sourceTable"`
	SourceColumn string `json:"sourceColumn"`
	TargetTable  string `json:"targetTable"`
	TargetColumn string `json:"targetColumn,omitempty"`
}

// TableLevel reports whether the target column is still to be chosen.
func (r Request) TableLevel() bool {
	return r.TargetColumn == ""
}

type ConflictKind string

const (
	// Integrity is raised when a direct link would join columns whose type,
	// length or nullability disagree.
	Integrity ConflictKind = "integrity"
	// Collision is raised when a table-level link finds columns in the target
	// that could already serve as the foreign key.
	Collision ConflictKind = "collision"
)

// Conflict is a decision the user must make before a connection completes.
// It carries everything the caller needs to present the choice.
type Conflict struct {
	Kind       ConflictKind    `json:"kind"`
	Request    Request         `json:"request"`
	Source     schema.Column   `json:"source"`
	Target     *schema.Column  `json:"target,omitempty"`
	Candidates []schema.Column `json:"candidates,omitempty"`

	// replaces is the relationship a reconnection is rebuilding.
	replaces *schema.Relationship
}

// Reconnecting reports whether resolving the conflict rebuilds an existing
// relationship.
func (c Conflict) Reconnecting() bool {
	return c.replaces != nil
}

// Result is the outcome of a connection attempt: Noop, Committed or
// NeedsDecision.
type Result interface {
	isResult()
}

// Noop means nothing changed. Self-links, duplicates, stale ids and
// cancelled decisions all end here.
type Noop struct{}

// Committed carries the new snapshot and the relationship that was created.
type Committed struct {
	Graph        schema.Graph
	Relationship schema.Relationship
	// Created is the foreign key column added to the target, if any.
	Created *schema.Column
}

// NeedsDecision suspends the connection until the caller resolves Conflict.
type NeedsDecision struct {
	Conflict Conflict
}

func (Noop) isResult()          {}
func (Committed) isResult()     {}
func (NeedsDecision) isResult() {}
