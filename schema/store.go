package schema

// Store owns the current snapshot of a diagram for the composing
// application. It holds no lock: callers drive it from a single interaction
// lane, and every method replaces the snapshot in one step.
type Store struct {
	graph     Graph
	engine    Engine
	viewMode  ViewMode
	listeners []func(Graph)
}

// NewStore creates a store holding the diagram's collections.
func NewStore(d Diagram) *Store {
	if d.Engine == "" {
		d.Engine = Postgres
	}
	if d.ViewMode == "" {
		d.ViewMode = PhysicalView
	}
	return &Store{graph: d.Graph(), engine: d.Engine, viewMode: d.ViewMode}
}

// Graph returns the current snapshot.
func (s *Store) Graph() Graph { return s.graph }

func (s *Store) Engine() Engine { return s.engine }

func (s *Store) ViewMode() ViewMode { return s.viewMode }

func (s *Store) SetEngine(e Engine) { s.engine = e }

func (s *Store) SetViewMode(v ViewMode) { s.viewMode = v }

// Diagram returns the persisted shape of the current state.
func (s *Store) Diagram() Diagram {
	return Diagram{Engine: s.engine, ViewMode: s.viewMode}.WithGraph(s.graph)
}

// Subscribe registers fn to receive every new snapshot.
func (s *Store) Subscribe(fn func(Graph)) {
	s.listeners = append(s.listeners, fn)
}

// Commit replaces the current snapshot and notifies subscribers.
func (s *Store) Commit(g Graph) Graph {
	s.graph = g
	for _, fn := range s.listeners {
		fn(g)
	}
	return g
}

// Apply runs fn against the current snapshot and commits its result.
func (s *Store) Apply(fn func(Graph) Graph) Graph {
	return s.Commit(fn(s.graph))
}

func (s *Store) AddTable(t Table) Graph {
	return s.Commit(s.graph.AddTable(t))
}

func (s *Store) UpdateTable(id string, p TablePatch) Graph {
	return s.Commit(s.graph.UpdateTable(id, p))
}

func (s *Store) DeleteTable(id string) Graph {
	return s.Commit(s.graph.DeleteTable(id))
}

func (s *Store) AddColumn(tableID string, c Column) Graph {
	return s.Commit(s.graph.AddColumn(tableID, c))
}

func (s *Store) UpdateColumn(tableID, columnID string, p ColumnPatch) Graph {
	return s.Commit(s.graph.UpdateColumn(tableID, columnID, p))
}

func (s *Store) DeleteColumn(tableID, columnID string) Graph {
	return s.Commit(s.graph.DeleteColumn(tableID, columnID))
}

func (s *Store) MoveColumn(tableID string, from, to int) Graph {
	return s.Commit(s.graph.MoveColumn(tableID, from, to))
}

func (s *Store) AddRelationship(r Relationship) Graph {
	return s.Commit(s.graph.AddRelationship(r))
}

func (s *Store) UpdateRelationship(id string, p RelationshipPatch) Graph {
	return s.Commit(s.graph.UpdateRelationship(id, p))
}

func (s *Store) DeleteRelationship(id string) Graph {
	return s.Commit(s.graph.DeleteRelationship(id))
}

func (s *Store) RerouteRelationship(id string, e Endpoints) Graph {
	return s.Commit(s.graph.RerouteRelationship(id, e))
}
