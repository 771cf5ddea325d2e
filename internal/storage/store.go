package storage

import (
	"context"

	"ontoforge/internal/artifact"
	"ontoforge/internal/graph"
)

// Store is the ontology catalog.
type Store interface {
	OntologyStore
	Close() error
}

// OntologyStore defines operations for persisting ontology snapshots.
type OntologyStore interface {
	// SaveOntology replaces the stored snapshot with doc.
	SaveOntology(ctx context.Context, doc *artifact.Ontology) error

	// LoadOntology rebuilds the stored snapshot.
	LoadOntology(ctx context.Context) (*artifact.Ontology, error)

	// GetNode retrieves a node by its ID.
	GetNode(ctx context.Context, id string) (*graph.Node, error)

	// FindNodesByOrigin retrieves the nodes attributed to an origin.
	FindNodesByOrigin(ctx context.Context, origin string) ([]*graph.Node, error)

	// CountByOrigin counts nodes per origin key.
	CountByOrigin(ctx context.Context) (map[string]int, error)
}
