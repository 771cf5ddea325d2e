package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ontoforge/internal/artifact"
	"ontoforge/internal/graph"
	"ontoforge/internal/merge"

	_ "github.com/mattn/go-sqlite3"
)

const metaKey = "ontology"

var _ Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			position INTEGER,
			name TEXT,
			kind TEXT,
			label TEXT,
			description TEXT,
			origin TEXT,
			source TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS node_attributes (
			node_id TEXT,
			key TEXT,
			value TEXT,
			PRIMARY KEY (node_id, key)
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			source_id TEXT,
			target_id TEXT,
			type TEXT,
			position INTEGER,
			PRIMARY KEY (source_id, target_id, type)
		);`,
		`CREATE TABLE IF NOT EXISTS relation_types (
			name TEXT PRIMARY KEY
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_origin ON nodes(origin);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveOntology replaces the stored snapshot in one transaction.
func (s *SQLiteStore) SaveOntology(ctx context.Context, doc *artifact.Ontology) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"nodes", "node_attributes", "edges", "relation_types", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	// 1. Save Nodes
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, position, name, kind, label, description, origin, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			kind=excluded.kind,
			label=excluded.label,
			description=excluded.description,
			origin=excluded.origin,
			source=excluded.source
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	attrStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO node_attributes (node_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(node_id, key) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer attrStmt.Close()

	for i, n := range doc.Nodes {
		if n == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, n.ID, i, n.Name, string(n.Kind), n.Label, n.Description, n.Origin, n.Source); err != nil {
			return fmt.Errorf("failed to save node %s: %w", n.ID, err)
		}
		for k, v := range n.Attributes {
			if _, err := attrStmt.ExecContext(ctx, n.ID, k, v); err != nil {
				return fmt.Errorf("failed to save attribute %s of %s: %w", k, n.ID, err)
			}
		}
	}

	// 2. Save Edges
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (source_id, target_id, type, position) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, type) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for i, e := range doc.Edges {
		if _, err := edgeStmt.ExecContext(ctx, e.Source, e.Target, e.Type, i); err != nil {
			return err
		}
	}

	// 3. Relation types and metadata
	for _, t := range doc.RelationTypes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO relation_types (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, t); err != nil {
			return err
		}
	}
	meta, err := json.Marshal(doc.Meta)
	if err != nil {
		return fmt.Errorf("failed to encode meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, metaKey, meta); err != nil {
		return err
	}

	return tx.Commit()
}

// LoadOntology rebuilds the stored snapshot in its saved order.
func (s *SQLiteStore) LoadOntology(ctx context.Context) (*artifact.Ontology, error) {
	doc := &artifact.Ontology{
		Nodes:         []*graph.Node{},
		Edges:         []graph.Edge{},
		RelationTypes: []string{},
	}

	var meta []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaKey).Scan(&meta)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to query meta: %w", err)
	default:
		if err := json.Unmarshal(meta, &doc.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode meta: %w", err)
		}
	}

	// 1. Load Nodes
	nodes, err := s.queryNodes(ctx, "SELECT id, name, kind, label, description, origin, source FROM nodes ORDER BY position")
	if err != nil {
		return nil, err
	}
	doc.Nodes = append(doc.Nodes, nodes...)

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT source_id, target_id, type FROM edges ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var e graph.Edge
		if err := edgeRows.Scan(&e.Source, &e.Target, &e.Type); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		doc.Edges = append(doc.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	// 3. Relation types
	typeRows, err := s.db.QueryContext(ctx, "SELECT name FROM relation_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query relation types: %w", err)
	}
	defer typeRows.Close()

	for typeRows.Next() {
		var name string
		if err := typeRows.Scan(&name); err != nil {
			return nil, err
		}
		doc.RelationTypes = append(doc.RelationTypes, name)
	}
	return doc, typeRows.Err()
}

func (s *SQLiteStore) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	nodes, err := s.queryNodes(ctx, "SELECT id, name, kind, label, description, origin, source FROM nodes WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, sql.ErrNoRows
	}
	return nodes[0], nil
}

// FindNodesByOrigin returns the nodes whose origin includes key.
func (s *SQLiteStore) FindNodesByOrigin(ctx context.Context, key string) ([]*graph.Node, error) {
	all, err := s.queryNodes(ctx, "SELECT id, name, kind, label, description, origin, source FROM nodes WHERE origin LIKE ? ORDER BY position", "%"+key+"%")
	if err != nil {
		return nil, err
	}
	var nodes []*graph.Node
	for _, n := range all {
		for _, part := range originParts(n.Origin) {
			if part == key {
				nodes = append(nodes, n)
				break
			}
		}
	}
	return nodes, nil
}

// CountByOrigin counts nodes per origin key. A node attributed to several
// origins counts once for each.
func (s *SQLiteStore) CountByOrigin(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT origin, COUNT(*) FROM nodes GROUP BY origin")
	if err != nil {
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var origin sql.NullString
		var n int
		if err := rows.Scan(&origin, &n); err != nil {
			return nil, err
		}
		for _, part := range originParts(origin.String) {
			counts[part] += n
		}
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) queryNodes(ctx context.Context, query string, args ...any) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []*graph.Node
	for rows.Next() {
		var n graph.Node
		var kind string
		if err := rows.Scan(&n.ID, &n.Name, &kind, &n.Label, &n.Description, &n.Origin, &n.Source); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.Kind = graph.Kind(kind)
		nodes = append(nodes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for _, n := range nodes {
		if err := s.loadAttributes(ctx, n); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

func (s *SQLiteStore) loadAttributes(ctx context.Context, n *graph.Node) error {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM node_attributes WHERE node_id = ?", n.ID)
	if err != nil {
		return fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		if n.Attributes == nil {
			n.Attributes = make(map[string]string)
		}
		n.Attributes[k] = v
	}
	return rows.Err()
}

func originParts(origin string) []string {
	if strings.TrimSpace(origin) == "" {
		return []string{""}
	}
	var parts []string
	for _, p := range strings.Split(origin, merge.SourceSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
