// Package casegraph holds the investigation board: entities the player has
// uncovered and the relations drawn between them.
package casegraph

import (
	"fmt"
	"math"
)

// Node types sent by the server.
const (
	TypeClue     = "clue"
	TypeSuspect  = "suspect"
	TypeLocation = "location"
	TypeWitness  = "witness"
)

type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Edge relates two node ids. Confidence is in [0,1].
type Edge struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Percent renders Confidence as a rounded percentage.
func (e Edge) Percent() string {
	return fmt.Sprintf("%d%%", int(math.Round(e.Confidence*100)))
}

// Delta is one incremental graph update.
type Delta struct {
	NodesAdd []Node `json:"nodes_add"`
	EdgesAdd []Edge `json:"edges_add"`
}

// Buckets partitions nodes for display.
type Buckets struct {
	Clues     []Node
	People    []Node
	Locations []Node
}

// Graph is append-only for the lifetime of a connection. Repeated ids and
// edges accumulate; dangling edge endpoints are kept as-is.
type Graph struct {
	nodes []Node
	edges []Edge
}

func New() *Graph {
	return &Graph{}
}

// Merge appends the delta in arrival order.
func (g *Graph) Merge(d Delta) {
	g.nodes = append(g.nodes, d.NodesAdd...)
	g.edges = append(g.edges, d.EdgesAdd...)
}

func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

func (g *Graph) Len() (nodes int, edges int) {
	return len(g.nodes), len(g.edges)
}

// Buckets groups the current nodes by type, keeping insertion order. It is
// recomputed on every call. Nodes of unknown type land in no bucket.
func (g *Graph) Buckets() Buckets {
	var b Buckets
	for _, n := range g.nodes {
		switch n.Type {
		case TypeClue:
			b.Clues = append(b.Clues, n)
		case TypeSuspect, TypeWitness:
			b.People = append(b.People, n)
		case TypeLocation:
			b.Locations = append(b.Locations, n)
		}
	}
	return b
}

// Reset discards the board.
func (g *Graph) Reset() {
	g.nodes = nil
	g.edges = nil
}
