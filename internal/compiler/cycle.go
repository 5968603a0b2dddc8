package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sitetag/internal/ir"
)

// RoutedCycle is a reference cycle among routed tags.
type RoutedCycle struct {
	Path    []string `json:"path"`    // Cycle path: ["A", "B", "A"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeRoutedCycles detects reference cycles among routed tags.
//
// A routed tag references another routed tag when one of its bel pins
// selects it. The graph is built over routed tags only (plain tags are
// leaves) and strongly connected components are found with Tarjan's
// algorithm. Every SCC with more than one member, or a single member with
// a self reference, is reported.
//
// Results are ordered by the first tag name on each path.
func AnalyzeRoutedCycles(routed []ir.RoutedTagDef) []RoutedCycle {
	if len(routed) == 0 {
		return nil
	}

	graph := buildReferenceGraph(routed)
	sccs := tarjanSCC(graph)

	var cycles []RoutedCycle
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}

	slices.SortFunc(cycles, func(a, b RoutedCycle) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return cycles
}

// referenceGraph maps routed tag name → routed tags it references.
type referenceGraph map[string][]string

// buildReferenceGraph constructs the routed tag reference graph.
// Edges are sorted so traversal order does not depend on pin order.
func buildReferenceGraph(routed []ir.RoutedTagDef) referenceGraph {
	names := make(map[string]bool, len(routed))
	for _, rt := range routed {
		names[rt.Name] = true
	}

	graph := make(referenceGraph, len(routed))
	for _, rt := range routed {
		if graph[rt.Name] == nil {
			graph[rt.Name] = []string{}
		}
		for _, pin := range rt.BelPins {
			if names[pin.Tag] && !slices.Contains(graph[rt.Name], pin.Tag) {
				graph[rt.Name] = append(graph[rt.Name], pin.Tag)
			}
		}
		slices.Sort(graph[rt.Name])
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so output is deterministic.
func tarjanSCC(graph referenceGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root node: pop the stack into an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// sccToCycle converts an SCC to a RoutedCycle.
// The path starts at the smallest name in the SCC and follows edges back to it.
func sccToCycle(scc []string, graph referenceGraph) RoutedCycle {
	slices.Sort(scc)

	if len(scc) == 1 {
		name := scc[0]
		return RoutedCycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("routed tag %s references itself", name),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return RoutedCycle{
		Path:    path,
		Message: fmt.Sprintf("routed tag reference cycle: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: start at the first node, follow edges to unvisited SCC
// members, and stop on return to the start node.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && neighbor != start && !visited[neighbor] {
				next = neighbor
				break
			}
		}
		if next == "" && slices.Contains(graph[current], start) {
			next = start
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
