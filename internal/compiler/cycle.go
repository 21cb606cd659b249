package compiler

import (
	"slices"
	"strings"
)

// dependencyGraph maps argument name → arguments it depends on.
type dependencyGraph map[string][]string

// findCycle returns the first dependency cycle in graph, or nil when the
// graph is acyclic. The result is deterministic: nodes are visited in sorted
// order and edges in insertion order.
//
// The returned path starts and ends at the same node, e.g. [n, m, n].
//
// The algorithm:
//  1. Use Tarjan's algorithm to find strongly connected components
//  2. The first SCC with size > 1, or a self-loop, is a cycle
//  3. Reconstruct a path through that SCC
func findCycle(graph dependencyGraph) []string {
	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 {
			if hasSelfLoop(scc[0], graph) {
				return []string{scc[0], scc[0]}
			}
			continue
		}
		return reconstructCyclePath(scc, graph)
	}
	return nil
}

// formatCycle renders a cycle path for error messages.
func formatCycle(path []string) string {
	return strings.Join(path, " -> ")
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Each SCC is sorted so that the reconstructed path is stable.
func tarjanSCC(graph dependencyGraph) [][]string {
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

		// v is a root node: pop the stack and emit an SCC
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
			slices.Sort(scc)
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

// reconstructCyclePath returns the shortest cycle through the first member
// of an SCC, found by breadth-first search restricted to the SCC.
func reconstructCyclePath(scc []string, graph dependencyGraph) []string {
	inSCC := make(map[string]bool, len(scc))
	for _, node := range scc {
		inSCC[node] = true
	}

	start := scc[0]
	parent := map[string]string{start: ""}
	queue := []string{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, neighbor := range graph[current] {
			if neighbor == start {
				// walk parents back to start, then reverse
				path := []string{start}
				for n := current; n != start; n = parent[n] {
					path = append(path, n)
				}
				path = append(path, start)
				slices.Reverse(path)
				return path
			}
			if _, seen := parent[neighbor]; !seen && inSCC[neighbor] {
				parent[neighbor] = current
				queue = append(queue, neighbor)
			}
		}
	}
	return append(slices.Clone(scc), start)
}

func cycleError(section, function string, path []string) *CompileError {
	return newCompileError(ErrCodeDependencyCycle, section,
		"argument dependencies of %s form a cycle: %s", function, formatCycle(path))
}
