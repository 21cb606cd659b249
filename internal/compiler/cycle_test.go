package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFindCycle_Empty tests that an empty graph has no cycle.
func TestFindCycle_Empty(t *testing.T) {
	assert.Nil(t, findCycle(nil))
	assert.Nil(t, findCycle(dependencyGraph{}))
}

// TestFindCycle_DAG tests that a directed acyclic graph has no cycle.
func TestFindCycle_DAG(t *testing.T) {
	graph := dependencyGraph{
		"x": {"n", "m"},
		"y": {"n"},
		"n": {"m"},
	}
	assert.Nil(t, findCycle(graph))
}

// TestFindCycle_SelfLoop tests detection of an argument depending on itself.
func TestFindCycle_SelfLoop(t *testing.T) {
	graph := dependencyGraph{"n": {"n"}}
	assert.Equal(t, []string{"n", "n"}, findCycle(graph))
}

// TestFindCycle_ThreeNodes tests detection of a longer cycle.
func TestFindCycle_ThreeNodes(t *testing.T) {
	graph := dependencyGraph{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
		"x": {"a"},
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, findCycle(graph))
}

// TestFindCycle_ShortestPath tests that the reported path is the shortest
// cycle through the first SCC member.
func TestFindCycle_ShortestPath(t *testing.T) {
	graph := dependencyGraph{
		"a": {"b", "d"},
		"b": {"c"},
		"c": {"a"},
		"d": {"a"},
	}
	assert.Equal(t, []string{"a", "d", "a"}, findCycle(graph))
}

// TestFindCycle_Deterministic tests that repeated runs report the same path.
func TestFindCycle_Deterministic(t *testing.T) {
	graph := dependencyGraph{
		"p": {"q"},
		"q": {"p"},
		"r": {"s"},
		"s": {"r"},
	}
	first := findCycle(graph)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, findCycle(graph))
	}
	assert.Equal(t, []string{"p", "q", "p"}, first)
}

func TestCycleError(t *testing.T) {
	err := cycleError("KERNEL k", "f", []string{"a", "b", "a"})
	assert.True(t, IsCycleError(err))
	assert.Equal(t, "[E207] KERNEL k: argument dependencies of f form a cycle: a -> b -> a", err.Error())
}
