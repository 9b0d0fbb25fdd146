package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sublime-tools/monorepo/internal/manifest"
)

func TestTopologicalOrderLeavesFirst(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "a", "1.0.0", nil),
		newPkg(t, "b", "1.0.0", map[string]string{"a": "^1.0.0"}),
		newPkg(t, "c", "1.0.0", map[string]string{"b": "^1.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)
	FindSCCs(g)
	cg := Condense(g)

	order, err := TopologicalOrder(cg)
	require.NoError(t, err)

	names := make([]string, len(order))
	for i, n := range order {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestTopologicalOrderEmptyGraph(t *testing.T) {
	g, err := Build(nil, BuildOptions{})
	require.NoError(t, err)
	FindSCCs(g)
	cg := Condense(g)

	order, err := TopologicalOrder(cg)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestTopologicalOrderCondensesCycleIntoOneNode(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "foo", "1.0.0", map[string]string{"bar": "^1.0.0"}),
		newPkg(t, "bar", "1.0.0", map[string]string{"baz": "^1.0.0"}),
		newPkg(t, "baz", "1.0.0", map[string]string{"foo": "^1.0.0"}),
		newPkg(t, "consumer", "1.0.0", map[string]string{"foo": "^1.0.0"}),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)
	FindSCCs(g)
	cg := Condense(g)

	require.Equal(t, 2, cg.NodeCount())

	order, err := TopologicalOrder(cg)
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.ElementsMatch(t, []string{"bar", "baz", "foo"}, order[0].Members)
	assert.Equal(t, []string{"consumer"}, order[1].Members)
}

func TestTopologicalOrderTiesBrokenByName(t *testing.T) {
	pkgs := []*manifest.Package{
		newPkg(t, "zeta", "1.0.0", nil),
		newPkg(t, "alpha", "1.0.0", nil),
		newPkg(t, "mid", "1.0.0", nil),
	}
	g, err := Build(pkgs, BuildOptions{})
	require.NoError(t, err)
	FindSCCs(g)
	cg := Condense(g)

	order, err := TopologicalOrder(cg)
	require.NoError(t, err)

	names := make([]string, len(order))
	for i, n := range order {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}
