package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGet(t *testing.T) {
	g := NewSchemaGraph()
	g.AddNode(&Node{ID: "user", Type: NodeTypeTable, Name: "user"})
	g.AddNode(&Node{ID: "user.id", Type: NodeTypeColumn, Name: "id"})

	require.NotNil(t, g.GetNode("user"))
	assert.Equal(t, NodeTypeTable, g.GetNode("user").Type)
	assert.Nil(t, g.GetNode("missing"))
}

func TestEdgesByType(t *testing.T) {
	g := NewSchemaGraph()
	g.AddEdge(&Edge{ID: "e1", Type: EdgeTypeExtension, From: "child", To: "parent"})
	g.AddEdge(&Edge{ID: "e2", Type: EdgeTypeVerticalSameAs, From: "child", To: "parent"})
	g.AddEdge(&Edge{ID: "e3", Type: EdgeTypePlainReference, From: "order", To: "user"})

	ext := g.EdgesByType(EdgeTypeExtension)
	require.Len(t, ext, 1)
	assert.Equal(t, "e1", ext[0].ID)

	sameAs := g.EdgesByType(EdgeTypeVerticalSameAs, EdgeTypeHorizontalSameAs)
	assert.Len(t, sameAs, 1)
	assert.Empty(t, g.EdgesByType(EdgeTypeTriangular))
}

func TestColumnNodes(t *testing.T) {
	g := NewSchemaGraph()
	g.AddNode(&Node{ID: "user", Type: NodeTypeTable, Name: "user"})
	g.AddNode(&Node{ID: "user.id", Type: NodeTypeColumn, Name: "id"})
	g.AddNode(&Node{ID: "user.name", Type: NodeTypeColumn, Name: "name"})

	cols := g.ColumnNodes()
	require.Len(t, cols, 2)
	for _, node := range cols {
		assert.Equal(t, NodeTypeColumn, node.Type)
	}
}

func TestTypeCounts(t *testing.T) {
	g := NewSchemaGraph()
	g.AddEdge(&Edge{ID: "e1", Type: EdgeTypeExtension})
	g.AddEdge(&Edge{ID: "e2", Type: EdgeTypeExtension})
	g.AddEdge(&Edge{ID: "e3", Type: EdgeTypeVerticalSameAs})

	counts := g.TypeCounts()
	assert.Equal(t, 2, counts[EdgeTypeExtension])
	assert.Equal(t, 1, counts[EdgeTypeVerticalSameAs])
	assert.Zero(t, counts[EdgeTypeTriangular])
}

func TestToJSON(t *testing.T) {
	g := NewSchemaGraph()
	g.AddNode(&Node{ID: "user", Type: NodeTypeTable, Name: "user"})
	g.AddEdge(&Edge{ID: "e1", Type: EdgeTypeExtension, From: "child", To: "parent", Confidence: 1.0})

	data, err := g.ToJSON()
	require.NoError(t, err)

	var decoded struct {
		Nodes map[string]*Node `json:"nodes"`
		Edges map[string]*Edge `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded.Nodes, 1)
	assert.Equal(t, EdgeTypeExtension, decoded.Edges["e1"].Type)
}
