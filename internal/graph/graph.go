package graph

import (
	"encoding/json"
	"sync"
)

// SchemaGraph 关系语义图：表与列为节点，扩展/同值/引用分类为边，
// 是分类结果面向渲染与服务端导出的物化形态
type SchemaGraph struct {
	mu    sync.RWMutex
	Nodes map[string]*Node `json:"nodes"`
	Edges map[string]*Edge `json:"edges"`
}

// NewSchemaGraph 创建空图
func NewSchemaGraph() *SchemaGraph {
	return &SchemaGraph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
	}
}

// AddNode 添加节点，同 ID 覆盖
func (g *SchemaGraph) AddNode(node *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Nodes[node.ID] = node
}

// AddEdge 添加边，同 ID 覆盖
func (g *SchemaGraph) AddEdge(edge *Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Edges[edge.ID] = edge
}

// GetNode 获取节点
func (g *SchemaGraph) GetNode(id string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Nodes[id]
}

// ColumnNodes 全部列节点，供按表聚合的渲染使用
func (g *SchemaGraph) ColumnNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var nodes []*Node
	for _, node := range g.Nodes {
		if node.Type == NodeTypeColumn {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// EdgesByType 按类型筛边
func (g *SchemaGraph) EdgesByType(types ...EdgeType) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	want := make(map[EdgeType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var edges []*Edge
	for _, edge := range g.Edges {
		if want[edge.Type] {
			edges = append(edges, edge)
		}
	}
	return edges
}

// TypeCounts 各类边的数量统计
func (g *SchemaGraph) TypeCounts() map[EdgeType]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	counts := make(map[EdgeType]int)
	for _, edge := range g.Edges {
		counts[edge.Type]++
	}
	return counts
}

// ToJSON 导出为JSON
func (g *SchemaGraph) ToJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return json.MarshalIndent(g, "", "  ")
}
