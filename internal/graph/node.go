package graph

// NodeType 节点类型
type NodeType string

const (
	NodeTypeTable  NodeType = "table"
	NodeTypeColumn NodeType = "column"
)

// Node 图节点
type Node struct {
	ID         string                 `json:"id"`
	Type       NodeType               `json:"type"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties"`
}
