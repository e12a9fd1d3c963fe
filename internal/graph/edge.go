package graph

// EdgeType 边类型
type EdgeType string

const (
	EdgeTypeExtension         EdgeType = "extension"            // 扩展（继承式）
	EdgeTypeVerticalSameAs    EdgeType = "vertical_same_as"     // 纵向字段重复
	EdgeTypeHorizontalSameAs  EdgeType = "horizontal_same_as"   // 横向字段重复
	EdgeTypeMultiColumnSameAs EdgeType = "multi_column_same_as" // 复合字段重复
	EdgeTypeAmbiguous         EdgeType = "ambiguous"            // 歧义匹配
	EdgeTypePlainReference    EdgeType = "plain_reference"      // 普通引用
	EdgeTypeTriangular        EdgeType = "triangular"           // 三角等价
	EdgeTypeSuggestedFK       EdgeType = "suggested_fk"         // 推测外键
)

// Edge 图的边
type Edge struct {
	ID         string                 `json:"id"`
	Type       EdgeType               `json:"type"`
	From       string                 `json:"from"` // 节点ID
	To         string                 `json:"to"`   // 节点ID
	Confidence float64                `json:"confidence"` // 置信度 0-1，结构化分类恒为 1
	Evidence   []Evidence             `json:"evidence"`
	Properties map[string]interface{} `json:"properties"`
}

// Evidence 证据
type Evidence struct {
	Type        string  `json:"type"`
	Score       float64 `json:"score"` // 0-1
	Description string  `json:"description"`
	Details     string  `json:"details"`
}
