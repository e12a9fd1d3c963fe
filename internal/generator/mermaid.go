package generator

import (
	"fmt"
	"sort"
	"strings"

	"schema-relations/internal/graph"
)

// MermaidRenderer Mermaid ER 图渲染器
type MermaidRenderer struct{}

// NewMermaidRenderer 创建渲染器
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Render 渲染为 Mermaid 格式
func (m *MermaidRenderer) Render(g *graph.SchemaGraph) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	// 列节点按表聚合
	tables := make(map[string][]string)
	for _, node := range g.ColumnNodes() {
		props := node.Properties
		tableName := props["table"].(string)

		dataType := props["data_type"].(string)
		nullable := ""
		if props["nullable"].(bool) {
			nullable = " NULL"
		}
		pk := ""
		if props["is_primary_key"].(bool) {
			pk = " PK"
		}

		colDef := fmt.Sprintf("        %s %s%s%s", node.Name, dataType, pk, nullable)
		tables[tableName] = append(tables[tableName], colDef)
	}

	// 输出表定义（排序保证渲染稳定）
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, tableName := range names {
		sb.WriteString(fmt.Sprintf("    %s {\n", tableName))
		cols := tables[tableName]
		sort.Strings(cols)
		for _, col := range cols {
			sb.WriteString(col + "\n")
		}
		sb.WriteString("    }\n")
	}

	sb.WriteString("\n")

	// 渲染关系
	var lines []string
	for _, edge := range g.Edges {
		var relType, label string
		switch edge.Type {
		case graph.EdgeTypeExtension:
			relType = "||--||"
			label = "extends"
		case graph.EdgeTypeVerticalSameAs, graph.EdgeTypeHorizontalSameAs, graph.EdgeTypeMultiColumnSameAs:
			relType = "||--o{"
			label = string(edge.Type)
		case graph.EdgeTypePlainReference, graph.EdgeTypeAmbiguous:
			relType = "||--o{"
			label = "ref"
		case graph.EdgeTypeSuggestedFK:
			relType = "||..o{" // 虚线表示推测关系
			label = fmt.Sprintf("\"%.2f\"", edge.Confidence)
		default:
			continue // 三角关系不画进 ER 图
		}
		lines = append(lines, fmt.Sprintf("    %s %s %s : %s\n", edge.To, relType, edge.From, label))
	}
	sort.Strings(lines)
	for _, line := range lines {
		sb.WriteString(line)
	}

	return sb.String()
}
