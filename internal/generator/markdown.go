package generator

import (
	"fmt"
	"strings"

	"schema-relations/internal/analyzer"
	"schema-relations/internal/classifier"
	"schema-relations/internal/schema"
)

// MarkdownRenderer Markdown 数据字典渲染器
type MarkdownRenderer struct {
	explainer *analyzer.RuleBasedExplainer
}

// NewMarkdownRenderer 创建渲染器
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{explainer: analyzer.NewRuleBasedExplainer()}
}

// Render 渲染为 Markdown 格式
func (m *MarkdownRenderer) Render(r *classifier.Result) string {
	var sb strings.Builder
	s := r.Snapshot

	sb.WriteString("# 数据库关系文档\n\n")
	sb.WriteString("## 表结构\n\n")

	// 祖先在前的生成顺序同时也是阅读顺序
	for _, id := range r.GenerationOrder() {
		table := s.Table(id)
		sb.WriteString(fmt.Sprintf("### %s\n\n", table.Name))

		if err, bad := r.TableErrors[id]; bad {
			sb.WriteString(fmt.Sprintf("> ⚠️ 分类失败: %s\n\n", err.Error()))
		}

		if chain := r.AncestorChain(id); len(chain) > 0 {
			var names []string
			for _, anc := range chain {
				names = append(names, s.Table(anc).Name)
			}
			sb.WriteString(fmt.Sprintf("扩展链: %s\n\n", strings.Join(names, " -> ")))
		}

		// 表头
		sb.WriteString("| 列名 | 类型 | 长度 | 可空 | 主键 |\n")
		sb.WriteString("|------|------|------|------|------|\n")

		for _, col := range table.Columns {
			nullable := "否"
			if col.Nullable {
				nullable = "是"
			}
			pk := ""
			if col.IsPrimaryKey {
				pk = "✓"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
				col.Name, col.DataType, col.Length, nullable, pk))
		}
		sb.WriteString("\n")

		m.renderTableRelations(&sb, r, id)
	}

	m.renderTriangulars(&sb, r)

	return sb.String()
}

// renderTableRelations 渲染表的外键分类
func (m *MarkdownRenderer) renderTableRelations(sb *strings.Builder, r *classifier.Result, id schema.TableID) {
	s := r.Snapshot
	table := s.Table(id)
	if len(table.ForeignKeys) == 0 {
		return
	}

	sb.WriteString("#### 关系\n\n")
	for _, fkIdx := range table.ForeignKeys {
		c := r.Classifications[fkIdx]
		fk := &s.ForeignKeys[fkIdx]
		sb.WriteString(fmt.Sprintf("- **%s** `%s(%s) -> %s(%s)`\n",
			tagLabel(c.Tag),
			table.Name, strings.Join(fk.Columns, ","),
			s.Table(fk.RefTable).Name, strings.Join(fk.RefColumns, ","),
		))
		sb.WriteString(fmt.Sprintf("  - %s\n", m.explainer.ExplainClassification(s, c)))
		for _, cand := range c.Candidates {
			sb.WriteString(fmt.Sprintf("    - 候选唯一约束 (%s)\n", strings.Join(cand.Unique, ",")))
		}
	}
	sb.WriteString("\n")
}

// renderTriangulars 渲染三角等价
func (m *MarkdownRenderer) renderTriangulars(sb *strings.Builder, r *classifier.Result) {
	if len(r.Triangulars) == 0 {
		return
	}

	sb.WriteString("## 三角等价\n\n")
	for _, tri := range r.Triangulars {
		flag := "discretionary"
		if tri.Mandatory {
			flag = "mandatory"
		}
		sb.WriteString(fmt.Sprintf("- **%s** %s\n", flag, m.explainer.ExplainTriangular(r.Snapshot, tri)))
	}
	sb.WriteString("\n")
}

// tagLabel 分类标签的中文名
func tagLabel(tag classifier.Tag) string {
	switch tag {
	case classifier.TagExtension:
		return "扩展"
	case classifier.TagVerticalSameAs:
		return "纵向同值"
	case classifier.TagHorizontalSameAs:
		return "横向同值"
	case classifier.TagMultiColumnSameAs:
		return "复合同值"
	case classifier.TagAmbiguous:
		return "歧义"
	case classifier.TagPlainReference:
		return "普通引用"
	}
	return "未分类"
}
