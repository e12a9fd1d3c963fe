package analyzer

import (
	"fmt"
	"strings"

	"schema-relations/internal/classifier"
	"schema-relations/internal/schema"
)

// RuleBasedExplainer 规则解释器：把结构化分类结果翻译成
// 人类可读的说明，供数据字典与服务端界面展示。
type RuleBasedExplainer struct{}

// NewRuleBasedExplainer 创建解释器
func NewRuleBasedExplainer() *RuleBasedExplainer {
	return &RuleBasedExplainer{}
}

// ExplainClassification 解释单个外键的分类
func (e *RuleBasedExplainer) ExplainClassification(s *schema.Snapshot, c classifier.Classification) string {
	fk := &s.ForeignKeys[c.ForeignKey]
	from := s.Table(fk.Table).Name
	to := s.Table(fk.RefTable).Name

	switch c.Tag {
	case classifier.TagExtension:
		return fmt.Sprintf("%s 的主键整体引用 %s 的主键，构成扩展（继承式）关系", from, to)
	case classifier.TagVerticalSameAs:
		p := c.Pairs[0]
		return fmt.Sprintf("%s.%s 与祖先表列 %s.%s 为同一值（纵向字段重复）", from, p.Column, to, p.RefColumn)
	case classifier.TagHorizontalSameAs:
		p := c.Pairs[0]
		return fmt.Sprintf("%s.%s 与 %s.%s 为同一值（横向字段重复，两表无祖先关系）", from, p.Column, to, p.RefColumn)
	case classifier.TagMultiColumnSameAs:
		var pairs []string
		for _, p := range c.Pairs {
			pairs = append(pairs, fmt.Sprintf("%s↔%s", p.Column, p.RefColumn))
		}
		return fmt.Sprintf("%s 到 %s 的外键同时编码 %d 组字段重复: %s", from, to, len(c.Pairs), strings.Join(pairs, ", "))
	case classifier.TagAmbiguous:
		return fmt.Sprintf("%s 到 %s 的外键可由 %d 个唯一约束分别解释，需要人工消歧", from, to, len(c.Candidates))
	case classifier.TagPlainReference:
		return fmt.Sprintf("%s 到 %s 的普通引用", from, to)
	}
	return fmt.Sprintf("%s 到 %s 的外键未参与分类（所在表存在模式错误）", from, to)
}

// ExplainTriangular 解释三角等价
func (e *RuleBasedExplainer) ExplainTriangular(s *schema.Snapshot, t classifier.Triangular) string {
	child := s.Table(t.Child).Name
	bridge := s.Table(t.Bridge).Name
	ancestor := s.Table(t.Ancestor).Name

	if t.Mandatory {
		return fmt.Sprintf("%s 直达 %s 与经 %s 中转的两条路径由复合外键 %s 强制一致（mandatory）",
			child, ancestor, bridge, s.ForeignKeys[t.EnforcedBy].Name)
	}
	return fmt.Sprintf("%s 可直达 %s，也可经 %s 中转，但数据库未强制两条路径一致（discretionary）",
		child, ancestor, bridge)
}
