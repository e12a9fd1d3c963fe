package graph

import (
	"fmt"
	"strings"

	"schema-relations/internal/classifier"
)

// BuildFromResult 把分类结果物化为结构图，供渲染与服务端导出
func BuildFromResult(r *classifier.Result) *SchemaGraph {
	g := NewSchemaGraph()
	s := r.Snapshot

	// 表与列节点
	for i := range s.Tables {
		table := &s.Tables[i]
		props := map[string]interface{}{
			"schema":      table.Schema,
			"primary_key": table.PrimaryKey,
		}
		if err, bad := r.TableErrors[table.ID]; bad {
			props["error"] = err.Error()
		}
		var chain []string
		for _, anc := range r.AncestorChain(table.ID) {
			chain = append(chain, s.Table(anc).Name)
		}
		props["ancestors"] = chain

		g.AddNode(&Node{
			ID:         table.Name,
			Type:       NodeTypeTable,
			Name:       table.Name,
			Properties: props,
		})

		for _, col := range table.Columns {
			g.AddNode(&Node{
				ID:   table.Name + "." + col.Name,
				Type: NodeTypeColumn,
				Name: col.Name,
				Properties: map[string]interface{}{
					"table":          table.Name,
					"data_type":      col.DataType,
					"length":         col.Length,
					"nullable":       col.Nullable,
					"is_primary_key": col.IsPrimaryKey,
				},
			})
		}
	}

	// 外键分类边
	for _, c := range r.Classifications {
		if c.Tag == "" {
			continue // 所在表分类失败
		}
		fk := &s.ForeignKeys[c.ForeignKey]
		from := s.Table(fk.Table).Name
		to := s.Table(fk.RefTable).Name

		props := map[string]interface{}{
			"foreign_key":  fk.Name,
			"from_table":   from,
			"from_columns": fk.Columns,
			"to_table":     to,
			"to_columns":   fk.RefColumns,
		}
		if len(c.Pairs) > 0 {
			var pairs []string
			for _, p := range c.Pairs {
				pairs = append(pairs, p.Column+"="+p.RefColumn)
			}
			props["pairs"] = pairs
		}
		if len(c.Candidates) > 0 {
			var cands []string
			for _, cand := range c.Candidates {
				cands = append(cands, strings.Join(cand.Unique, "+"))
			}
			props["candidates"] = cands
		}

		g.AddEdge(&Edge{
			ID:         fmt.Sprintf("fk:%s.%s", from, fk.Name),
			Type:       edgeTypeForTag(c.Tag),
			From:       from,
			To:         to,
			Confidence: 1.0,
			Properties: props,
		})
	}

	// 三角等价边
	for _, tri := range r.Triangulars {
		child := s.Table(tri.Child).Name
		bridge := s.Table(tri.Bridge).Name
		ancestor := s.Table(tri.Ancestor).Name

		props := map[string]interface{}{
			"bridge":    bridge,
			"mandatory": tri.Mandatory,
		}
		if tri.EnforcedBy >= 0 {
			props["enforced_by"] = s.ForeignKeys[tri.EnforcedBy].Name
		}
		g.AddEdge(&Edge{
			ID:         fmt.Sprintf("tri:%s-%s-%s", child, bridge, ancestor),
			Type:       EdgeTypeTriangular,
			From:       child,
			To:         ancestor,
			Confidence: 1.0,
			Properties: props,
		})
	}

	return g
}

// edgeTypeForTag 分类标签到边类型
func edgeTypeForTag(tag classifier.Tag) EdgeType {
	switch tag {
	case classifier.TagExtension:
		return EdgeTypeExtension
	case classifier.TagVerticalSameAs:
		return EdgeTypeVerticalSameAs
	case classifier.TagHorizontalSameAs:
		return EdgeTypeHorizontalSameAs
	case classifier.TagMultiColumnSameAs:
		return EdgeTypeMultiColumnSameAs
	case classifier.TagAmbiguous:
		return EdgeTypeAmbiguous
	}
	return EdgeTypePlainReference
}
