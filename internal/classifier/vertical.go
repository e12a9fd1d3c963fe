package classifier

import "schema-relations/internal/schema"

// classifyVertical 尝试把外键判为纵向 Same-As：
// 被引用表必须位于引用表的扩展闭包内，识别元组取祖先完整主键
// （即扩展链保证的主键对应），补集即重复字段对。
// 返回 false 表示"不是纵向"，属正常否定结果而非错误。
func classifyVertical(s *schema.Snapshot, ancestry [][]schema.TableID, fkIdx int) (Classification, bool) {
	fk := &s.ForeignKeys[fkIdx]
	if !inChain(ancestry[fk.Table], fk.RefTable) {
		return Classification{}, false
	}

	ancestor := s.Table(fk.RefTable)
	m, ok := matchIdentifying(fk, ancestor.PrimaryKey)
	if !ok || len(m.pairs) == 0 {
		return Classification{}, false
	}

	// 匹配位置的引用方列必须落在子表主键上：
	// 扩展元组优先，碰巧与祖先主键同名的普通列不算
	child := s.Table(fk.Table)
	for _, col := range m.matchedHostColumns(fk) {
		if !containsColumn(child.PrimaryKey, col) {
			return Classification{}, false
		}
	}

	// 被引用元组整体（主键 + 额外列）必须受某唯一约束覆盖，
	// 否则该外键对纵向分类而言不成立
	if !ancestor.HasUniqueOn(fk.RefColumns) {
		return Classification{}, false
	}

	tag := TagVerticalSameAs
	if len(m.pairs) > 1 {
		tag = TagMultiColumnSameAs
	}
	return Classification{ForeignKey: fkIdx, Tag: tag, Pairs: m.pairs}, true
}

// containsColumn 列名是否在列表中
func containsColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}
