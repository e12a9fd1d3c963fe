package classifier

import "schema-relations/internal/schema"

// detectExtension 判定单个外键是否构成扩展关系：
// 引用元组恰为子表完整主键，被引用元组恰为祖先表完整主键，
// 且两表不同（自引用不构成扩展）。纯谓词，无副作用。
func detectExtension(s *schema.Snapshot, fkIdx int) (Extension, bool) {
	fk := &s.ForeignKeys[fkIdx]
	if fk.Table == fk.RefTable {
		return Extension{}, false
	}

	child := s.Table(fk.Table)
	ancestor := s.Table(fk.RefTable)
	if len(child.PrimaryKey) == 0 || len(ancestor.PrimaryKey) == 0 {
		return Extension{}, false
	}
	if !columnSetEqual(fk.Columns, child.PrimaryKey) {
		return Extension{}, false
	}
	if !columnSetEqual(fk.RefColumns, ancestor.PrimaryKey) {
		return Extension{}, false
	}

	return Extension{ForeignKey: fkIdx, Child: fk.Table, Ancestor: fk.RefTable}, true
}

// columnSetEqual 列名集合相等（列序归一化）
func columnSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, col := range a {
		seen[col]++
	}
	for _, col := range b {
		seen[col]--
		if seen[col] < 0 {
			return false
		}
	}
	return true
}
