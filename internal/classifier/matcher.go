package classifier

import "schema-relations/internal/schema"

// match 列子集匹配结果
type match struct {
	// matched 被引用元组中与识别元组对上的位置
	matched []int
	// pairs 余下位置构成的补集列对，保持元组顺序
	pairs []ColumnPair
}

// matchIdentifying 判断识别元组 identifying（被引用表上的唯一列集、
// 扩展元组或已分类 Same-As）是否被外键的被引用元组覆盖。
// 覆盖时返回补集列对：未匹配位置上的引用方列与被引用方列。
// 识别元组中的重复列名按出现次数消耗被引用元组中的位置。
func matchIdentifying(fk *schema.ForeignKey, identifying []string) (match, bool) {
	need := make(map[string]int, len(identifying))
	for _, col := range identifying {
		need[col]++
	}

	var m match
	for i, col := range fk.RefColumns {
		if need[col] > 0 {
			need[col]--
			m.matched = append(m.matched, i)
		} else {
			m.pairs = append(m.pairs, ColumnPair{
				Column:    fk.Columns[i],
				RefColumn: col,
			})
		}
	}

	// 识别元组必须整体出现在被引用元组中
	for _, remaining := range need {
		if remaining > 0 {
			return match{}, false
		}
	}
	return m, true
}

// matchedHostColumns 匹配位置上的引用方列
func (m *match) matchedHostColumns(fk *schema.ForeignKey) []string {
	cols := make([]string, 0, len(m.matched))
	for _, i := range m.matched {
		cols = append(cols, fk.Columns[i])
	}
	return cols
}
