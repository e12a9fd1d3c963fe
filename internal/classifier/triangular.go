package classifier

import "schema-relations/internal/schema"

// detectTriangulars 第二遍扫描：在已有分类与祖先闭包之上找菱形。
// Child 沿扩展链到达 Ancestor，又经普通引用/横向 Same-As 到达 Bridge，
// 而 Bridge 亦引用该 Ancestor，即构成三角候选。
func detectTriangulars(s *schema.Snapshot, r *Result) []Triangular {
	var out []Triangular
	seen := make(map[[3]schema.TableID]bool)

	for c := range s.Tables {
		child := schema.TableID(c)
		if _, bad := r.TableErrors[child]; bad {
			continue
		}
		chain := r.Ancestry[child]
		if len(chain) == 0 {
			continue
		}

		for _, fIdx := range s.Table(child).ForeignKeys {
			switch r.Classifications[fIdx].Tag {
			case TagHorizontalSameAs, TagPlainReference:
			default:
				continue
			}
			bridge := s.ForeignKeys[fIdx].RefTable
			if bridge == child || inChain(chain, bridge) {
				continue
			}

			for _, gIdx := range s.Table(bridge).ForeignKeys {
				ancestor := s.ForeignKeys[gIdx].RefTable
				if ancestor == bridge || !inChain(chain, ancestor) {
					continue
				}
				key := [3]schema.TableID{child, bridge, ancestor}
				if seen[key] {
					continue
				}
				seen[key] = true

				mandatory, enforcedBy := findEnforcingForeignKey(s, child, bridge, gIdx)
				out = append(out, Triangular{
					Child:            child,
					Bridge:           bridge,
					Ancestor:         ancestor,
					ChildToBridge:    fIdx,
					BridgeToAncestor: gIdx,
					Mandatory:        mandatory,
					EnforcedBy:       enforcedBy,
				})
			}
		}
	}
	return out
}

// findEnforcingForeignKey 判定三角是否为数据库强制（mandatory）：
// Child 须存在一条指向 Bridge 的外键，其被引用元组同时覆盖
// Bridge 的识别列（主键）与 Bridge 通往 Ancestor 的外键列，
// 且该元组整体受 Bridge 上的复合唯一约束保护；与向上列配对的
// 引用方列必须是 Child 的主键列（即 Child 直达 Ancestor 的那条路径）。
func findEnforcingForeignKey(s *schema.Snapshot, child, bridge schema.TableID, bridgeFK int) (bool, int) {
	bridgeTable := s.Table(bridge)
	if len(bridgeTable.PrimaryKey) == 0 {
		return false, -1
	}
	onward := s.ForeignKeys[bridgeFK].Columns
	childPK := s.Table(child).PrimaryKey

	for _, hIdx := range s.Table(child).ForeignKeys {
		h := &s.ForeignKeys[hIdx]
		if h.RefTable != bridge {
			continue
		}
		if !coversAll(h.RefColumns, bridgeTable.PrimaryKey) || !coversAll(h.RefColumns, onward) {
			continue
		}
		if !bridgeTable.HasUniqueOn(h.RefColumns) {
			continue
		}

		// 向上列对应的引用方列必须取自 Child 主键
		enforced := true
		for i, refCol := range h.RefColumns {
			if containsColumn(onward, refCol) && !containsColumn(childPK, h.Columns[i]) {
				enforced = false
				break
			}
		}
		if enforced {
			return true, hIdx
		}
	}
	return false, -1
}

// coversAll super 是否包含 sub 的全部列
func coversAll(super, sub []string) bool {
	for _, col := range sub {
		if !containsColumn(super, col) {
			return false
		}
	}
	return true
}
