package classifier

import "schema-relations/internal/schema"

// classifyHorizontal 尝试把外键判为横向 Same-As：
// 两表之间（任一方向、含传递）不存在扩展关系时，
// 对被引用表的每个唯一列集做子集匹配。
// 恰一个唯一列集产生补集匹配 -> horizontal（单对）或 multi（多对）；
// 多个唯一列集各自产生匹配 -> ambiguous，候选全部上报，不擅自取舍。
func classifyHorizontal(s *schema.Snapshot, ancestry [][]schema.TableID, fkIdx int) (Classification, bool) {
	fk := &s.ForeignKeys[fkIdx]
	if fk.Table == fk.RefTable {
		return Classification{}, false
	}
	if inChain(ancestry[fk.Table], fk.RefTable) || inChain(ancestry[fk.RefTable], fk.Table) {
		return Classification{}, false
	}

	ref := s.Table(fk.RefTable)
	var candidates []Candidate
	seen := make(map[string]bool)
	for _, set := range ref.UniqueSets() {
		// 主键与同列唯一索引只算一个识别元组
		sig := columnSetSignature(set)
		if seen[sig] {
			continue
		}
		seen[sig] = true

		m, ok := matchIdentifying(fk, set)
		if !ok || len(m.pairs) == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			Unique: append([]string(nil), set...),
			Pairs:  m.pairs,
		})
	}

	switch {
	case len(candidates) == 0:
		return Classification{}, false
	case len(candidates) > 1:
		return Classification{ForeignKey: fkIdx, Tag: TagAmbiguous, Candidates: candidates}, true
	}

	tag := TagHorizontalSameAs
	if len(candidates[0].Pairs) > 1 {
		tag = TagMultiColumnSameAs
	}
	return Classification{ForeignKey: fkIdx, Tag: tag, Pairs: candidates[0].Pairs}, true
}

// columnSetSignature 列集合的顺序无关签名
func columnSetSignature(cols []string) string {
	sorted := append([]string(nil), cols...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	sig := ""
	for _, c := range sorted {
		sig += c + "\x00"
	}
	return sig
}
