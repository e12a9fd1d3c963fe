package classifier

import "schema-relations/internal/schema"

// extensionGraph 每张表至多一条向上的扩展边
type extensionGraph struct {
	// parentFK 表下标 -> 扩展外键下标，-1 表示无扩展边
	parentFK []int
	// parentTab 表下标 -> 直接扩展祖先的表下标，-1 表示无
	parentTab []int
	errors    map[schema.TableID]error
}

// buildExtensionGraph 扫描全部外键，收集扩展候选边并检出
// 冲突（一表多候选）与环路。出错表的边一律移除，剩余图无环。
func buildExtensionGraph(s *schema.Snapshot) *extensionGraph {
	g := &extensionGraph{
		parentFK:  make([]int, len(s.Tables)),
		parentTab: make([]int, len(s.Tables)),
		errors:    make(map[schema.TableID]error),
	}

	candidates := make([][]int, len(s.Tables))
	for i := range s.ForeignKeys {
		if ext, ok := detectExtension(s, i); ok {
			candidates[ext.Child] = append(candidates[ext.Child], i)
		}
	}

	for t := range g.parentFK {
		g.parentFK[t] = -1
		g.parentTab[t] = -1
		switch cands := candidates[t]; {
		case len(cands) == 1:
			g.parentFK[t] = cands[0]
			g.parentTab[t] = int(s.ForeignKeys[cands[0]].RefTable)
		case len(cands) > 1:
			names := make([]string, 0, len(cands))
			for _, fkIdx := range cands {
				names = append(names, s.ForeignKeys[fkIdx].Name)
			}
			g.errors[schema.TableID(t)] = &ConflictingExtensionError{
				Table:       s.Table(schema.TableID(t)).QualifiedName(),
				ForeignKeys: names,
			}
		}
	}

	g.detectCycles(s)

	// 扩展进出错表（成环或冲突）的边一并摘除：
	// 健康表不得把出错表收作祖先
	for t := range g.parentTab {
		p := g.parentTab[t]
		if p < 0 {
			continue
		}
		if _, bad := g.errors[schema.TableID(p)]; bad {
			g.parentFK[t] = -1
			g.parentTab[t] = -1
		}
	}
	return g
}

// detectCycles 沿扩展边向上行走，发现环路后给环上各表记错并摘除其扩展边
func (g *extensionGraph) detectCycles(s *schema.Snapshot) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(g.parentFK))

	for start := range g.parentFK {
		if state[start] != unvisited {
			continue
		}

		var path []int
		t := start
		for {
			state[t] = visiting
			path = append(path, t)

			p := g.parentTab[t]
			if p < 0 || state[p] == done {
				break
			}
			if state[p] == visiting {
				// path 中自 p 起的后缀即为环
				cycleStart := 0
				for i, v := range path {
					if v == p {
						cycleStart = i
						break
					}
				}
				cycle := path[cycleStart:]

				names := make([]string, 0, len(cycle)+1)
				for _, v := range cycle {
					names = append(names, s.Table(schema.TableID(v)).QualifiedName())
				}
				names = append(names, s.Table(schema.TableID(p)).QualifiedName())

				err := &CyclicExtensionError{Path: names}
				for _, v := range cycle {
					g.errors[schema.TableID(v)] = err
					g.parentFK[v] = -1
					g.parentTab[v] = -1
				}
				break
			}
			t = p
		}

		for _, v := range path {
			state[v] = done
		}
	}
}

// computeAncestry 逐表计算沿扩展边向上的祖先链（近祖先在前）。
// 图已无环，结果按表下标缓存，整个快照只算一遍。
func computeAncestry(s *schema.Snapshot, g *extensionGraph) [][]schema.TableID {
	chains := make([][]schema.TableID, len(s.Tables))
	computed := make([]bool, len(s.Tables))

	var visit func(t int) []schema.TableID
	visit = func(t int) []schema.TableID {
		if computed[t] {
			return chains[t]
		}
		computed[t] = true

		p := g.parentTab[t]
		if p < 0 {
			return nil
		}
		parentChain := visit(p)
		chain := make([]schema.TableID, 0, 1+len(parentChain))
		chain = append(chain, schema.TableID(p))
		chain = append(chain, parentChain...)
		chains[t] = chain
		return chain
	}

	for t := range s.Tables {
		visit(t)
	}
	return chains
}

// inChain 祖先链中是否含有某表
func inChain(chain []schema.TableID, id schema.TableID) bool {
	for _, t := range chain {
		if t == id {
			return true
		}
	}
	return false
}
