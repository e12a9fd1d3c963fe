package classifier

import (
	"runtime"
	"sync"

	"schema-relations/internal/schema"
)

// Options 分类选项
type Options struct {
	// Workers 外键分类的并发度，<=0 取 CPU 数
	Workers int
}

// Classify 按默认选项对快照做完整分类
func Classify(s *schema.Snapshot) *Result {
	return ClassifyWithOptions(s, Options{})
}

// ClassifyWithOptions 对快照做完整分类。
// 先串行建好扩展图与祖先闭包（唯一的跨外键依赖），
// 此后逐外键的分类互不相关，放入工作协程并发执行；
// 结果槽位按外键下标对齐，无共享写，结果与并发度无关。
func ClassifyWithOptions(s *schema.Snapshot, opts Options) *Result {
	g := buildExtensionGraph(s)

	r := &Result{
		Snapshot:        s,
		Classifications: make([]Classification, len(s.ForeignKeys)),
		Ancestry:        computeAncestry(s, g),
		TableErrors:     g.errors,
	}

	isExtension := make([]bool, len(s.ForeignKeys))
	for t := range g.parentFK {
		fkIdx := g.parentFK[t]
		if fkIdx < 0 {
			continue
		}
		r.Extensions = append(r.Extensions, Extension{
			ForeignKey: fkIdx,
			Child:      schema.TableID(t),
			Ancestor:   s.ForeignKeys[fkIdx].RefTable,
		})
		r.Classifications[fkIdx] = Classification{ForeignKey: fkIdx, Tag: TagExtension}
		isExtension[fkIdx] = true
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(s.ForeignKeys) && len(s.ForeignKeys) > 0 {
		workers = len(s.ForeignKeys)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r.Classifications[i] = classifyOne(s, r.Ancestry, r.TableErrors, i)
			}
		}()
	}
	for i := range s.ForeignKeys {
		if !isExtension[i] {
			jobs <- i
		}
	}
	close(jobs)
	wg.Wait()

	r.Triangulars = detectTriangulars(s, r)
	return r
}

// classifyOne 单个外键的状态机：
// extension（已在图构建时定出）-> vertical -> horizontal -> plain。
// 所在表或被引用表分类失败（成环/冲突）的外键不参与，保留零值标签。
func classifyOne(s *schema.Snapshot, ancestry [][]schema.TableID, tableErrors map[schema.TableID]error, fkIdx int) Classification {
	fk := &s.ForeignKeys[fkIdx]
	if _, bad := tableErrors[fk.Table]; bad {
		return Classification{ForeignKey: fkIdx}
	}
	if _, bad := tableErrors[fk.RefTable]; bad {
		return Classification{ForeignKey: fkIdx}
	}

	if c, ok := classifyVertical(s, ancestry, fkIdx); ok {
		return c
	}
	if c, ok := classifyHorizontal(s, ancestry, fkIdx); ok {
		return c
	}
	return Classification{ForeignKey: fkIdx, Tag: TagPlainReference}
}
