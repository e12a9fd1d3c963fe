package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-relations/internal/adapter"
	"schema-relations/internal/schema"
)

// buildSnapshot 从元数据构建测试快照
func buildSnapshot(t *testing.T, tables []adapter.Table, fks []adapter.ForeignKey) *schema.Snapshot {
	t.Helper()
	s, err := schema.Build(&adapter.SchemaMetadata{Tables: tables}, fks)
	require.NoError(t, err)
	return s
}

// table 测试用表构造：列名即列定义，主键列以 pk 列表给出
func table(name string, pk []string, cols []string, uniques ...[]string) adapter.Table {
	t := adapter.Table{Name: name, PrimaryKey: pk}
	pkSet := make(map[string]bool)
	for _, c := range pk {
		pkSet[c] = true
	}
	for _, c := range cols {
		t.Columns = append(t.Columns, adapter.Column{
			Name: c, DataType: "int", IsPrimaryKey: pkSet[c],
		})
	}
	for i, u := range uniques {
		t.Uniques = append(t.Uniques, adapter.UniqueConstraint{
			Name: "uq_" + name + string(rune('a'+i)), Columns: u,
		})
	}
	return t
}

func fk(name, from string, fromCols []string, to string, toCols []string) adapter.ForeignKey {
	return adapter.ForeignKey{
		Name: name, FromTable: from, FromColumns: fromCols, ToTable: to, ToColumns: toCols,
	}
}

func classificationFor(t *testing.T, r *Result, fkName string) Classification {
	t.Helper()
	for i := range r.Snapshot.ForeignKeys {
		if r.Snapshot.ForeignKeys[i].Name == fkName {
			return r.Classifications[i]
		}
	}
	t.Fatalf("foreign key %s not in snapshot", fkName)
	return Classification{}
}

func TestExtensionDetection(t *testing.T) {
	s := buildSnapshot(t,
		[]adapter.Table{
			table("parent", []string{"id"}, []string{"id", "label"}),
			table("child", []string{"id"}, []string{"id", "note"}),
		},
		[]adapter.ForeignKey{
			fk("fk_child_parent", "child", []string{"id"}, "parent", []string{"id"}),
		},
	)
	r := Classify(s)

	require.Len(t, r.Extensions, 1)
	assert.Equal(t, TagExtension, classificationFor(t, r, "fk_child_parent").Tag)

	child, ok := s.TableByName("child")
	require.True(t, ok)
	parent, _ := s.TableByName("parent")
	assert.Equal(t, []schema.TableID{parent.ID}, r.AncestorChain(child.ID))
	assert.Empty(t, r.AncestorChain(parent.ID))
}

func TestExtensionRejectsSelfReference(t *testing.T) {
	s := buildSnapshot(t,
		[]adapter.Table{
			table("employee", []string{"id"}, []string{"id", "manager_id"}),
		},
		[]adapter.ForeignKey{
			fk("fk_manager", "employee", []string{"manager_id"}, "employee", []string{"id"}),
		},
	)
	r := Classify(s)

	assert.Empty(t, r.Extensions)
	assert.Equal(t, TagPlainReference, classificationFor(t, r, "fk_manager").Tag)
}

func TestVerticalSameAs(t *testing.T) {
	// parent(id PK, name, UNIQUE(id,name))
	// child(id PK -> parent.id, name, FK(id,name) -> parent(id,name))
	s := buildSnapshot(t,
		[]adapter.Table{
			table("parent", []string{"id"}, []string{"id", "name"}, []string{"id", "name"}),
			table("child", []string{"id"}, []string{"id", "name"}),
		},
		[]adapter.ForeignKey{
			fk("fk_ext", "child", []string{"id"}, "parent", []string{"id"}),
			fk("fk_name", "child", []string{"id", "name"}, "parent", []string{"id", "name"}),
		},
	)
	r := Classify(s)

	assert.Equal(t, TagExtension, classificationFor(t, r, "fk_ext").Tag)

	c := classificationFor(t, r, "fk_name")
	require.Equal(t, TagVerticalSameAs, c.Tag)
	require.Len(t, c.Pairs, 1)
	assert.Equal(t, ColumnPair{Column: "name", RefColumn: "name"}, c.Pairs[0])
	assert.Len(t, s.ForeignKeys[c.ForeignKey].RefColumns, 2)
}

func TestVerticalRequiresUniqueCoverage(t *testing.T) {
	// 没有 UNIQUE(id,name)，纵向不成立，退为普通引用
	s := buildSnapshot(t,
		[]adapter.Table{
			table("parent", []string{"id"}, []string{"id", "name"}),
			table("child", []string{"id"}, []string{"id", "name"}),
		},
		[]adapter.ForeignKey{
			fk("fk_ext", "child", []string{"id"}, "parent", []string{"id"}),
			fk("fk_name", "child", []string{"id", "name"}, "parent", []string{"id", "name"}),
		},
	)
	r := Classify(s)

	assert.Equal(t, TagPlainReference, classificationFor(t, r, "fk_name").Tag)
}

func TestVerticalAcrossTransitiveAncestor(t *testing.T) {
	// grandparent <- parent <- child 的扩展链；child 直接对 grandparent 去重
	s := buildSnapshot(t,
		[]adapter.Table{
			table("grandparent", []string{"id"}, []string{"id", "surname"}, []string{"id", "surname"}),
			table("parent", []string{"id"}, []string{"id"}),
			table("child", []string{"id"}, []string{"id", "surname"}),
		},
		[]adapter.ForeignKey{
			fk("fk_p_gp", "parent", []string{"id"}, "grandparent", []string{"id"}),
			fk("fk_c_p", "child", []string{"id"}, "parent", []string{"id"}),
			fk("fk_c_gp", "child", []string{"id", "surname"}, "grandparent", []string{"id", "surname"}),
		},
	)
	r := Classify(s)

	c := classificationFor(t, r, "fk_c_gp")
	require.Equal(t, TagVerticalSameAs, c.Tag)
	assert.Equal(t, []ColumnPair{{Column: "surname", RefColumn: "surname"}}, c.Pairs)

	child, _ := s.TableByName("child")
	assert.Len(t, r.AncestorChain(child.ID), 2)
}

func TestHorizontalSameAs(t *testing.T) {
	// brother(id PK, brother_name, UNIQUE(id,brother_name))
	// child(id PK, brother_id, child_name, FK(brother_id,child_name) -> brother(id,brother_name))
	s := buildSnapshot(t,
		[]adapter.Table{
			table("brother", []string{"id"}, []string{"id", "brother_name"}, []string{"id", "brother_name"}),
			table("child", []string{"id"}, []string{"id", "brother_id", "child_name"}),
		},
		[]adapter.ForeignKey{
			fk("fk_sibling", "child", []string{"brother_id", "child_name"}, "brother", []string{"id", "brother_name"}),
		},
	)
	r := Classify(s)

	c := classificationFor(t, r, "fk_sibling")
	require.Equal(t, TagHorizontalSameAs, c.Tag)
	assert.Equal(t, []ColumnPair{{Column: "child_name", RefColumn: "brother_name"}}, c.Pairs)
	assert.Empty(t, r.Extensions)
}

func TestHorizontalAmbiguous(t *testing.T) {
	// ref 的主键 [a] 与唯一约束 [b] 各自产生一对补集匹配
	s := buildSnapshot(t,
		[]adapter.Table{
			table("ref", []string{"a"}, []string{"a", "b"}, []string{"b"}),
			table("host", []string{"id"}, []string{"id", "h1", "h2"}),
		},
		[]adapter.ForeignKey{
			fk("fk_amb", "host", []string{"h1", "h2"}, "ref", []string{"a", "b"}),
		},
	)
	r := Classify(s)

	c := classificationFor(t, r, "fk_amb")
	require.Equal(t, TagAmbiguous, c.Tag)
	require.Len(t, c.Candidates, 2)
	assert.Equal(t, []string{"a"}, c.Candidates[0].Unique)
	assert.Equal(t, []ColumnPair{{Column: "h2", RefColumn: "b"}}, c.Candidates[0].Pairs)
	assert.Equal(t, []string{"b"}, c.Candidates[1].Unique)
	assert.Equal(t, []ColumnPair{{Column: "h1", RefColumn: "a"}}, c.Candidates[1].Pairs)
}

func TestMultiColumnSameAs(t *testing.T) {
	// 一个外键同时编码两个字段重复
	s := buildSnapshot(t,
		[]adapter.Table{
			table("parent", []string{"id"}, []string{"id", "x", "y"}, []string{"id", "x", "y"}),
			table("child", []string{"id"}, []string{"id", "x", "y"}),
		},
		[]adapter.ForeignKey{
			fk("fk_ext", "child", []string{"id"}, "parent", []string{"id"}),
			fk("fk_xy", "child", []string{"id", "x", "y"}, "parent", []string{"id", "x", "y"}),
		},
	)
	r := Classify(s)

	c := classificationFor(t, r, "fk_xy")
	require.Equal(t, TagMultiColumnSameAs, c.Tag)
	assert.Equal(t, []ColumnPair{
		{Column: "x", RefColumn: "x"},
		{Column: "y", RefColumn: "y"},
	}, c.Pairs)
}

func TestPlainReference(t *testing.T) {
	s := buildSnapshot(t,
		[]adapter.Table{
			table("dept", []string{"id"}, []string{"id", "name"}),
			table("user", []string{"id"}, []string{"id", "dept_id"}),
		},
		[]adapter.ForeignKey{
			fk("fk_dept", "user", []string{"dept_id"}, "dept", []string{"id"}),
		},
	)
	r := Classify(s)

	assert.Equal(t, TagPlainReference, classificationFor(t, r, "fk_dept").Tag)
}

// triangularFixture 菱形：child 沿扩展链达 grandparent，
// 又经 sibling 间接达同一 grandparent。withComposite 控制
// 是否带 FK(sibling_id,id) -> sibling(id,grandparent_id)。
func triangularFixture(t *testing.T, withComposite bool) *schema.Snapshot {
	t.Helper()
	fks := []adapter.ForeignKey{
		fk("fk_p_gp", "parent", []string{"id"}, "grandparent", []string{"id"}),
		fk("fk_c_p", "child", []string{"id"}, "parent", []string{"id"}),
		fk("fk_s_gp", "sibling", []string{"grandparent_id"}, "grandparent", []string{"id"}),
		fk("fk_c_s", "child", []string{"sibling_id"}, "sibling", []string{"id"}),
	}
	if withComposite {
		fks = append(fks, fk("fk_c_s_gp", "child",
			[]string{"sibling_id", "id"}, "sibling", []string{"id", "grandparent_id"}))
	}
	return buildSnapshot(t,
		[]adapter.Table{
			table("grandparent", []string{"id"}, []string{"id"}),
			table("parent", []string{"id"}, []string{"id"}),
			table("sibling", []string{"id"}, []string{"id", "grandparent_id"}, []string{"id", "grandparent_id"}),
			table("child", []string{"id"}, []string{"id", "sibling_id"}),
		},
		fks,
	)
}

func TestTriangularMandatory(t *testing.T) {
	s := triangularFixture(t, true)
	r := Classify(s)

	require.Len(t, r.Triangulars, 1)
	tri := r.Triangulars[0]

	child, _ := s.TableByName("child")
	sibling, _ := s.TableByName("sibling")
	grandparent, _ := s.TableByName("grandparent")
	assert.Equal(t, child.ID, tri.Child)
	assert.Equal(t, sibling.ID, tri.Bridge)
	assert.Equal(t, grandparent.ID, tri.Ancestor)

	assert.True(t, tri.Mandatory)
	require.GreaterOrEqual(t, tri.EnforcedBy, 0)
	assert.Equal(t, "fk_c_s_gp", s.ForeignKeys[tri.EnforcedBy].Name)
}

func TestTriangularDiscretionary(t *testing.T) {
	s := triangularFixture(t, false)
	r := Classify(s)

	require.Len(t, r.Triangulars, 1)
	assert.False(t, r.Triangulars[0].Mandatory)
	assert.Equal(t, -1, r.Triangulars[0].EnforcedBy)
}

func TestCyclicExtension(t *testing.T) {
	s := buildSnapshot(t,
		[]adapter.Table{
			table("a", []string{"id"}, []string{"id"}),
			table("b", []string{"id"}, []string{"id"}),
		},
		[]adapter.ForeignKey{
			fk("fk_a_b", "a", []string{"id"}, "b", []string{"id"}),
			fk("fk_b_a", "b", []string{"id"}, "a", []string{"id"}),
		},
	)
	r := Classify(s)

	assert.Empty(t, r.Extensions)
	require.Len(t, r.TableErrors, 2)
	for _, err := range r.TableErrors {
		var cyc *CyclicExtensionError
		require.True(t, errors.As(err, &cyc))
		assert.Len(t, cyc.Path, 3)
	}

	// 环上各表的外键不参与分类，保留零值标签
	for _, c := range r.Classifications {
		assert.Equal(t, Tag(""), c.Tag)
	}
}

func TestConflictingExtension(t *testing.T) {
	s := buildSnapshot(t,
		[]adapter.Table{
			table("a", []string{"id"}, []string{"id"}),
			table("b", []string{"id"}, []string{"id"}),
			table("c", []string{"id"}, []string{"id"}),
		},
		[]adapter.ForeignKey{
			fk("fk_c_a", "c", []string{"id"}, "a", []string{"id"}),
			fk("fk_c_b", "c", []string{"id"}, "b", []string{"id"}),
		},
	)
	r := Classify(s)

	assert.Empty(t, r.Extensions)
	ctab, _ := s.TableByName("c")
	var conflict *ConflictingExtensionError
	require.True(t, errors.As(r.TableErrors[ctab.ID], &conflict))
	assert.ElementsMatch(t, []string{"fk_c_a", "fk_c_b"}, conflict.ForeignKeys)
	assert.Empty(t, r.AncestorChain(ctab.ID))
}

func TestReferencesIntoErroredTableSkipped(t *testing.T) {
	// a/b 成环；c 的主键整体引用 a，x 的外键对 a 做子集匹配。
	// 出错表不得被收作祖先，指向它的外键一律不参与分类。
	s := buildSnapshot(t,
		[]adapter.Table{
			table("a", []string{"id"}, []string{"id", "name"}, []string{"id", "name"}),
			table("b", []string{"id"}, []string{"id"}),
			table("c", []string{"id"}, []string{"id"}),
			table("x", []string{"id"}, []string{"id", "a_id", "x_name"}),
		},
		[]adapter.ForeignKey{
			fk("fk_a_b", "a", []string{"id"}, "b", []string{"id"}),
			fk("fk_b_a", "b", []string{"id"}, "a", []string{"id"}),
			fk("fk_c_a", "c", []string{"id"}, "a", []string{"id"}),
			fk("fk_x_a", "x", []string{"a_id", "x_name"}, "a", []string{"id", "name"}),
		},
	)
	r := Classify(s)

	require.Len(t, r.TableErrors, 2)
	assert.Empty(t, r.Extensions)
	assert.Equal(t, Tag(""), classificationFor(t, r, "fk_c_a").Tag)
	assert.Equal(t, Tag(""), classificationFor(t, r, "fk_x_a").Tag)

	ctab, _ := s.TableByName("c")
	assert.Empty(t, r.AncestorChain(ctab.ID))
}

func TestErroredTableDoesNotBlockOthers(t *testing.T) {
	// a/b 成环；user -> dept 与此无关，照常分类
	s := buildSnapshot(t,
		[]adapter.Table{
			table("a", []string{"id"}, []string{"id"}),
			table("b", []string{"id"}, []string{"id"}),
			table("dept", []string{"id"}, []string{"id"}),
			table("user", []string{"id"}, []string{"id", "dept_id"}),
		},
		[]adapter.ForeignKey{
			fk("fk_a_b", "a", []string{"id"}, "b", []string{"id"}),
			fk("fk_b_a", "b", []string{"id"}, "a", []string{"id"}),
			fk("fk_dept", "user", []string{"dept_id"}, "dept", []string{"id"}),
		},
	)
	r := Classify(s)

	assert.Len(t, r.TableErrors, 2)
	assert.Equal(t, TagPlainReference, classificationFor(t, r, "fk_dept").Tag)
}

func TestMutualExclusivity(t *testing.T) {
	s := triangularFixture(t, true)
	r := Classify(s)

	tags := map[Tag]bool{
		TagExtension: true, TagVerticalSameAs: true, TagHorizontalSameAs: true,
		TagMultiColumnSameAs: true, TagAmbiguous: true, TagPlainReference: true,
	}
	for i, c := range r.Classifications {
		assert.True(t, tags[c.Tag], "foreign key %s has tag %q", s.ForeignKeys[i].Name, c.Tag)
		assert.Equal(t, i, c.ForeignKey)
	}
}

func TestIdempotence(t *testing.T) {
	s := triangularFixture(t, true)

	r1 := Classify(s)
	r2 := Classify(s)
	assert.Equal(t, r1.Classifications, r2.Classifications)
	assert.Equal(t, r1.Extensions, r2.Extensions)
	assert.Equal(t, r1.Triangulars, r2.Triangulars)
	assert.Equal(t, r1.Ancestry, r2.Ancestry)

	// 结果与并发度无关
	r3 := ClassifyWithOptions(s, Options{Workers: 1})
	r4 := ClassifyWithOptions(s, Options{Workers: 8})
	assert.Equal(t, r3.Classifications, r4.Classifications)
	assert.Equal(t, r1.Classifications, r3.Classifications)
}

func TestGenerationOrderAncestorsFirst(t *testing.T) {
	s := triangularFixture(t, false)
	r := Classify(s)

	order := r.GenerationOrder()
	pos := make(map[string]int)
	for i, id := range order {
		pos[s.Table(id).Name] = i
	}
	assert.Less(t, pos["grandparent"], pos["parent"])
	assert.Less(t, pos["parent"], pos["child"])
	assert.Less(t, pos["sibling"], pos["child"])
}

func TestMatchIdentifying(t *testing.T) {
	fk := &schema.ForeignKey{
		Columns:    []string{"id", "name"},
		RefColumns: []string{"id", "name"},
	}

	m, ok := matchIdentifying(fk, []string{"id"})
	require.True(t, ok)
	assert.Equal(t, []ColumnPair{{Column: "name", RefColumn: "name"}}, m.pairs)
	assert.Equal(t, []string{"id"}, m.matchedHostColumns(fk))

	// 识别元组整体覆盖被引用元组：零补集
	m, ok = matchIdentifying(fk, []string{"id", "name"})
	require.True(t, ok)
	assert.Empty(t, m.pairs)

	// 识别元组未被覆盖
	_, ok = matchIdentifying(fk, []string{"id", "other"})
	assert.False(t, ok)
}
