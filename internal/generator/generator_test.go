package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"schema-relations/internal/adapter"
	"schema-relations/internal/analyzer"
	"schema-relations/internal/classifier"
	"schema-relations/internal/graph"
	"schema-relations/internal/schema"
)

// verticalResult parent <- child 扩展链加一条纵向同值外键
func verticalResult(t *testing.T) *classifier.Result {
	t.Helper()
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{
				Name:       "parent",
				PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "name", DataType: "varchar", Length: 50},
				},
				Uniques: []adapter.UniqueConstraint{
					{Name: "uq_parent", Columns: []string{"id", "name"}},
				},
			},
			{
				Name:       "child",
				PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "name", DataType: "varchar", Length: 50},
					{Name: "born_at", DataType: "datetime", Nullable: true},
				},
			},
		},
	}
	fks := []adapter.ForeignKey{
		{Name: "fk_ext", FromTable: "child", FromColumns: []string{"id"},
			ToTable: "parent", ToColumns: []string{"id"}},
		{Name: "fk_name", FromTable: "child", FromColumns: []string{"id", "name"},
			ToTable: "parent", ToColumns: []string{"id", "name"}},
	}
	s, err := schema.Build(meta, fks)
	require.NoError(t, err)
	return classifier.Classify(s)
}

func TestBuilderGenerate(t *testing.T) {
	r := verticalResult(t)
	files := NewBuilderGenerator("models").Generate(r, nil)

	require.Len(t, files, 2)
	assert.Equal(t, []string{"child.go", "parent.go"}, SortedFileNames(files))

	src := files["child.go"]
	assert.Contains(t, src, "package models")
	assert.Contains(t, src, "type Child struct {")
	assert.Contains(t, src, "// 扩展自 Parent")
	assert.Contains(t, src, "type ChildBuilder struct {")
	assert.Contains(t, src, "func NewChildBuilder() *ChildBuilder {")

	// 同值列带说明注释
	assert.Contains(t, src, "与 parent.name 同值")

	// 可空时间列: 指针类型 + time 导入
	assert.Contains(t, src, "import \"time\"")
	assert.Contains(t, src, "BornAt *time.Time")

	parent := files["parent.go"]
	assert.NotContains(t, parent, "扩展自")
	assert.Contains(t, parent, "func (b *ParentBuilder) Build() Parent {")
}

func TestBuilderSkipsErroredTables(t *testing.T) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{Name: "a", PrimaryKey: []string{"id"},
				Columns: []adapter.Column{{Name: "id", DataType: "int", IsPrimaryKey: true}}},
			{Name: "b", PrimaryKey: []string{"id"},
				Columns: []adapter.Column{{Name: "id", DataType: "int", IsPrimaryKey: true}}},
		},
	}
	fks := []adapter.ForeignKey{
		{Name: "fk_a_b", FromTable: "a", FromColumns: []string{"id"}, ToTable: "b", ToColumns: []string{"id"}},
		{Name: "fk_b_a", FromTable: "b", FromColumns: []string{"id"}, ToTable: "a", ToColumns: []string{"id"}},
	}
	s, err := schema.Build(meta, fks)
	require.NoError(t, err)
	r := classifier.Classify(s)

	files := NewBuilderGenerator("").Generate(r, nil)
	assert.Empty(t, files)
}

func TestBuilderGeneratesLookupKeyType(t *testing.T) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{Name: "order_status", PrimaryKey: []string{"code"},
				Columns: []adapter.Column{{Name: "code", DataType: "varchar", Length: 16, IsPrimaryKey: true}}},
			{Name: "order", PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "status", DataType: "varchar", Length: 16},
				}},
		},
	}
	fks := []adapter.ForeignKey{
		{Name: "fk_status", FromTable: "order", FromColumns: []string{"status"},
			ToTable: "order_status", ToColumns: []string{"code"}},
	}
	s, err := schema.Build(meta, fks)
	require.NoError(t, err)
	r := classifier.Classify(s)

	lookups := analyzer.NewLookupDetector().DetectLookupTables(meta, fks)
	require.Len(t, lookups, 1)

	files := NewBuilderGenerator("models").Generate(r, lookups)
	src := files["order_status.go"]
	assert.Contains(t, src, "type OrderStatus string")
	assert.Contains(t, src, "func NewOrderStatus(v string) OrderStatus {")
	assert.NotContains(t, src, "OrderStatusBuilder")

	// 非码表仍走行构建器
	assert.Contains(t, files["order.go"], "type OrderBuilder struct {")
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "OrderItem", goTypeName("order_items"))
	assert.Equal(t, "User", goTypeName("users"))
	assert.Equal(t, "UserID", goFieldName("user_id"))
	assert.Equal(t, "PageURL", goFieldName("page_url"))

	assert.Equal(t, "int64", goType(schema.Column{DataType: "bigint"}))
	assert.Equal(t, "*string", goType(schema.Column{DataType: "varchar", Nullable: true}))
	assert.Equal(t, "time.Time", goType(schema.Column{DataType: "timestamp"}))
}

func TestBuildManifest(t *testing.T) {
	r := verticalResult(t)
	m := BuildManifest(r, []analyzer.LookupTable{
		{Name: "order_status", KeyColumn: "code", ReferencedBy: []string{"order"}},
	})

	require.Len(t, m.Lookups, 1)
	assert.Equal(t, "order_status", m.Lookups[0].Name)
	assert.Equal(t, "code", m.Lookups[0].KeyColumn)

	assert.Equal(t, []string{"parent", "child"}, m.GenerationOrder)
	require.Len(t, m.Tables, 2)

	child := m.Tables[1]
	assert.Equal(t, "child", child.Name)
	assert.Equal(t, []string{"parent"}, child.Ancestors)
	require.Len(t, child.ForeignKeys, 2)
	assert.Equal(t, "extension", child.ForeignKeys[0].Tag)
	assert.Equal(t, "vertical_same_as", child.ForeignKeys[1].Tag)
	assert.Equal(t, []string{"name=name"}, child.ForeignKeys[1].Pairs)

	data, err := m.Marshal()
	require.NoError(t, err)

	var decoded Manifest
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, m.GenerationOrder, decoded.GenerationOrder)
}

func TestMermaidRender(t *testing.T) {
	r := verticalResult(t)
	g := graph.BuildFromResult(r)
	out := NewMermaidRenderer().Render(g)

	assert.True(t, strings.HasPrefix(out, "erDiagram\n"))
	assert.Contains(t, out, "    child {\n")
	assert.Contains(t, out, "    parent {\n")
	assert.Contains(t, out, "id int PK")
	assert.Contains(t, out, "born_at datetime NULL")
	assert.Contains(t, out, "parent ||--|| child : extends")
	assert.Contains(t, out, "parent ||--o{ child : vertical_same_as")
}

func TestMarkdownRender(t *testing.T) {
	r := verticalResult(t)
	out := NewMarkdownRenderer().Render(r)

	assert.Contains(t, out, "# 数据库关系文档")
	assert.Contains(t, out, "### parent")
	assert.Contains(t, out, "### child")
	assert.Contains(t, out, "扩展链: parent")
	assert.Contains(t, out, "**扩展**")
	assert.Contains(t, out, "**纵向同值**")

	// 祖先在前
	assert.Less(t, strings.Index(out, "### parent"), strings.Index(out, "### child"))
}
