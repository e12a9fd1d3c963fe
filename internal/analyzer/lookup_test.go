package analyzer

import (
	"testing"

	"schema-relations/internal/adapter"
)

func TestDetectLookupTables(t *testing.T) {
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{
				Name:       "order_status",
				PrimaryKey: []string{"code"},
				Columns: []adapter.Column{
					{Name: "code", DataType: "varchar", Length: 16, IsPrimaryKey: true},
				},
			},
			{
				// 单列但数值主键，不算码表
				Name:       "counter",
				PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
				},
			},
			{
				// 文本主键但多列，不算码表
				Name:       "country",
				PrimaryKey: []string{"code"},
				Columns: []adapter.Column{
					{Name: "code", DataType: "char", Length: 2, IsPrimaryKey: true},
					{Name: "name", DataType: "varchar", Length: 100},
				},
			},
			{
				// 无人引用的单列文本主键，孤立表不算
				Name:       "unused_tag",
				PrimaryKey: []string{"tag"},
				Columns: []adapter.Column{
					{Name: "tag", DataType: "varchar", Length: 32, IsPrimaryKey: true},
				},
			},
			{
				Name:       "order",
				PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "status", DataType: "varchar", Length: 16},
				},
			},
		},
	}
	fks := []adapter.ForeignKey{
		{Name: "fk_order_status", FromTable: "order", FromColumns: []string{"status"},
			ToTable: "order_status", ToColumns: []string{"code"}},
	}

	lookups := NewLookupDetector().DetectLookupTables(meta, fks)
	if len(lookups) != 1 {
		t.Fatalf("expected 1 lookup table, got %d", len(lookups))
	}
	if lookups[0].Name != "order_status" || lookups[0].KeyColumn != "code" {
		t.Errorf("unexpected lookup %+v", lookups[0])
	}
	if len(lookups[0].ReferencedBy) != 1 || lookups[0].ReferencedBy[0] != "order" {
		t.Errorf("unexpected referencers %v", lookups[0].ReferencedBy)
	}
}

func TestLookupRequiresRootReferencer(t *testing.T) {
	// child 的主键整体引用 parent（扩展边），child 不是根表；
	// 只被 child 引用的单列文本主键表不算码表
	meta := &adapter.SchemaMetadata{
		Tables: []adapter.Table{
			{
				Name:       "parent",
				PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
				},
			},
			{
				Name:       "child",
				PrimaryKey: []string{"id"},
				Columns: []adapter.Column{
					{Name: "id", DataType: "int", IsPrimaryKey: true},
					{Name: "flag", DataType: "varchar", Length: 16},
				},
			},
			{
				Name:       "flag",
				PrimaryKey: []string{"code"},
				Columns: []adapter.Column{
					{Name: "code", DataType: "varchar", Length: 16, IsPrimaryKey: true},
				},
			},
		},
	}
	fks := []adapter.ForeignKey{
		{Name: "fk_ext", FromTable: "child", FromColumns: []string{"id"},
			ToTable: "parent", ToColumns: []string{"id"}},
		{Name: "fk_flag", FromTable: "child", FromColumns: []string{"flag"},
			ToTable: "flag", ToColumns: []string{"code"}},
	}

	if lookups := NewLookupDetector().DetectLookupTables(meta, fks); len(lookups) != 0 {
		t.Fatalf("expected no lookup tables, got %d", len(lookups))
	}

	// parent（根表）也引用后即算码表，且引用方只计根表
	meta.Tables[0].Columns = append(meta.Tables[0].Columns,
		adapter.Column{Name: "flag", DataType: "varchar", Length: 16})
	fks = append(fks, adapter.ForeignKey{
		Name: "fk_parent_flag", FromTable: "parent", FromColumns: []string{"flag"},
		ToTable: "flag", ToColumns: []string{"code"}})

	lookups := NewLookupDetector().DetectLookupTables(meta, fks)
	if len(lookups) != 1 {
		t.Fatalf("expected 1 lookup table, got %d", len(lookups))
	}
	if len(lookups[0].ReferencedBy) != 1 || lookups[0].ReferencedBy[0] != "parent" {
		t.Errorf("expected only root referencer, got %v", lookups[0].ReferencedBy)
	}
}

func TestIsTextualType(t *testing.T) {
	tests := []struct {
		dataType string
		expected bool
	}{
		{"varchar", true},
		{"NVARCHAR", true},
		{"character varying", true},
		{"int", false},
		{"datetime", false},
	}

	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			if got := isTextualType(tt.dataType); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
