package schema

import (
	"fmt"

	"schema-relations/internal/adapter"
)

// TableID 表在快照中的稳定下标
type TableID int

// Snapshot 模式快照：一次分类运行所依据的不可变事实集合。
// 表按下标存放，后续的祖先链与分类结果都以下标引用，避免重复查找。
type Snapshot struct {
	Tables      []Table
	ForeignKeys []ForeignKey

	byName map[string]TableID
}

// Table 表
type Table struct {
	ID         TableID
	Schema     string
	Name       string
	Columns    []Column
	PrimaryKey []string   // 有序主键列名
	Uniques    [][]string // 主键之外的唯一约束列集

	// ForeignKeys 本表作为引用方的外键（Snapshot.ForeignKeys 下标）
	ForeignKeys []int
}

// Column 列
type Column struct {
	Name         string
	DataType     string
	Length       int
	Nullable     bool
	IsPrimaryKey bool
}

// ForeignKey 外键，两侧列元组等长且按位置对应
type ForeignKey struct {
	Name       string
	Table      TableID
	Columns    []string
	RefTable   TableID
	RefColumns []string
}

// Build 由适配器元数据构建快照。
// 悬空引用与不等长元组属于事实提供方的模式错误，这里快速失败。
func Build(meta *adapter.SchemaMetadata, fks []adapter.ForeignKey) (*Snapshot, error) {
	s := &Snapshot{byName: make(map[string]TableID, len(meta.Tables))}

	for i, t := range meta.Tables {
		id := TableID(i)
		table := Table{
			ID:         id,
			Schema:     t.Schema,
			Name:       t.Name,
			PrimaryKey: append([]string(nil), t.PrimaryKey...),
		}
		for _, c := range t.Columns {
			table.Columns = append(table.Columns, Column{
				Name:         c.Name,
				DataType:     c.DataType,
				Length:       c.Length,
				Nullable:     c.Nullable,
				IsPrimaryKey: c.IsPrimaryKey,
			})
		}
		for _, u := range t.Uniques {
			table.Uniques = append(table.Uniques, append([]string(nil), u.Columns...))
		}
		s.Tables = append(s.Tables, table)
		s.byName[t.Name] = id
	}

	for _, fk := range fks {
		from, ok := s.byName[fk.FromTable]
		if !ok {
			return nil, fmt.Errorf("外键 %s: 引用方表 %s 不存在", fk.Name, fk.FromTable)
		}
		to, ok := s.byName[fk.ToTable]
		if !ok {
			return nil, fmt.Errorf("外键 %s: 被引用表 %s 不存在", fk.Name, fk.ToTable)
		}
		if len(fk.FromColumns) == 0 || len(fk.FromColumns) != len(fk.ToColumns) {
			return nil, fmt.Errorf("外键 %s: 列元组长度不合法 (%d vs %d)",
				fk.Name, len(fk.FromColumns), len(fk.ToColumns))
		}

		idx := len(s.ForeignKeys)
		s.ForeignKeys = append(s.ForeignKeys, ForeignKey{
			Name:       fk.Name,
			Table:      from,
			Columns:    append([]string(nil), fk.FromColumns...),
			RefTable:   to,
			RefColumns: append([]string(nil), fk.ToColumns...),
		})
		s.Tables[from].ForeignKeys = append(s.Tables[from].ForeignKeys, idx)
	}

	return s, nil
}

// TableByName 按名查表
func (s *Snapshot) TableByName(name string) (*Table, bool) {
	id, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Tables[id], true
}

// Table 按下标取表
func (s *Snapshot) Table(id TableID) *Table {
	return &s.Tables[id]
}

// QualifiedName 带 schema 前缀的表名
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// Column 按名查列
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// UniqueSets 表上全部唯一列集，主键在前
func (t *Table) UniqueSets() [][]string {
	var sets [][]string
	if len(t.PrimaryKey) > 0 {
		sets = append(sets, t.PrimaryKey)
	}
	sets = append(sets, t.Uniques...)
	return sets
}

// HasUniqueOn 是否存在恰好覆盖 columns 的唯一列集（不计顺序）
func (t *Table) HasUniqueOn(columns []string) bool {
	for _, set := range t.UniqueSets() {
		if sameColumnSet(set, columns) {
			return true
		}
	}
	return false
}

// sameColumnSet 两个列名集合是否相等（不计顺序）
func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, col := range a {
		seen[col] = true
	}
	for _, col := range b {
		if !seen[col] {
			return false
		}
	}
	return true
}
