package analyzer

import (
	"strings"

	"schema-relations/internal/adapter"
)

// LookupDetector 码表检测器：
// 单列文本主键、且被扩展层级的根表外键引用的表视为码表（取值列表），
// 生成器据此输出枚举式构建 API。只被子表（非根表）引用的不算。
type LookupDetector struct{}

// NewLookupDetector 创建检测器
func NewLookupDetector() *LookupDetector {
	return &LookupDetector{}
}

// LookupTable 码表
type LookupTable struct {
	Name         string
	KeyColumn    string
	ReferencedBy []string // 引用它的根表
}

// DetectLookupTables 检测码表
func (d *LookupDetector) DetectLookupTables(meta *adapter.SchemaMetadata, fks []adapter.ForeignKey) []LookupTable {
	roots := rootTables(meta, fks)

	// 被引用关系索引，只计根表发出的引用
	referencedBy := make(map[string][]string)
	for _, fk := range fks {
		if fk.FromTable != fk.ToTable && roots[fk.FromTable] {
			referencedBy[fk.ToTable] = append(referencedBy[fk.ToTable], fk.FromTable)
		}
	}

	var lookups []LookupTable
	for _, table := range meta.Tables {
		// 码表特征：恰好一列
		if len(table.Columns) != 1 {
			continue
		}
		col := table.Columns[0]

		// 该列必须是文本主键
		if !col.IsPrimaryKey || !isTextualType(col.DataType) {
			continue
		}

		// 必须有根表引用它，孤立表或只被子表引用的不算
		refs := referencedBy[table.Name]
		if len(refs) == 0 {
			continue
		}

		lookups = append(lookups, LookupTable{
			Name:         table.Name,
			KeyColumn:    col.Name,
			ReferencedBy: refs,
		})
	}

	return lookups
}

// rootTables 扩展层级的根表：不存在主键到主键扩展边向上的表
func rootTables(meta *adapter.SchemaMetadata, fks []adapter.ForeignKey) map[string]bool {
	pkByTable := make(map[string][]string, len(meta.Tables))
	for _, table := range meta.Tables {
		pkByTable[table.Name] = table.PrimaryKey
	}

	roots := make(map[string]bool, len(meta.Tables))
	for _, table := range meta.Tables {
		roots[table.Name] = true
	}
	for _, fk := range fks {
		if fk.FromTable == fk.ToTable {
			continue
		}
		if sameColumns(fk.FromColumns, pkByTable[fk.FromTable]) &&
			sameColumns(fk.ToColumns, pkByTable[fk.ToTable]) {
			roots[fk.FromTable] = false
		}
	}
	return roots
}

// sameColumns 列名集合相等（不计顺序）
func sameColumns(a, b []string) bool {
	if len(a) == 0 || len(a) != len(b) {
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

// isTextualType 判断是否文本类型
func isTextualType(dataType string) bool {
	textTypes := map[string]bool{
		"varchar": true, "nvarchar": true, "char": true, "nchar": true,
		"text": true, "character varying": true, "clob": true,
	}
	return textTypes[strings.ToLower(dataType)]
}
