package adapter

import "database/sql"

// DBAdapter 数据库适配器接口（Schema 事实提供方）
type DBAdapter interface {
	// IntrospectSchema 获取元数据（表、列、主键、唯一约束）
	IntrospectSchema() (*SchemaMetadata, error)

	// GetForeignKeys 获取外键约束（按约束名聚合为列元组）
	GetForeignKeys() ([]ForeignKey, error)

	// EstimateRowCount 估算行数
	EstimateRowCount(table string) (int64, error)

	// SampleColumnStats 采样列统计
	SampleColumnStats(table, column string, sampleSize int) (*ColumnStats, error)

	// Close 关闭连接
	Close() error
}

// SchemaMetadata 元数据
type SchemaMetadata struct {
	Tables []Table
}

// Table 表信息
type Table struct {
	Schema     string
	Name       string
	Columns    []Column
	PrimaryKey []string // 有序主键列名
	Uniques    []UniqueConstraint
}

// Column 列信息
type Column struct {
	Name         string
	DataType     string
	Length       int
	Nullable     bool
	IsPrimaryKey bool
	DefaultValue sql.NullString
}

// UniqueConstraint 唯一约束（主键之外的联合唯一列集）
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// ForeignKey 外键（引用列元组与被引用列元组按位置一一对应）
type ForeignKey struct {
	Name        string
	FromTable   string
	FromColumns []string
	ToTable     string
	ToColumns   []string
}

// ColumnStats 列统计
type ColumnStats struct {
	TotalRows     int64
	NullCount     int64
	DistinctCount int64
	TopValues     []ValueCount
	MinValue      sql.NullString
	MaxValue      sql.NullString
}

// ValueCount 值计数
type ValueCount struct {
	Value string
	Count int64
}
