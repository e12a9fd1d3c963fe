package adapter

import "fmt"

// MemoryAdapter 内存适配器：以解析好的元数据作为事实来源，
// 与连接真实数据库的适配器实现同一能力面，供测试与离线分析使用。
type MemoryAdapter struct {
	Meta        *SchemaMetadata
	ForeignKeys []ForeignKey
	RowCounts   map[string]int64
	Stats       map[string]*ColumnStats // "table.column" -> 统计
}

// NewMemoryAdapter 创建内存适配器
func NewMemoryAdapter(meta *SchemaMetadata, fks []ForeignKey) *MemoryAdapter {
	return &MemoryAdapter{
		Meta:        meta,
		ForeignKeys: fks,
		RowCounts:   make(map[string]int64),
		Stats:       make(map[string]*ColumnStats),
	}
}

// IntrospectSchema 获取元数据
func (a *MemoryAdapter) IntrospectSchema() (*SchemaMetadata, error) {
	return a.Meta, nil
}

// GetForeignKeys 获取外键约束
func (a *MemoryAdapter) GetForeignKeys() ([]ForeignKey, error) {
	return a.ForeignKeys, nil
}

// EstimateRowCount 估算行数
func (a *MemoryAdapter) EstimateRowCount(table string) (int64, error) {
	return a.RowCounts[table], nil
}

// SampleColumnStats 采样列统计
func (a *MemoryAdapter) SampleColumnStats(table, column string, sampleSize int) (*ColumnStats, error) {
	if stats, ok := a.Stats[table+"."+column]; ok {
		return stats, nil
	}
	return nil, fmt.Errorf("没有 %s.%s 的统计数据", table, column)
}

// Close 关闭连接
func (a *MemoryAdapter) Close() error {
	return nil
}
