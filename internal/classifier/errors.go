package classifier

import (
	"fmt"
	"strings"
)

// CyclicExtensionError 扩展边成环，环上各表无法分类
type CyclicExtensionError struct {
	Path []string // 表名，按沿环行走的顺序，首尾相接
}

func (e *CyclicExtensionError) Error() string {
	return fmt.Sprintf("扩展关系成环: %s", strings.Join(e.Path, " -> "))
}

// ConflictingExtensionError 同一张表出现多个候选扩展边
type ConflictingExtensionError struct {
	Table       string
	ForeignKeys []string // 候选外键名
}

func (e *ConflictingExtensionError) Error() string {
	return fmt.Sprintf("表 %s 存在 %d 个候选扩展外键 (%s)，无法确定唯一祖先",
		e.Table, len(e.ForeignKeys), strings.Join(e.ForeignKeys, ", "))
}
