package classifier

import "schema-relations/internal/schema"

// Tag 单个外键的分类标签
type Tag string

const (
	// TagExtension 主键到主键的扩展（继承式）关系
	TagExtension Tag = "extension"
	// TagVerticalSameAs 与扩展祖先之间的字段重复
	TagVerticalSameAs Tag = "vertical_same_as"
	// TagHorizontalSameAs 与无祖先关系的表之间的字段重复
	TagHorizontalSameAs Tag = "horizontal_same_as"
	// TagMultiColumnSameAs 一个外键同时编码多个字段重复
	TagMultiColumnSameAs Tag = "multi_column_same_as"
	// TagAmbiguous 多个唯一约束各自产生合法匹配，需人工消歧
	TagAmbiguous Tag = "ambiguous"
	// TagPlainReference 普通引用，不属于以上任何类别
	TagPlainReference Tag = "plain_reference"
)

// ColumnPair 引用方列与被引用方列的对应
type ColumnPair struct {
	Column    string // 引用方列
	RefColumn string // 被引用方列
}

// Candidate 歧义分类中的一个候选匹配
type Candidate struct {
	Unique []string // 产生匹配的唯一列集
	Pairs  []ColumnPair
}

// Classification 单个外键的分类结果
type Classification struct {
	ForeignKey int // Snapshot.ForeignKeys 下标
	Tag        Tag
	Pairs      []ColumnPair // vertical/horizontal 恰一对，multi 多对
	Candidates []Candidate  // 仅 ambiguous
}

// Extension 扩展关系 Child -> Ancestor
type Extension struct {
	ForeignKey int
	Child      schema.TableID
	Ancestor   schema.TableID
}

// Triangular 三角等价：Child 经扩展链到达 Ancestor，
// 同时经 Bridge 间接到达同一 Ancestor。
type Triangular struct {
	Child    schema.TableID
	Bridge   schema.TableID
	Ancestor schema.TableID

	ChildToBridge    int // Child 引用 Bridge 的外键下标
	BridgeToAncestor int // Bridge 引用 Ancestor 的外键下标

	// Mandatory 数据库是否通过复合外键强制两条路径落在同一行
	Mandatory  bool
	EnforcedBy int // mandatory 时的复合外键下标，否则 -1
}

// Result 一次分类运行的全部产出，对快照而言是纯函数
type Result struct {
	Snapshot *schema.Snapshot

	// Classifications 与 Snapshot.ForeignKeys 对齐；
	// 所在表分类失败的外键保留零值 Tag
	Classifications []Classification

	Extensions  []Extension
	Triangulars []Triangular

	// Ancestry 每张表沿扩展边向上的祖先链（近祖先在前），按表下标对齐
	Ancestry [][]schema.TableID

	// TableErrors 分类失败的表（成环或扩展冲突）
	TableErrors map[schema.TableID]error
}

// AncestorChain 表的祖先链
func (r *Result) AncestorChain(id schema.TableID) []schema.TableID {
	return r.Ancestry[id]
}

// HasExtensionRelation a 与 b 之间（任一方向）是否存在扩展关系
func (r *Result) HasExtensionRelation(a, b schema.TableID) bool {
	for _, anc := range r.Ancestry[a] {
		if anc == b {
			return true
		}
	}
	for _, anc := range r.Ancestry[b] {
		if anc == a {
			return true
		}
	}
	return false
}

// GenerationOrder 下游生成顺序：祖先先于后代。
// 扩展链上每张表的祖先链严格短于其后代，按链长排序即得拓扑序。
func (r *Result) GenerationOrder() []schema.TableID {
	order := make([]schema.TableID, len(r.Snapshot.Tables))
	for i := range order {
		order[i] = schema.TableID(i)
	}
	for i := 1; i < len(order); i++ {
		for j := i; j > 0; j-- {
			a, b := order[j-1], order[j]
			da, db := len(r.Ancestry[a]), len(r.Ancestry[b])
			if da > db || (da == db && r.Snapshot.Table(a).Name > r.Snapshot.Table(b).Name) {
				order[j-1], order[j] = b, a
			} else {
				break
			}
		}
	}
	return order
}
