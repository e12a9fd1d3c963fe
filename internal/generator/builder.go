package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"schema-relations/internal/analyzer"
	"schema-relations/internal/classifier"
	"schema-relations/internal/schema"
)

// BuilderGenerator 类型化构建器代码生成器：
// 按"祖先先于后代"的顺序为每张表输出一个 Go 源文件，
// 含行结构体与链式构建器；分类结果决定注释与校验。
type BuilderGenerator struct {
	Package string
}

// NewBuilderGenerator 创建生成器
func NewBuilderGenerator(pkg string) *BuilderGenerator {
	if pkg == "" {
		pkg = "models"
	}
	return &BuilderGenerator{Package: pkg}
}

// Generate 生成全部源文件，返回 文件名 -> 源码。
// 码表输出枚举式键类型，其余表输出行结构体与链式构建器。
func (g *BuilderGenerator) Generate(r *classifier.Result, lookups []analyzer.LookupTable) map[string]string {
	files := make(map[string]string)
	s := r.Snapshot

	lookupKey := make(map[string]string, len(lookups))
	for _, l := range lookups {
		lookupKey[l.Name] = l.KeyColumn
	}

	// 列对齐的同值注释: "table.column" -> 说明
	sameAs := make(map[string]string)
	for _, c := range r.Classifications {
		fk := &s.ForeignKeys[c.ForeignKey]
		from := s.Table(fk.Table).Name
		to := s.Table(fk.RefTable).Name
		switch c.Tag {
		case classifier.TagVerticalSameAs, classifier.TagHorizontalSameAs, classifier.TagMultiColumnSameAs:
			for _, p := range c.Pairs {
				sameAs[from+"."+p.Column] = fmt.Sprintf("与 %s.%s 同值（外键 %s）", to, p.RefColumn, fk.Name)
			}
		}
	}

	// mandatory 三角: 子表 -> 说明列表
	mandatory := make(map[schema.TableID][]string)
	for _, tri := range r.Triangulars {
		if !tri.Mandatory {
			continue
		}
		mandatory[tri.Child] = append(mandatory[tri.Child], fmt.Sprintf(
			"经 %s 中转与直达 %s 的路径由外键 %s 强制一致",
			s.Table(tri.Bridge).Name, s.Table(tri.Ancestor).Name, s.ForeignKeys[tri.EnforcedBy].Name))
	}

	for _, id := range r.GenerationOrder() {
		if _, bad := r.TableErrors[id]; bad {
			continue // 分类失败的表不生成
		}
		table := s.Table(id)
		if key, ok := lookupKey[table.Name]; ok {
			files[table.Name+".go"] = g.renderLookup(table, key)
			continue
		}
		files[table.Name+".go"] = g.renderTable(r, table, sameAs, mandatory[id])
	}
	return files
}

// renderLookup 码表源码：键列落为命名字符串类型，取值由库中行给出
func (g *BuilderGenerator) renderLookup(table *schema.Table, key string) string {
	typeName := goTypeName(table.Name)
	var sb strings.Builder

	sb.WriteString("// Code generated by schema-relations. DO NOT EDIT.\n\n")
	sb.WriteString(fmt.Sprintf("package %s\n\n", g.Package))

	sb.WriteString(fmt.Sprintf("// %s 码表 %s 的取值，键列 %s\n", typeName, table.QualifiedName(), key))
	sb.WriteString(fmt.Sprintf("type %s string\n\n", typeName))
	sb.WriteString(fmt.Sprintf("// New%s 由键值构造\nfunc New%s(v string) %s {\n\treturn %s(v)\n}\n",
		typeName, typeName, typeName, typeName))

	return sb.String()
}

// renderTable 单表源码
func (g *BuilderGenerator) renderTable(r *classifier.Result, table *schema.Table, sameAs map[string]string, notes []string) string {
	s := r.Snapshot
	typeName := goTypeName(table.Name)
	var sb strings.Builder

	sb.WriteString("// Code generated by schema-relations. DO NOT EDIT.\n\n")
	sb.WriteString(fmt.Sprintf("package %s\n\n", g.Package))

	if needsTime(table) {
		sb.WriteString("import \"time\"\n\n")
	}

	// 行结构体
	sb.WriteString(fmt.Sprintf("// %s 对应表 %s\n", typeName, table.QualifiedName()))
	if chain := r.AncestorChain(table.ID); len(chain) > 0 {
		var names []string
		for _, anc := range chain {
			names = append(names, goTypeName(s.Table(anc).Name))
		}
		sb.WriteString(fmt.Sprintf("// 扩展自 %s\n", strings.Join(names, " -> ")))
	}
	for _, note := range notes {
		sb.WriteString(fmt.Sprintf("// 约束: %s\n", note))
	}
	sb.WriteString(fmt.Sprintf("type %s struct {\n", typeName))
	for _, col := range table.Columns {
		comment := ""
		if text, ok := sameAs[table.Name+"."+col.Name]; ok {
			comment = " // " + text
		}
		sb.WriteString(fmt.Sprintf("\t%s %s%s\n", goFieldName(col.Name), goType(col), comment))
	}
	sb.WriteString("}\n\n")

	// 构建器
	builderName := typeName + "Builder"
	sb.WriteString(fmt.Sprintf("// %s %s 行构建器\n", builderName, table.Name))
	sb.WriteString(fmt.Sprintf("type %s struct {\n\trow %s\n}\n\n", builderName, typeName))
	sb.WriteString(fmt.Sprintf("// New%s 创建构建器\nfunc New%s() *%s {\n\treturn &%s{}\n}\n\n",
		builderName, builderName, builderName, builderName))

	for _, col := range table.Columns {
		field := goFieldName(col.Name)
		if text, ok := sameAs[table.Name+"."+col.Name]; ok {
			sb.WriteString(fmt.Sprintf("// %s %s\n", field, text))
		}
		sb.WriteString(fmt.Sprintf("func (b *%s) %s(v %s) *%s {\n\tb.row.%s = v\n\treturn b\n}\n\n",
			builderName, field, goType(col), builderName, field))
	}

	sb.WriteString(fmt.Sprintf("// Build 取出构建结果\nfunc (b *%s) Build() %s {\n\treturn b.row\n}\n",
		builderName, typeName))

	return sb.String()
}

// goTypeName 表名 -> 导出类型名（单数化）
func goTypeName(table string) string {
	return exportedCamel(inflection.Singular(table))
}

// goFieldName 列名 -> 导出字段名
func goFieldName(column string) string {
	return exportedCamel(column)
}

// exportedCamel 下划线命名转导出驼峰，ID 等缩写大写
func exportedCamel(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	var sb strings.Builder
	for _, part := range parts {
		switch strings.ToLower(part) {
		case "id":
			sb.WriteString("ID")
		case "url":
			sb.WriteString("URL")
		case "uuid":
			sb.WriteString("UUID")
		default:
			sb.WriteString(strings.ToUpper(part[:1]) + strings.ToLower(part[1:]))
		}
	}
	return sb.String()
}

// goType SQL 标量类型到 Go 类型的最小映射，可空列用指针
func goType(col schema.Column) string {
	t := baseGoType(col.DataType)
	if col.Nullable {
		return "*" + t
	}
	return t
}

func baseGoType(dataType string) string {
	switch strings.ToLower(dataType) {
	case "int", "integer", "bigint", "serial", "bigserial":
		return "int64"
	case "smallint", "tinyint":
		return "int32"
	case "real", "float", "double", "double precision", "numeric", "decimal":
		return "float64"
	case "bool", "boolean", "bit":
		return "bool"
	case "date", "time", "datetime", "datetime2", "timestamp",
		"timestamp with time zone", "timestamp without time zone":
		return "time.Time"
	case "blob", "bytea", "varbinary", "binary":
		return "[]byte"
	}
	return "string"
}

// needsTime 表中是否有时间类型列
func needsTime(table *schema.Table) bool {
	for _, col := range table.Columns {
		if baseGoType(col.DataType) == "time.Time" {
			return true
		}
	}
	return false
}

// SortedFileNames 生成文件名的稳定排序，便于落盘与测试
func SortedFileNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
