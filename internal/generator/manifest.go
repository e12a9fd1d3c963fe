package generator

import (
	"strings"

	"gopkg.in/yaml.v3"

	"schema-relations/internal/analyzer"
	"schema-relations/internal/classifier"
)

// Manifest 构建清单：下游构建系统按此顺序与约束生成/编译产物
type Manifest struct {
	GenerationOrder []string         `yaml:"generation_order"`
	Tables          []ManifestTable  `yaml:"tables"`
	Triangulars     []ManifestTri    `yaml:"triangulars,omitempty"`
	Lookups         []ManifestLookup `yaml:"lookups,omitempty"`
}

// ManifestTable 单表条目
type ManifestTable struct {
	Name        string       `yaml:"name"`
	Ancestors   []string     `yaml:"ancestors,omitempty"`
	Error       string       `yaml:"error,omitempty"`
	ForeignKeys []ManifestFK `yaml:"foreign_keys,omitempty"`
}

// ManifestFK 外键分类条目
type ManifestFK struct {
	Name       string   `yaml:"name"`
	Target     string   `yaml:"target"`
	Tag        string   `yaml:"tag"`
	Pairs      []string `yaml:"pairs,omitempty"`
	Candidates []string `yaml:"candidates,omitempty"`
}

// ManifestLookup 码表条目
type ManifestLookup struct {
	Name         string   `yaml:"name"`
	KeyColumn    string   `yaml:"key_column"`
	ReferencedBy []string `yaml:"referenced_by"`
}

// ManifestTri 三角等价条目
type ManifestTri struct {
	Child      string `yaml:"child"`
	Bridge     string `yaml:"bridge"`
	Ancestor   string `yaml:"ancestor"`
	Mandatory  bool   `yaml:"mandatory"`
	EnforcedBy string `yaml:"enforced_by,omitempty"`
}

// BuildManifest 由分类结果与码表检测结果构造清单
func BuildManifest(r *classifier.Result, lookups []analyzer.LookupTable) *Manifest {
	s := r.Snapshot
	m := &Manifest{}

	for _, l := range lookups {
		m.Lookups = append(m.Lookups, ManifestLookup{
			Name:         l.Name,
			KeyColumn:    l.KeyColumn,
			ReferencedBy: l.ReferencedBy,
		})
	}

	for _, id := range r.GenerationOrder() {
		table := s.Table(id)
		m.GenerationOrder = append(m.GenerationOrder, table.Name)

		entry := ManifestTable{Name: table.Name}
		for _, anc := range r.AncestorChain(id) {
			entry.Ancestors = append(entry.Ancestors, s.Table(anc).Name)
		}
		if err, bad := r.TableErrors[id]; bad {
			entry.Error = err.Error()
		}

		for _, fkIdx := range table.ForeignKeys {
			c := r.Classifications[fkIdx]
			fk := &s.ForeignKeys[fkIdx]
			mfk := ManifestFK{
				Name:   fk.Name,
				Target: s.Table(fk.RefTable).Name,
				Tag:    string(c.Tag),
			}
			for _, p := range c.Pairs {
				mfk.Pairs = append(mfk.Pairs, p.Column+"="+p.RefColumn)
			}
			for _, cand := range c.Candidates {
				mfk.Candidates = append(mfk.Candidates, strings.Join(cand.Unique, "+"))
			}
			entry.ForeignKeys = append(entry.ForeignKeys, mfk)
		}
		m.Tables = append(m.Tables, entry)
	}

	for _, tri := range r.Triangulars {
		entry := ManifestTri{
			Child:     s.Table(tri.Child).Name,
			Bridge:    s.Table(tri.Bridge).Name,
			Ancestor:  s.Table(tri.Ancestor).Name,
			Mandatory: tri.Mandatory,
		}
		if tri.EnforcedBy >= 0 {
			entry.EnforcedBy = s.ForeignKeys[tri.EnforcedBy].Name
		}
		m.Triangulars = append(m.Triangulars, entry)
	}

	return m
}

// Marshal 序列化为 YAML
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
