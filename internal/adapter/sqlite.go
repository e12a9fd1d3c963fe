package adapter

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAdapter SQLite 适配器（基于 PRAGMA 元数据）
type SQLiteAdapter struct {
	db *sql.DB
}

// NewSQLiteAdapter 创建 SQLite 适配器
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &SQLiteAdapter{db: db}, nil
}

// IntrospectSchema 获取元数据
func (a *SQLiteAdapter) IntrospectSchema() (*SchemaMetadata, error) {
	meta := &SchemaMetadata{}

	names, err := a.getTableNames()
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		t := Table{Schema: "main", Name: name}

		columns, pk, err := a.getColumns(name)
		if err != nil {
			return nil, err
		}
		t.Columns = columns
		t.PrimaryKey = pk

		uniques, err := a.getUniques(name)
		if err != nil {
			return nil, err
		}
		t.Uniques = uniques

		meta.Tables = append(meta.Tables, t)
	}

	return meta, nil
}

func (a *SQLiteAdapter) getTableNames() ([]string, error) {
	query := `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`
	rows, err := a.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (a *SQLiteAdapter) getColumns(table string) ([]Column, []string, error) {
	rows, err := a.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	// pk 序号 -> 列名，PRAGMA 的 pk 字段给出主键内的位置（从 1 开始）
	pkByOrdinal := make(map[int]string)
	for rows.Next() {
		var cid, notNull, pkOrdinal int
		var c Column
		if err := rows.Scan(&cid, &c.Name, &c.DataType, &notNull, &c.DefaultValue, &pkOrdinal); err != nil {
			return nil, nil, err
		}
		c.Nullable = notNull == 0
		c.IsPrimaryKey = pkOrdinal > 0
		if pkOrdinal > 0 {
			pkByOrdinal[pkOrdinal] = c.Name
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pk := make([]string, 0, len(pkByOrdinal))
	for i := 1; i <= len(pkByOrdinal); i++ {
		pk = append(pk, pkByOrdinal[i])
	}
	return columns, pk, nil
}

func (a *SQLiteAdapter) getUniques(table string) ([]UniqueConstraint, error) {
	rows, err := a.db.Query(fmt.Sprintf("PRAGMA index_list(%q)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type indexEntry struct {
		name   string
		origin string
	}
	var entries []indexEntry
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}
		if unique == 1 && origin != "pk" {
			entries = append(entries, indexEntry{name: name, origin: origin})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var uniques []UniqueConstraint
	for _, entry := range entries {
		cols, err := a.getIndexColumns(entry.name)
		if err != nil {
			return nil, err
		}
		uniques = append(uniques, UniqueConstraint{Name: entry.name, Columns: cols})
	}
	return uniques, nil
}

func (a *SQLiteAdapter) getIndexColumns(index string) ([]string, error) {
	rows, err := a.db.Query(fmt.Sprintf("PRAGMA index_info(%q)", index))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var seqno, cid int
		var name string
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// GetForeignKeys 获取外键约束（SQLite 外键无名称，按表名与序号合成）
func (a *SQLiteAdapter) GetForeignKeys() ([]ForeignKey, error) {
	names, err := a.getTableNames()
	if err != nil {
		return nil, err
	}

	// 目标表主键，用于补全省略被引用列的外键声明
	pkMap := make(map[string][]string)
	for _, name := range names {
		_, pk, err := a.getColumns(name)
		if err != nil {
			return nil, err
		}
		pkMap[name] = pk
	}

	var fks []ForeignKey
	for _, table := range names {
		rows, err := a.db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
		if err != nil {
			return nil, err
		}

		byID := make(map[int]int)
		for rows.Next() {
			var id, seq int
			var toTable, from string
			var to sql.NullString
			var onUpdate, onDelete, match string
			if err := rows.Scan(&id, &seq, &toTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
				rows.Close()
				return nil, err
			}

			toColumn := to.String
			if !to.Valid {
				// REFERENCES parent 省略列名时指向主键
				if pk := pkMap[toTable]; seq < len(pk) {
					toColumn = pk[seq]
				}
			}

			if i, exists := byID[id]; exists {
				fks[i].FromColumns = append(fks[i].FromColumns, from)
				fks[i].ToColumns = append(fks[i].ToColumns, toColumn)
			} else {
				byID[id] = len(fks)
				fks = append(fks, ForeignKey{
					Name:        fmt.Sprintf("fk_%s_%d", table, id),
					FromTable:   table,
					FromColumns: []string{from},
					ToTable:     toTable,
					ToColumns:   []string{toColumn},
				})
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return fks, nil
}

// EstimateRowCount 估算行数
func (a *SQLiteAdapter) EstimateRowCount(table string) (int64, error) {
	var count int64
	err := a.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", table)).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SampleColumnStats 采样列统计
func (a *SQLiteAdapter) SampleColumnStats(table, column string, sampleSize int) (*ColumnStats, error) {
	stats := &ColumnStats{}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			SUM(CASE WHEN %q IS NULL THEN 1 ELSE 0 END),
			COUNT(DISTINCT %q)
		FROM (SELECT %q FROM %q LIMIT %d)
	`, column, column, column, table, sampleSize)

	var nulls sql.NullInt64
	err := a.db.QueryRow(query).Scan(&stats.TotalRows, &nulls, &stats.DistinctCount)
	if err != nil {
		return nil, err
	}
	stats.NullCount = nulls.Int64

	topQuery := fmt.Sprintf(`
		SELECT %q, COUNT(*) as cnt
		FROM (SELECT %q FROM %q LIMIT %d)
		WHERE %q IS NOT NULL
		GROUP BY %q
		ORDER BY cnt DESC
		LIMIT 10
	`, column, column, table, sampleSize, column, column)

	rows, err := a.db.Query(topQuery)
	if err != nil {
		return stats, nil
	}
	defer rows.Close()

	for rows.Next() {
		var vc ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			continue
		}
		stats.TopValues = append(stats.TopValues, vc)
	}

	return stats, nil
}

// Close 关闭连接
func (a *SQLiteAdapter) Close() error {
	return a.db.Close()
}
