package adapter

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLAdapter MySQL 适配器
type MySQLAdapter struct {
	db     *sql.DB
	schema string
}

// NewMySQLAdapter 创建 MySQL 适配器
func NewMySQLAdapter(connStr, schema string) (*MySQLAdapter, error) {
	db, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &MySQLAdapter{db: db, schema: schema}, nil
}

// IntrospectSchema 获取元数据
func (a *MySQLAdapter) IntrospectSchema() (*SchemaMetadata, error) {
	meta := &SchemaMetadata{}

	tables, err := a.getTables()
	if err != nil {
		return nil, err
	}

	for i := range tables {
		columns, err := a.getColumns(tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = columns

		pk, err := a.getPrimaryKey(tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].PrimaryKey = pk

		uniques, err := a.getUniques(tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Uniques = uniques
	}

	meta.Tables = tables
	return meta, nil
}

func (a *MySQLAdapter) getTables() ([]Table, error) {
	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`
	rows, err := a.db.Query(query, a.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var t Table
		t.Schema = a.schema
		if err := rows.Scan(&t.Name); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (a *MySQLAdapter) getColumns(table string) ([]Column, error) {
	query := `
		SELECT 
			COLUMN_NAME,
			DATA_TYPE,
			COALESCE(CHARACTER_MAXIMUM_LENGTH, 0),
			IS_NULLABLE = 'YES',
			COLUMN_KEY = 'PRI'
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := a.db.Query(query, a.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &c.Nullable, &c.IsPrimaryKey); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (a *MySQLAdapter) getPrimaryKey(table string) ([]string, error) {
	query := `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY ORDINAL_POSITION
	`
	rows, err := a.db.Query(query, a.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (a *MySQLAdapter) getUniques(table string) ([]UniqueConstraint, error) {
	query := `
		SELECT INDEX_NAME, COLUMN_NAME
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
			AND NON_UNIQUE = 0 AND INDEX_NAME != 'PRIMARY'
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := a.db.Query(query, a.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uniques []UniqueConstraint
	byName := make(map[string]int)
	for rows.Next() {
		var indexName, columnName string
		if err := rows.Scan(&indexName, &columnName); err != nil {
			return nil, err
		}
		if i, exists := byName[indexName]; exists {
			uniques[i].Columns = append(uniques[i].Columns, columnName)
		} else {
			byName[indexName] = len(uniques)
			uniques = append(uniques, UniqueConstraint{Name: indexName, Columns: []string{columnName}})
		}
	}
	return uniques, rows.Err()
}

// GetForeignKeys 获取外键约束
func (a *MySQLAdapter) GetForeignKeys() ([]ForeignKey, error) {
	query := `
		SELECT 
			kcu.CONSTRAINT_NAME,
			kcu.TABLE_NAME,
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		WHERE kcu.TABLE_SCHEMA = ? 
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.TABLE_NAME, kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`
	rows, err := a.db.Query(query, a.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	byName := make(map[string]int)
	for rows.Next() {
		var name, fromTable, fromColumn, toTable, toColumn string
		if err := rows.Scan(&name, &fromTable, &fromColumn, &toTable, &toColumn); err != nil {
			return nil, err
		}

		key := fromTable + "." + name
		if i, exists := byName[key]; exists {
			fks[i].FromColumns = append(fks[i].FromColumns, fromColumn)
			fks[i].ToColumns = append(fks[i].ToColumns, toColumn)
		} else {
			byName[key] = len(fks)
			fks = append(fks, ForeignKey{
				Name:        name,
				FromTable:   fromTable,
				FromColumns: []string{fromColumn},
				ToTable:     toTable,
				ToColumns:   []string{toColumn},
			})
		}
	}
	return fks, rows.Err()
}

// EstimateRowCount 估算行数
func (a *MySQLAdapter) EstimateRowCount(table string) (int64, error) {
	query := `
		SELECT TABLE_ROWS
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
	`
	var count sql.NullInt64
	err := a.db.QueryRow(query, a.schema, table).Scan(&count)
	if err != nil {
		return 0, err
	}
	if !count.Valid {
		return 0, nil
	}
	return count.Int64, nil
}

// SampleColumnStats 采样列统计
func (a *MySQLAdapter) SampleColumnStats(table, column string, sampleSize int) (*ColumnStats, error) {
	stats := &ColumnStats{}

	query := fmt.Sprintf(`
		SELECT 
			COUNT(*) as total,
			SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END) as nulls,
			COUNT(DISTINCT %s) as distincts
		FROM (SELECT %s FROM %s LIMIT %d) sample
	`, column, column, column, table, sampleSize)

	err := a.db.QueryRow(query).Scan(&stats.TotalRows, &stats.NullCount, &stats.DistinctCount)
	if err != nil {
		return nil, err
	}

	topQuery := fmt.Sprintf(`
		SELECT %s, COUNT(*) as cnt
		FROM (SELECT %s FROM %s ORDER BY RAND() LIMIT %d) sample
		WHERE %s IS NOT NULL
		GROUP BY %s
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
func (a *MySQLAdapter) Close() error {
	return a.db.Close()
}
