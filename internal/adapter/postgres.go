package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresAdapter PostgreSQL 适配器
type PostgresAdapter struct {
	conn   *pgx.Conn
	schema string
}

// NewPostgresAdapter 创建 PostgreSQL 适配器
func NewPostgresAdapter(connStr, schema string) (*PostgresAdapter, error) {
	conn, err := pgx.Connect(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("连接 PostgreSQL 失败: %w", err)
	}
	if schema == "" {
		schema = "public"
	}
	return &PostgresAdapter{conn: conn, schema: schema}, nil
}

// IntrospectSchema 获取元数据
func (a *PostgresAdapter) IntrospectSchema() (*SchemaMetadata, error) {
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

		pk, err := a.getKeyColumns(tables[i].Name, "PRIMARY KEY")
		if err != nil {
			return nil, err
		}
		tables[i].PrimaryKey = pk
		for j := range tables[i].Columns {
			for _, k := range pk {
				if tables[i].Columns[j].Name == k {
					tables[i].Columns[j].IsPrimaryKey = true
				}
			}
		}

		uniques, err := a.getUniques(tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Uniques = uniques
	}

	meta.Tables = tables
	return meta, nil
}

func (a *PostgresAdapter) getTables() ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := a.conn.Query(context.Background(), query, a.schema)
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

func (a *PostgresAdapter) getColumns(table string) ([]Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			COALESCE(character_maximum_length, 0),
			is_nullable = 'YES',
			column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`
	rows, err := a.conn.Query(context.Background(), query, a.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		var def *string
		if err := rows.Scan(&c.Name, &c.DataType, &c.Length, &c.Nullable, &def); err != nil {
			return nil, err
		}
		if def != nil {
			c.DefaultValue = sql.NullString{String: *def, Valid: true}
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (a *PostgresAdapter) getKeyColumns(table, constraintType string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2
			AND tc.constraint_type = $3
		ORDER BY kcu.ordinal_position
	`
	rows, err := a.conn.Query(context.Background(), query, a.schema, table, constraintType)
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

func (a *PostgresAdapter) getUniques(table string) ([]UniqueConstraint, error) {
	query := `
		SELECT tc.constraint_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2
			AND tc.constraint_type = 'UNIQUE'
		ORDER BY tc.constraint_name, kcu.ordinal_position
	`
	rows, err := a.conn.Query(context.Background(), query, a.schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var uniques []UniqueConstraint
	byName := make(map[string]int)
	for rows.Next() {
		var name, column string
		if err := rows.Scan(&name, &column); err != nil {
			return nil, err
		}
		if i, exists := byName[name]; exists {
			uniques[i].Columns = append(uniques[i].Columns, column)
		} else {
			byName[name] = len(uniques)
			uniques = append(uniques, UniqueConstraint{Name: name, Columns: []string{column}})
		}
	}
	return uniques, rows.Err()
}

// GetForeignKeys 获取外键约束（unnest 保证复合外键的列顺序）
func (a *PostgresAdapter) GetForeignKeys() ([]ForeignKey, error) {
	query := `
		SELECT
			con.conname,
			src.relname,
			att.attname,
			tgt.relname,
			fatt.attname
		FROM pg_constraint con
		JOIN pg_class src ON src.oid = con.conrelid
		JOIN pg_class tgt ON tgt.oid = con.confrelid
		JOIN pg_namespace ns ON ns.oid = src.relnamespace
		JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS cols(attnum, fattnum, ord) ON true
		JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = cols.attnum
		JOIN pg_attribute fatt ON fatt.attrelid = con.confrelid AND fatt.attnum = cols.fattnum
		WHERE con.contype = 'f' AND ns.nspname = $1
		ORDER BY src.relname, con.conname, cols.ord
	`
	rows, err := a.conn.Query(context.Background(), query, a.schema)
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
func (a *PostgresAdapter) EstimateRowCount(table string) (int64, error) {
	query := `
		SELECT COALESCE(c.reltuples::bigint, 0)
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relname = $2
	`
	var count int64
	err := a.conn.QueryRow(context.Background(), query, a.schema, table).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// SampleColumnStats 采样列统计
func (a *PostgresAdapter) SampleColumnStats(table, column string, sampleSize int) (*ColumnStats, error) {
	stats := &ColumnStats{}

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) - COUNT(%q),
			COUNT(DISTINCT %q)
		FROM (SELECT %q FROM %q.%q LIMIT %d) sample
	`, column, column, column, a.schema, table, sampleSize)

	err := a.conn.QueryRow(context.Background(), query).Scan(&stats.TotalRows, &stats.NullCount, &stats.DistinctCount)
	if err != nil {
		return nil, err
	}

	topQuery := fmt.Sprintf(`
		SELECT %q::text, COUNT(*) as cnt
		FROM (SELECT %q FROM %q.%q LIMIT %d) sample
		WHERE %q IS NOT NULL
		GROUP BY 1
		ORDER BY cnt DESC
		LIMIT 10
	`, column, column, a.schema, table, sampleSize, column)

	rows, err := a.conn.Query(context.Background(), topQuery)
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
func (a *PostgresAdapter) Close() error {
	return a.conn.Close(context.Background())
}
