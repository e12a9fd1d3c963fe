package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schema-relations/internal/adapter"
	"schema-relations/internal/analyzer"
	"schema-relations/internal/classifier"
	"schema-relations/internal/config"
	"schema-relations/internal/generator"
	"schema-relations/internal/graph"
	"schema-relations/internal/schema"
)

var (
	cfgPath    string
	dbType     string
	connStr    string
	dbSchema   string
	outputDir  string
	pkgName    string
	workers    int
	enableSugg bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "schema-relations",
		Short: "关系语义分类器",
		Long:  "从外键结构推断扩展/同值语义，驱动类型化数据访问代码生成",
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "扫描数据库，分类关系并生成产物",
		Run:   runScan,
	}

	scanCmd.Flags().StringVar(&cfgPath, "config", "", "配置文件路径 (YAML)")
	scanCmd.Flags().StringVar(&dbType, "type", "", "数据库类型 (postgres/mysql/sqlserver/sqlite)")
	scanCmd.Flags().StringVar(&connStr, "conn", "", "连接字符串")
	scanCmd.Flags().StringVar(&dbSchema, "schema", "", "数据库 schema (MySQL/PostgreSQL)")
	scanCmd.Flags().StringVar(&outputDir, "output", "", "输出目录")
	scanCmd.Flags().StringVar(&pkgName, "package", "", "生成代码的包名")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "分类并发度 (0 取 CPU 数)")
	scanCmd.Flags().BoolVar(&enableSugg, "suggest", false, "推测无声明外键库的候选外键")

	rootCmd.AddCommand(scanCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScan(cmd *cobra.Command, args []string) {
	zl, _ := zap.NewDevelopment()
	defer zl.Sync()
	log := zl.Sugar()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	// 命令行参数优先于配置文件
	if dbType != "" {
		cfg.Database.Type = dbType
	}
	if connStr != "" {
		cfg.Database.Conn = connStr
	}
	if dbSchema != "" {
		cfg.Database.Schema = dbSchema
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if pkgName != "" {
		cfg.Output.Package = pkgName
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if enableSugg {
		cfg.Suggest = true
	}
	if cfg.Database.Conn == "" {
		log.Fatal("缺少连接串，使用 --conn 或配置文件指定")
	}

	dbAdapter, err := openAdapter(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer dbAdapter.Close()
	log.Info("数据库连接成功")

	// 1. 获取元数据与外键
	meta, err := dbAdapter.IntrospectSchema()
	if err != nil {
		log.Fatalf("获取元数据失败: %v", err)
	}
	fks, err := dbAdapter.GetForeignKeys()
	if err != nil {
		log.Fatalf("获取外键失败: %v", err)
	}
	log.Infof("发现 %d 个表, %d 个外键", len(meta.Tables), len(fks))

	// 2. 构建不可变快照
	snap, err := schema.Build(meta, fks)
	if err != nil {
		log.Fatalf("构建快照失败: %v", err)
	}

	// 3. 分类
	result := classifier.ClassifyWithOptions(snap, classifier.Options{Workers: cfg.Workers})
	for id, terr := range result.TableErrors {
		log.Warnf("表 %s 分类失败: %v", snap.Table(id).QualifiedName(), terr)
	}
	log.Infof("扩展 %d 个, 三角等价 %d 个", len(result.Extensions), len(result.Triangulars))

	// 4. 物化结构图
	g := graph.BuildFromResult(result)

	// 5. 候选外键推测（可选）
	if cfg.Suggest {
		inferer := analyzer.NewCandidateInferer(dbAdapter)
		suggested, err := inferer.InferCandidates(meta)
		if err != nil {
			log.Warnf("候选外键推测失败: %v", err)
		} else {
			for _, edge := range suggested {
				g.AddEdge(edge)
			}
			log.Infof("推测出 %d 个候选外键", len(suggested))
		}
	}

	// 6. 码表检测
	lookups := analyzer.NewLookupDetector().DetectLookupTables(meta, fks)
	for _, l := range lookups {
		log.Infof("码表: %s (键列 %s, 被 %d 个根表引用)", l.Name, l.KeyColumn, len(l.ReferencedBy))
	}

	// 7. 输出产物
	if err := writeOutputs(cfg, result, g, lookups); err != nil {
		log.Fatalf("写出产物失败: %v", err)
	}
	log.Infof("完成，产物位于 %s", cfg.Output.Dir)
}

// openAdapter 按类型打开适配器
func openAdapter(cfg *config.Config) (adapter.DBAdapter, error) {
	switch cfg.Database.Type {
	case "postgres":
		return adapter.NewPostgresAdapter(cfg.Database.Conn, cfg.Database.Schema)
	case "mysql":
		return adapter.NewMySQLAdapter(cfg.Database.Conn, cfg.Database.Schema)
	case "sqlserver":
		return adapter.NewSQLServerAdapter(cfg.Database.Conn)
	case "sqlite":
		return adapter.NewSQLiteAdapter(cfg.Database.Conn)
	}
	return nil, &unknownDBError{cfg.Database.Type}
}

type unknownDBError struct{ kind string }

func (e *unknownDBError) Error() string {
	return "不支持的数据库类型: " + e.kind
}

// writeOutputs 落盘：结构图 JSON、数据字典、ER 图、构建清单与生成代码
func writeOutputs(cfg *config.Config, result *classifier.Result, g *graph.SchemaGraph, lookups []analyzer.LookupTable) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return err
	}

	jsonData, err := g.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.Output.Dir, "schema_graph.json"), jsonData, 0o644); err != nil {
		return err
	}

	dict := generator.NewMarkdownRenderer().Render(result)
	if err := os.WriteFile(filepath.Join(cfg.Output.Dir, "dictionary.md"), []byte(dict), 0o644); err != nil {
		return err
	}

	er := generator.NewMermaidRenderer().Render(g)
	if err := os.WriteFile(filepath.Join(cfg.Output.Dir, "er_diagram.mmd"), []byte(er), 0o644); err != nil {
		return err
	}

	manifest, err := generator.BuildManifest(result, lookups).Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.Output.Dir, "manifest.yaml"), manifest, 0o644); err != nil {
		return err
	}

	modelsDir := filepath.Join(cfg.Output.Dir, cfg.Output.Package)
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return err
	}
	files := generator.NewBuilderGenerator(cfg.Output.Package).Generate(result, lookups)
	for _, name := range generator.SortedFileNames(files) {
		if err := os.WriteFile(filepath.Join(modelsDir, name), []byte(files[name]), 0o644); err != nil {
			return err
		}
	}
	return nil
}
