package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"schema-relations/internal/adapter"
	"schema-relations/internal/analyzer"
	"schema-relations/internal/classifier"
	"schema-relations/internal/config"
	"schema-relations/internal/generator"
	"schema-relations/internal/graph"
	"schema-relations/internal/schema"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// ClassifyRequest 分类请求
type ClassifyRequest struct {
	DBType  string `json:"db_type"` // postgres/mysql/sqlserver/sqlite
	Conn    string `json:"conn"`    // 连接字符串
	Schema  string `json:"schema"`  // Schema（MySQL/PostgreSQL 需要）
	Workers int    `json:"workers"` // 分类并发度
}

// ClassifyTask 分类任务
type ClassifyTask struct {
	ID        string          `json:"id"`
	Request   ClassifyRequest `json:"-"`
	Status    string          `json:"status"` // pending/running/completed/failed
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Result    *ClassifyResult `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ClassifyResult 分类结果
type ClassifyResult struct {
	GraphJSON  string         `json:"graph_json"`
	DictMD     string         `json:"dict_md"`
	ErMermaid  string         `json:"er_mermaid"`
	Manifest   string         `json:"manifest"`
	Stats      map[string]int `json:"stats"`
	TableError map[string]string `json:"table_errors,omitempty"`
}

var (
	tasks   = make(map[string]*ClassifyTask)
	tasksMu sync.RWMutex
	log     *zap.SugaredLogger
)

func main() {
	zl, _ := zap.NewProduction()
	defer zl.Sync()
	log = zl.Sugar()

	http.Handle("/", http.FileServer(http.Dir("web/static")))

	http.HandleFunc("/api/classify", handleClassify)
	http.HandleFunc("/api/task/", handleTaskStatus)
	http.HandleFunc("/api/ws", handleWebSocket)
	http.HandleFunc("/api/test-connection", handleTestConnection)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Infof("关系分类服务启动: http://localhost:%s", port)
	log.Fatal(http.ListenAndServe(":"+port, nil))
}

// handleClassify 处理分类请求
func handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	taskID := fmt.Sprintf("task_%d", time.Now().UnixNano())
	task := &ClassifyTask{
		ID:        taskID,
		Request:   req,
		Status:    "pending",
		Message:   "任务已创建，等待执行",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	tasksMu.Lock()
	tasks[taskID] = task
	tasksMu.Unlock()

	go runTask(task)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"task_id": taskID})
}

// runTask 执行分类任务
func runTask(task *ClassifyTask) {
	update := func(status string, progress int, message string) {
		tasksMu.Lock()
		task.Status = status
		task.Progress = progress
		task.Message = message
		task.UpdatedAt = time.Now()
		tasksMu.Unlock()
	}

	update("running", 10, "连接数据库")
	dbAdapter, err := openAdapter(task.Request)
	if err != nil {
		update("failed", 100, fmt.Sprintf("连接失败: %v", err))
		return
	}
	defer dbAdapter.Close()

	update("running", 30, "获取元数据")
	meta, err := dbAdapter.IntrospectSchema()
	if err != nil {
		update("failed", 100, fmt.Sprintf("获取元数据失败: %v", err))
		return
	}
	fks, err := dbAdapter.GetForeignKeys()
	if err != nil {
		update("failed", 100, fmt.Sprintf("获取外键失败: %v", err))
		return
	}

	update("running", 50, fmt.Sprintf("分类 %d 个外键", len(fks)))
	snap, err := schema.Build(meta, fks)
	if err != nil {
		update("failed", 100, fmt.Sprintf("构建快照失败: %v", err))
		return
	}
	result := classifier.ClassifyWithOptions(snap, classifier.Options{Workers: task.Request.Workers})

	update("running", 80, "生成产物")
	g := graph.BuildFromResult(result)
	jsonData, err := g.ToJSON()
	if err != nil {
		update("failed", 100, fmt.Sprintf("导出失败: %v", err))
		return
	}
	lookups := analyzer.NewLookupDetector().DetectLookupTables(meta, fks)
	manifest, err := generator.BuildManifest(result, lookups).Marshal()
	if err != nil {
		update("failed", 100, fmt.Sprintf("导出失败: %v", err))
		return
	}

	stats := map[string]int{
		"tables":       len(snap.Tables),
		"foreign_keys": len(snap.ForeignKeys),
		"extensions":   len(result.Extensions),
		"triangulars":  len(result.Triangulars),
		"lookups":      len(lookups),
	}
	for edgeType, count := range g.TypeCounts() {
		stats[string(edgeType)] = count
	}
	tableErrors := make(map[string]string)
	for id, terr := range result.TableErrors {
		tableErrors[snap.Table(id).QualifiedName()] = terr.Error()
	}

	tasksMu.Lock()
	task.Result = &ClassifyResult{
		GraphJSON:  string(jsonData),
		DictMD:     generator.NewMarkdownRenderer().Render(result),
		ErMermaid:  generator.NewMermaidRenderer().Render(g),
		Manifest:   string(manifest),
		Stats:      stats,
		TableError: tableErrors,
	}
	tasksMu.Unlock()
	update("completed", 100, "完成")
}

// openAdapter 按请求打开适配器
func openAdapter(req ClassifyRequest) (adapter.DBAdapter, error) {
	cfg := &config.Config{}
	cfg.Database.Type = req.DBType
	cfg.Database.Conn = req.Conn
	cfg.Database.Schema = req.Schema

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
	return nil, fmt.Errorf("不支持的数据库类型: %s", cfg.Database.Type)
}

// handleTaskStatus 查询任务状态
func handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Path[len("/api/task/"):]

	tasksMu.RLock()
	task, ok := tasks[taskID]
	tasksMu.RUnlock()
	if !ok {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	tasksMu.RLock()
	defer tasksMu.RUnlock()
	json.NewEncoder(w).Encode(task)
}

// handleWebSocket 推送任务进度
func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		http.Error(w, "task_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		tasksMu.RLock()
		task, ok := tasks[taskID]
		tasksMu.RUnlock()
		if !ok {
			return
		}

		tasksMu.RLock()
		err := conn.WriteJSON(task)
		done := task.Status == "completed" || task.Status == "failed"
		tasksMu.RUnlock()
		if err != nil || done {
			return
		}
	}
}

// handleTestConnection 测试连接
func handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	dbAdapter, err := openAdapter(req)
	resp := map[string]interface{}{"ok": err == nil}
	if err != nil {
		resp["error"] = err.Error()
	} else {
		dbAdapter.Close()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
