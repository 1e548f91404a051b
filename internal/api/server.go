package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sentinel/internal/config"
	"sentinel/internal/finding"
	"sentinel/internal/scanner"
)

// Server exposes scan control, findings and operational state over HTTP.
type Server struct {
	config        *config.Config
	scanner       *scanner.Scanner
	findings      *FindingsBuffer
	configManager *ConfigManager
	logger        *logrus.Logger
	logs          *LogManager
	server        *http.Server
	mu            sync.RWMutex
	isRunning     bool
	scanStop      context.CancelFunc
	startedAt     time.Time
	listen        string
}

// NewServer wires the API over an assembled scanner and findings buffer. A
// log hook is installed so /logs can serve recent lines.
func NewServer(cfg *config.Config, sc *scanner.Scanner, findings *FindingsBuffer, logger *logrus.Logger, listen string) *Server {
	logs := NewLogManager(1000)
	logger.AddHook(NewLogHook(logs))

	return &Server{
		config:    cfg,
		scanner:   sc,
		findings:  findings,
		logger:    logger,
		logs:      logs,
		startedAt: time.Now(),
		listen:    listen,
	}
}

// EnableConfigAPI adds the database-backed configuration endpoints. Must be
// called before Start.
func (s *Server) EnableConfigAPI(cm *ConfigManager) {
	s.configManager = cm
}

// Start runs the HTTP server until Stop or a listener error.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:    s.listen,
		Handler: router,
	}

	s.logger.Infof("api server listening on %s", s.listen)
	return s.server.ListenAndServe()
}

// Stop halts any running scan and shuts the HTTP server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.isRunning && s.scanStop != nil {
		s.scanStop()
		s.isRunning = false
	}
	s.mu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) setupRoutes(router *gin.Engine) {
	router.GET("/health", s.healthCheck)

	api := router.Group("/api/v1")
	{
		api.GET("/status", s.getStatus)
		api.GET("/stats", s.getStats)
		api.GET("/findings", s.getFindings)
		api.GET("/logs", s.getLogs)
		api.DELETE("/logs", s.clearLogs)
		api.GET("/nodes", s.getNodes)

		api.POST("/scan/start", s.startScan)
		api.POST("/scan/stop", s.stopScan)

		if s.configManager != nil {
			api.GET("/config/nodes", s.configManager.GetChainNodes)
			api.POST("/config/nodes", s.configManager.AddChainNode)
			api.PUT("/config/nodes/:id", s.configManager.UpdateChainNode)
			api.DELETE("/config/nodes/:id", s.configManager.DeleteChainNode)
			api.POST("/config/:type", s.configManager.UpdateConfig)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "sentinel-api",
	})
}

func (s *Server) getStatus(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := "idle"
	if s.isRunning {
		status = "scanning"
	}

	c.JSON(http.StatusOK, gin.H{
		"running": s.isRunning,
		"status":  status,
		"uptime":  time.Since(s.startedAt).String(),
	})
}

func (s *Server) getStats(c *gin.Context) {
	s.mu.RLock()
	running := s.isRunning
	s.mu.RUnlock()

	stats := gin.H{
		"running":           running,
		"uptime":            time.Since(s.startedAt).String(),
		"buffered_findings": 0,
	}
	if s.findings != nil {
		stats["buffered_findings"] = s.findings.Count()
	}
	if s.scanner != nil {
		stats["node_status"] = s.scanner.NodeStatus()
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) getFindings(c *gin.Context) {
	if s.findings == nil {
		c.JSON(http.StatusOK, gin.H{"findings": []finding.Finding{}, "total": 0})
		return
	}

	minSeverity := finding.Severity(c.DefaultQuery("min_severity", string(finding.SeverityInfo)))
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("pageSize"), 20)

	findings, total := s.findings.Recent(minSeverity, page, pageSize)

	c.JSON(http.StatusOK, gin.H{
		"findings": findings,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (s *Server) getLogs(c *gin.Context) {
	level := c.Query("level")
	page := parsePositiveInt(c.Query("page"), 1)
	pageSize := parsePositiveInt(c.Query("pageSize"), 20)

	logs, total := s.logs.GetLogsWithPagination(level, page, pageSize)

	c.JSON(http.StatusOK, gin.H{
		"logs":     logs,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"level":    level,
	})
}

func (s *Server) clearLogs(c *gin.Context) {
	s.logs.ClearLogs()
	c.JSON(http.StatusOK, gin.H{"message": "logs cleared"})
}

func (s *Server) getNodes(c *gin.Context) {
	if s.scanner == nil {
		c.JSON(http.StatusOK, gin.H{"nodes": []gin.H{}, "total": 0})
		return
	}
	c.JSON(http.StatusOK, s.scanner.NodeStatus())
}

func (s *Server) startScan(c *gin.Context) {
	var req struct {
		StartBlock uint64 `json:"start_block"`
		EndBlock   uint64 `json:"end_block"`
		Workers    int    `json:"workers"`
		Stream     bool   `json:"stream"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scanner not configured"})
		return
	}
	if s.isRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "a scan is already running"})
		return
	}

	scanCtx, cancel := context.WithCancel(context.Background())
	s.scanStop = cancel
	s.isRunning = true

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			cancel()
		}()

		if req.Stream {
			s.logger.Info("stream scan started via api")
			if err := s.scanner.ScanStream(scanCtx); err != nil && err != context.Canceled {
				s.logger.Errorf("stream scan failed: %v", err)
			}
			return
		}

		workers := req.Workers
		if workers <= 0 {
			workers = 2
		}
		s.logger.Infof("batch scan started via api: blocks %d - %d", req.StartBlock, req.EndBlock)
		report, err := s.scanner.ScanBatch(scanCtx, req.StartBlock, req.EndBlock, workers)
		if err != nil && err != context.Canceled {
			s.logger.Errorf("batch scan failed: %v", err)
			return
		}
		if report != nil {
			s.logger.Infof("batch scan done: %d blocks, %d transactions, %d findings",
				report.ProcessedBlocks, report.TotalTransactions, report.TotalFindings)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message": "scan started",
		"status":  "started",
	})
}

func (s *Server) stopScan(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "no scan running"})
		return
	}

	if s.scanStop != nil {
		s.scanStop()
	}
	s.isRunning = false

	c.JSON(http.StatusOK, gin.H{
		"message": "scan stopped",
		"status":  "stopped",
	})
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return fallback
}
