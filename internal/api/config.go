package api

import (
	"net/http"

	"sentinel/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ConfigManager exposes the database-backed configuration over HTTP.
type ConfigManager struct {
	dbConfig *config.DatabaseConfig
	logger   *logrus.Logger
}

// NewConfigManager creates the manager.
func NewConfigManager(dbConfig *config.DatabaseConfig, logger *logrus.Logger) *ConfigManager {
	return &ConfigManager{
		dbConfig: dbConfig,
		logger:   logger,
	}
}

// UpdateConfig upserts one setting in a config table.
func (cm *ConfigManager) UpdateConfig(c *gin.Context) {
	configType := c.Param("type")

	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	if err := cm.dbConfig.UpdateConfig(configType, req.Key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "config update failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "config updated",
		"config": gin.H{
			"type":  configType,
			"key":   req.Key,
			"value": req.Value,
		},
	})
}

// GetChainNodes lists the configured RPC nodes.
func (cm *ConfigManager) GetChainNodes(c *gin.Context) {
	rows, err := cm.dbConfig.DB.Query(
		`SELECT id, name, url, rate_limit, priority, is_active FROM chain_nodes ORDER BY priority`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "fetching node config failed",
			"message": err.Error(),
		})
		return
	}
	defer rows.Close()

	var nodes []gin.H
	for rows.Next() {
		var id, rateLimit, priority int
		var name, url string
		var isActive bool

		if err := rows.Scan(&id, &name, &url, &rateLimit, &priority, &isActive); err != nil {
			continue
		}

		nodes = append(nodes, gin.H{
			"id":         id,
			"name":       name,
			"url":        url,
			"rate_limit": rateLimit,
			"priority":   priority,
			"is_active":  isActive,
		})
	}

	c.JSON(http.StatusOK, gin.H{"nodes": nodes})
}

// AddChainNode registers a new RPC node.
func (cm *ConfigManager) AddChainNode(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		URL       string `json:"url" binding:"required"`
		RateLimit int    `json:"rate_limit"`
		Priority  int    `json:"priority"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	_, err := cm.dbConfig.DB.Exec(
		`INSERT INTO chain_nodes (name, url, rate_limit, priority) VALUES ($1, $2, $3, $4)`,
		req.Name, req.URL, req.RateLimit, req.Priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "adding node failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "node added",
		"node":    req,
	})
}

// UpdateChainNode edits an existing RPC node.
func (cm *ConfigManager) UpdateChainNode(c *gin.Context) {
	nodeID := c.Param("id")

	var req struct {
		Name      string `json:"name"`
		URL       string `json:"url"`
		RateLimit int    `json:"rate_limit"`
		Priority  int    `json:"priority"`
		IsActive  bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"message": err.Error(),
		})
		return
	}

	_, err := cm.dbConfig.DB.Exec(
		`UPDATE chain_nodes SET name = $1, url = $2, rate_limit = $3, priority = $4, is_active = $5 WHERE id = $6`,
		req.Name, req.URL, req.RateLimit, req.Priority, req.IsActive, nodeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "updating node failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "node updated"})
}

// DeleteChainNode removes an RPC node.
func (cm *ConfigManager) DeleteChainNode(c *gin.Context) {
	nodeID := c.Param("id")

	_, err := cm.dbConfig.DB.Exec(`DELETE FROM chain_nodes WHERE id = $1`, nodeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "deleting node failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "node deleted"})
}
