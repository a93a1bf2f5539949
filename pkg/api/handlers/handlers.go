/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/keyreg-io/keyreg/pkg/api/middleware"
	"github.com/keyreg-io/keyreg/pkg/cache"
	"github.com/keyreg-io/keyreg/pkg/metrics"
)

// VerifyRequest is the body of a verification call
type VerifyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// VerifyResponse is returned for a valid credential
type VerifyResponse struct {
	Valid    bool              `json:"valid"`
	KeyID    string            `json:"key_id"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// VerifyErrorResponse is returned for any rejected credential. The body is
// deliberately identical for unknown and expired keys.
type VerifyErrorResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// RefreshResponse reports the outcome of a cache reload
type RefreshResponse struct {
	Status     string `json:"status"`
	KeysLoaded int    `json:"keys_loaded"`
	Timestamp  string `json:"timestamp"`
}

// APIServer serves the verification and refresh endpoints
type APIServer struct {
	cache  *cache.Cache
	logger *zap.Logger
	now    func() time.Time
}

// NewAPIServer creates a new API server with dependencies
func NewAPIServer(c *cache.Cache, logger *zap.Logger) *APIServer {
	return &APIServer{
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// SetupRouter builds the Gin engine with all middleware and routes
func SetupRouter(server *APIServer, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandlingMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	router.POST("/verify", server.VerifyKey)
	router.POST("/refresh", middleware.LocalhostOnly(logger), server.Refresh)
	router.GET("/health", server.HealthCheck)

	return router
}

// secretHint returns a short prefix of a presented secret for audit logs;
// never enough to reconstruct the credential
func secretHint(secret string) string {
	if len(secret) <= 4 {
		return secret
	}
	return secret[:4]
}

// VerifyKey handles POST /verify
func (s *APIServer) VerifyKey(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, VerifyErrorResponse{
			Valid: false,
			Error: "request body must contain api_key",
		})
		return
	}

	record, status := s.cache.VerifySecret(req.APIKey)

	clientIP := c.ClientIP()
	userAgent := c.Request.UserAgent()

	switch status {
	case cache.VerifyValid:
		metrics.VerificationsTotal.WithLabelValues("valid").Inc()
		s.logger.Info("API key verified",
			zap.String("key_id", record.ID),
			zap.String("key_name", record.Name),
			zap.String("client_ip", clientIP),
			zap.String("user_agent", userAgent),
		)
		c.JSON(http.StatusOK, VerifyResponse{
			Valid:    true,
			KeyID:    record.ID,
			Name:     record.Name,
			Metadata: record.Metadata,
		})
		return

	case cache.VerifyExpired:
		// Logged distinctly from unknown keys, but the response body must
		// not reveal which case occurred
		metrics.VerificationsTotal.WithLabelValues("expired").Inc()
		s.logger.Warn("Rejected expired API key",
			zap.String("key_id", record.ID),
			zap.String("key_name", record.Name),
			zap.String("client_ip", clientIP),
			zap.String("user_agent", userAgent),
		)

	default:
		metrics.VerificationsTotal.WithLabelValues("invalid").Inc()
		s.logger.Warn("Rejected unknown API key",
			zap.String("secret_hint", secretHint(req.APIKey)),
			zap.String("client_ip", clientIP),
			zap.String("user_agent", userAgent),
		)
	}

	c.JSON(http.StatusForbidden, VerifyErrorResponse{
		Valid: false,
		Error: "invalid API key",
	})
}

// Refresh handles POST /refresh. On failure the previously cached registry
// keeps serving.
func (s *APIServer) Refresh(c *gin.Context) {
	start := time.Now()
	count, err := s.cache.Load(c.Request.Context())
	metrics.RegistryLoadDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("http", "failure").Inc()
		s.logger.Error("Registry refresh failed, retaining previous snapshot",
			zap.Error(err),
			zap.Int("keys_cached", s.cache.Count()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "failed to reload registry",
		})
		return
	}

	metrics.RefreshesTotal.WithLabelValues("http", "success").Inc()
	metrics.RegistryKeys.Set(float64(count))
	s.logger.Info("Registry refreshed", zap.Int("keys_loaded", count))

	c.JSON(http.StatusOK, RefreshResponse{
		Status:     "ok",
		KeysLoaded: count,
		Timestamp:  s.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheck handles GET /health. The body carries no registry details:
// the endpoint is unauthenticated.
func (s *APIServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
